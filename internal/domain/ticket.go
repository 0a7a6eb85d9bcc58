package domain

import "strings"

// TicketCategory enumerates the closed set of triage categories.
type TicketCategory string

const (
	CategoryTechnical TicketCategory = "technical"
	CategoryBilling   TicketCategory = "billing"
	CategoryFeature   TicketCategory = "feature"
	CategoryAccess    TicketCategory = "access"
)

// Categories returns every valid category in a stable order, suitable
// for handing to a zero-shot classifier as its label set.
func Categories() []TicketCategory {
	return []TicketCategory{CategoryTechnical, CategoryBilling, CategoryFeature, CategoryAccess}
}

// ParseCategory maps a classifier label back to a category, defaulting
// to technical for anything outside the closed set.
func ParseCategory(label string) TicketCategory {
	switch TicketCategory(strings.ToLower(strings.TrimSpace(label))) {
	case CategoryBilling:
		return CategoryBilling
	case CategoryFeature:
		return CategoryFeature
	case CategoryAccess:
		return CategoryAccess
	default:
		return CategoryTechnical
	}
}

// Priority is the ordered four point urgency scale.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// PriorityFromScore clamps an already-rounded score into the valid range.
func PriorityFromScore(score int) Priority {
	if score < int(PriorityLow) {
		return PriorityLow
	}
	if score > int(PriorityCritical) {
		return PriorityCritical
	}
	return Priority(score)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Profile keys recognized across the pipeline.
const (
	ProfileKeyCustomerID = "customer_id"
	ProfileKeyName       = "name"
	ProfileKeyRole       = "role"
	ProfileKeyPlan       = "plan"
)

// SupportTicket is the immutable pipeline input.
type SupportTicket struct {
	ID       string
	Subject  string
	Body     string
	Customer map[string]string
	// Variables are caller-supplied template variables. They override
	// computed values on key collision during response rendering.
	Variables map[string]string
}

// CustomerID returns the optional customer identifier from the profile.
func (t SupportTicket) CustomerID() string {
	return strings.TrimSpace(t.Customer[ProfileKeyCustomerID])
}

// Role returns the customer's role attribute, lowercased.
func (t SupportTicket) Role() string {
	return strings.ToLower(strings.TrimSpace(t.Customer[ProfileKeyRole]))
}

// Plan returns the customer's plan attribute, lowercased.
func (t SupportTicket) Plan() string {
	return strings.ToLower(strings.TrimSpace(t.Customer[ProfileKeyPlan]))
}

// Name returns the explicit display name from the profile, if any.
func (t SupportTicket) Name() string {
	return strings.TrimSpace(t.Customer[ProfileKeyName])
}
