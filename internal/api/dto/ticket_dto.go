package dto

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// SubmitTicketRequest is the POST /tickets payload. Variables are
// optional template overrides applied when rendering the response.
type SubmitTicketRequest struct {
	ID        string            `json:"id"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Customer  map[string]string `json:"customer"`
	Variables map[string]string `json:"variables,omitempty"`
}

// AnalysisView mirrors domain.TicketAnalysis for responses.
type AnalysisView struct {
	Category              string   `json:"category"`
	Priority              string   `json:"priority"`
	UrgencyIndicators     []string `json:"urgency_indicators,omitempty"`
	KeyPoints             []string `json:"key_points,omitempty"`
	RequiredExpertise     []string `json:"required_expertise,omitempty"`
	SuggestedResponseType string   `json:"suggested_response_type"`
}

// SuggestionView mirrors domain.ResponseSuggestion for responses.
type SuggestionView struct {
	ResponseText     string   `json:"response_text"`
	ConfidenceScore  float64  `json:"confidence_score"`
	RequiresApproval bool     `json:"requires_approval"`
	SuggestedActions []string `json:"suggested_actions"`
}

// SnapshotView mirrors the context snapshot for responses.
type SnapshotView struct {
	TakenAt             time.Time `json:"taken_at"`
	CustomerTickets     int       `json:"customer_tickets"`
	TotalCustomers      int       `json:"total_customers"`
	LastSuccessAt       time.Time `json:"last_success_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// ResolutionView is the externally visible processing result.
type ResolutionView struct {
	TicketID     string          `json:"ticket_id"`
	ResponseText string          `json:"response_text"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	Analysis     *AnalysisView   `json:"analysis,omitempty"`
	Response     *SuggestionView `json:"response,omitempty"`
	Context      SnapshotView    `json:"context"`
}

// ResolutionViewFrom maps a domain resolution onto the wire shape.
func ResolutionViewFrom(resolution domain.TicketResolution) ResolutionView {
	view := ResolutionView{
		TicketID:     resolution.TicketID,
		ResponseText: resolution.ResponseText,
		Status:       string(resolution.Status),
		Error:        resolution.Error,
		Context: SnapshotView{
			TakenAt:             resolution.Context.TakenAt,
			CustomerTickets:     resolution.Context.CustomerTickets,
			TotalCustomers:      resolution.Context.TotalCustomers,
			LastSuccessAt:       resolution.Context.Health.LastSuccessAt,
			ConsecutiveFailures: resolution.Context.Health.ConsecutiveFailures,
		},
	}
	if resolution.Analysis != nil {
		view.Analysis = &AnalysisView{
			Category:              string(resolution.Analysis.Category),
			Priority:              resolution.Analysis.Priority.String(),
			UrgencyIndicators:     resolution.Analysis.UrgencyIndicators,
			KeyPoints:             resolution.Analysis.KeyPoints,
			RequiredExpertise:     resolution.Analysis.RequiredExpertise,
			SuggestedResponseType: resolution.Analysis.SuggestedResponseType,
		}
	}
	if resolution.Response != nil {
		view.Response = &SuggestionView{
			ResponseText:     resolution.Response.ResponseText,
			ConfidenceScore:  resolution.Response.ConfidenceScore,
			RequiresApproval: resolution.Response.RequiresApproval,
			SuggestedActions: resolution.Response.SuggestedActions,
		}
	}
	return view
}
