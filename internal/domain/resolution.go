package domain

import "time"

// ResolutionStatus enumerates terminal outcomes of ticket processing.
type ResolutionStatus string

const (
	StatusCompleted     ResolutionStatus = "completed"
	StatusNeedsApproval ResolutionStatus = "needs_approval"
	StatusFailed        ResolutionStatus = "failed"
)

// CustomerHistoryEntry is one append-only record of a customer's prior
// ticket. Entries are time-ordered per customer.
type CustomerHistoryEntry struct {
	Timestamp time.Time
	TicketID  string
	Subject   string
}

// SystemHealthState tracks process-wide pipeline health. Diagnostic
// only; it never feeds back into pipeline control flow.
type SystemHealthState struct {
	LastSuccessAt       time.Time
	ConsecutiveFailures int
}

// ContextSnapshot captures the context store's view at the moment a
// ticket enters the pipeline.
type ContextSnapshot struct {
	TakenAt         time.Time
	CustomerTickets int
	TotalCustomers  int
	Health          SystemHealthState
}

// TicketResolution is the externally visible processing result.
// Analysis and Response stay populated for diagnostics even when the
// overall status is failed partway through.
type TicketResolution struct {
	TicketID     string
	ResponseText string
	Status       ResolutionStatus
	Error        string
	Analysis     *TicketAnalysis
	Response     *ResponseSuggestion
	Context      ContextSnapshot
}
