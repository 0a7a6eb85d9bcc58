package events

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketReceived   EventType = "ticket_received"
	EventTicketResolved   EventType = "ticket_resolved"
	EventTicketFailed     EventType = "ticket_failed"
	EventApprovalRequired EventType = "approval_required"
)

// Event represents a pipeline event emitted by the orchestrator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketReceivedPayload payload.
type TicketReceivedPayload struct {
	Subject    string `json:"subject"`
	CustomerID string `json:"customer_id,omitempty"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Status     domain.ResolutionStatus `json:"status"`
	Category   domain.TicketCategory   `json:"category"`
	Priority   string                  `json:"priority"`
	Confidence float64                 `json:"confidence"`
}

// TicketFailedPayload payload.
type TicketFailedPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ApprovalRequiredPayload payload.
type ApprovalRequiredPayload struct {
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
}
