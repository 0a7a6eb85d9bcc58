// Package contextstore owns the pipeline's shared mutable state:
// per-customer interaction history and process-wide health counters.
// History is in-memory by design and lost on restart.
package contextstore

import (
	"sync"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Store serializes all history appends and health updates behind one
// mutex so concurrent ticket completions cannot interleave.
type Store struct {
	mu        sync.Mutex
	histories map[string][]domain.CustomerHistoryEntry
	health    domain.SystemHealthState
	now       func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		histories: make(map[string][]domain.CustomerHistoryEntry),
		now:       time.Now,
	}
}

// Record appends a history entry for the customer. Entries for one
// customer are append-only and time-ordered.
func (s *Store) Record(customerID, ticketID, subject string) {
	if customerID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[customerID] = append(s.histories[customerID], domain.CustomerHistoryEntry{
		Timestamp: s.now(),
		TicketID:  ticketID,
		Subject:   subject,
	})
}

// History returns a copy of the customer's full history.
func (s *Store) History(customerID string) []domain.CustomerHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEntries(s.histories[customerID])
}

// LastN returns a copy of the customer's most recent n entries.
func (s *Store) LastN(customerID string, n int) []domain.CustomerHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.histories[customerID]
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return copyEntries(entries)
}

// Snapshot captures the store's state as seen for one customer.
func (s *Store) Snapshot(customerID string) domain.ContextSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ContextSnapshot{
		TakenAt:         s.now(),
		CustomerTickets: len(s.histories[customerID]),
		TotalCustomers:  len(s.histories),
		Health:          s.health,
	}
}

// MarkSuccess records a completed ticket: the consecutive-failure
// counter resets and the completion timestamp is stored.
func (s *Store) MarkSuccess(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health.LastSuccessAt = at
	s.health.ConsecutiveFailures = 0
}

// MarkFailure increments the consecutive-failure counter. The counter
// is diagnostic only; nothing in the pipeline reads it for control
// flow, but an external supervisor may act on Health().
func (s *Store) MarkFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health.ConsecutiveFailures++
}

// Health returns the current health counters.
func (s *Store) Health() domain.SystemHealthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

func copyEntries(entries []domain.CustomerHistoryEntry) []domain.CustomerHistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]domain.CustomerHistoryEntry, len(entries))
	copy(out, entries)
	return out
}
