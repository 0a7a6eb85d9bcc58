// Package capability defines the text-understanding contract the triage
// pipeline consumes. Implementations may be remote services; the
// pipeline treats every call as potentially slow or unavailable and
// degrades per the analyzer/planner fallback rules.
package capability

import (
	"context"
	"errors"
)

// ErrUnavailable marks a capability failure the orchestrator may retry.
// Implementations wrap connection-level and timeout failures with it;
// anything else is treated as non-transient.
var ErrUnavailable = errors.New("text capability unavailable")

// IsUnavailable reports whether a capability failure is transient:
// the backend was unreachable, timed out, or the call was cancelled.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// Entity is a labeled span extracted from text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Keyword is a relevance-scored phrase extracted from text.
type Keyword struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// TextCapabilities is the capability contract: pure functions of text,
// no state observable across calls.
type TextCapabilities interface {
	// Classify returns the best label from the given set and its
	// confidence in [0,1].
	Classify(ctx context.Context, text string, labels []string) (string, float64, error)
	// Entities returns labeled entities found in the text.
	Entities(ctx context.Context, text string) ([]Entity, error)
	// Keywords returns relevance-ranked key phrases.
	Keywords(ctx context.Context, text string) ([]Keyword, error)
	// Readability returns a 0-100 reading-ease score.
	Readability(ctx context.Context, text string) (float64, error)
	// Sentiment returns a polarity in [-1,1].
	Sentiment(ctx context.Context, text string) (float64, error)
}
