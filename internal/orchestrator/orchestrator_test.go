package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticket-triage/internal/analyzer"
	"github.com/spec-kit/ticket-triage/internal/capability"
	"github.com/spec-kit/ticket-triage/internal/contextstore"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/planner"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    int
	analysis *domain.TicketAnalysis
	// errs are returned per attempt; calls past the slice succeed.
	errs  []error
	delay time.Duration
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string, actx analyzer.Context) (*domain.TicketAnalysis, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return &domain.TicketAnalysis{
		Category:              domain.CategoryTechnical,
		Priority:              domain.PriorityMedium,
		SuggestedResponseType: domain.ResponseTypeGeneral,
	}, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePlanner struct {
	suggestion *domain.ResponseSuggestion
	err        error
	lastCtx    planner.Context
}

func (f *fakePlanner) Plan(ctx context.Context, analysis *domain.TicketAnalysis, catalog planner.Catalog, pctx planner.Context) (*domain.ResponseSuggestion, error) {
	f.lastCtx = pctx
	if f.err != nil {
		return nil, f.err
	}
	if f.suggestion != nil {
		return f.suggestion, nil
	}
	return &domain.ResponseSuggestion{
		ResponseText:     "Thanks for reaching out, we are on it.",
		ConfidenceScore:  0.8,
		SuggestedActions: []string{"Monitor ticket status"},
	}, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

func testTicket() domain.SupportTicket {
	return domain.SupportTicket{
		ID:      "TKT-100",
		Subject: "Dashboard down",
		Body:    "Our dashboard shows a blank page since this morning.",
		Customer: map[string]string{
			domain.ProfileKeyCustomerID: "cust-1",
			domain.ProfileKeyName:       "Ana",
		},
	}
}

func newTestOrchestrator(a TicketAnalyzer, p ResponsePlanner, opts Options) (*Orchestrator, *eventRecorder) {
	recorder := &eventRecorder{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, eventType := range []events.EventType{
		events.EventTicketReceived,
		events.EventTicketResolved,
		events.EventTicketFailed,
		events.EventApprovalRequired,
	} {
		dispatcher.Subscribe(eventType, recorder.record)
	}
	orch := New(Dependencies{
		Analyzer:   a,
		Planner:    p,
		Store:      contextstore.New(),
		Catalog:    planner.DefaultCatalog(),
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
	}, opts)
	return orch, recorder
}

func TestProcessCompletesConfidentTicket(t *testing.T) {
	t.Parallel()
	fa := &fakeAnalyzer{}
	fp := &fakePlanner{}
	orch, recorder := newTestOrchestrator(fa, fp, Options{})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusCompleted {
		t.Fatalf("Status = %s, want %s (error: %s)", resolution.Status, domain.StatusCompleted, resolution.Error)
	}
	if resolution.ResponseText == "" {
		t.Error("ResponseText is empty")
	}
	if resolution.Analysis == nil || resolution.Response == nil {
		t.Error("resolution must carry analysis and response")
	}
	if resolution.Context.CustomerTickets != 1 {
		t.Errorf("Context.CustomerTickets = %d, want 1", resolution.Context.CustomerTickets)
	}
	if health := orch.Store().Health(); health.LastSuccessAt.IsZero() || health.ConsecutiveFailures != 0 {
		t.Errorf("health = %+v, want success recorded", health)
	}

	got := recorder.types()
	want := []events.EventType{events.EventTicketReceived, events.EventTicketResolved}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestProcessFlagsApproval(t *testing.T) {
	t.Parallel()
	fa := &fakeAnalyzer{}
	fp := &fakePlanner{suggestion: &domain.ResponseSuggestion{
		ResponseText:     "We will issue the refund after verification.",
		ConfidenceScore:  0.9,
		RequiresApproval: true,
		SuggestedActions: []string{"Verify payment records"},
	}}
	orch, recorder := newTestOrchestrator(fa, fp, Options{})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusNeedsApproval {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusNeedsApproval)
	}
	if resolution.Error != "" {
		t.Errorf("Error = %q, want empty", resolution.Error)
	}

	var sawApproval bool
	for _, eventType := range recorder.types() {
		if eventType == events.EventApprovalRequired {
			sawApproval = true
		}
	}
	if !sawApproval {
		t.Errorf("events = %v, want approval_required", recorder.types())
	}
}

func TestProcessRejectsEmptyBody(t *testing.T) {
	t.Parallel()
	fa := &fakeAnalyzer{}
	orch, recorder := newTestOrchestrator(fa, &fakePlanner{}, Options{})

	ticket := testTicket()
	ticket.Body = "   "
	resolution := orch.Process(context.Background(), ticket)

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	if resolution.Analysis != nil || resolution.Response != nil {
		t.Error("validation failure must not carry analysis or response")
	}
	if fa.callCount() != 0 {
		t.Errorf("analyzer called %d times, want 0", fa.callCount())
	}
	if !strings.Contains(resolution.Error, "empty") {
		t.Errorf("Error = %q, want empty-body message", resolution.Error)
	}
	if health := orch.Store().Health(); health.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", health.ConsecutiveFailures)
	}

	got := recorder.types()
	if len(got) != 2 || got[1] != events.EventTicketFailed {
		t.Errorf("events = %v, want received then failed", got)
	}
}

func TestProcessRejectsMissingProfile(t *testing.T) {
	t.Parallel()
	orch, _ := newTestOrchestrator(&fakeAnalyzer{}, &fakePlanner{}, Options{})

	ticket := testTicket()
	ticket.Customer = nil
	resolution := orch.Process(context.Background(), ticket)

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	if !strings.Contains(resolution.Error, "profile") {
		t.Errorf("Error = %q, want missing-profile message", resolution.Error)
	}
}

func TestTransientAnalysisFailureIsRetried(t *testing.T) {
	t.Parallel()
	fa := &fakeAnalyzer{errs: []error{
		apperrors.NewCapabilityError("classifier unavailable", capability.ErrUnavailable),
		apperrors.NewCapabilityError("classifier unavailable", capability.ErrUnavailable),
	}}
	orch, _ := newTestOrchestrator(fa, &fakePlanner{}, Options{
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  2 * time.Millisecond,
	})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusCompleted {
		t.Fatalf("Status = %s, want completed after retries (error: %s)", resolution.Status, resolution.Error)
	}
	if fa.callCount() != 3 {
		t.Errorf("analyzer called %d times, want 3", fa.callCount())
	}
}

func TestRetriesExhaustedFailsTicket(t *testing.T) {
	t.Parallel()
	transient := apperrors.NewCapabilityError("classifier unavailable", capability.ErrUnavailable)
	fa := &fakeAnalyzer{errs: []error{transient, transient, transient}}
	orch, _ := newTestOrchestrator(fa, &fakePlanner{}, Options{
		RetryMaxAttempts: 3,
		RetryBaseDelay:   time.Millisecond,
		RetryMaxDelay:    2 * time.Millisecond,
	})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	if fa.callCount() != 3 {
		t.Errorf("analyzer called %d times, want exactly 3", fa.callCount())
	}
	if resolution.Analysis != nil {
		t.Error("failed analysis must leave Analysis nil")
	}
}

func TestNonTransientAnalysisFailureIsNotRetried(t *testing.T) {
	t.Parallel()
	fa := &fakeAnalyzer{errs: []error{errors.New("malformed lexicon entry")}}
	orch, _ := newTestOrchestrator(fa, &fakePlanner{}, Options{
		RetryBaseDelay: time.Millisecond,
	})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	if fa.callCount() != 1 {
		t.Errorf("analyzer called %d times, want 1", fa.callCount())
	}
}

func TestQualityFloorRejectsWeakDraft(t *testing.T) {
	t.Parallel()
	fp := &fakePlanner{suggestion: &domain.ResponseSuggestion{
		ResponseText:    "Maybe try turning it off and on.",
		ConfidenceScore: 0.2,
	}}
	orch, _ := newTestOrchestrator(&fakeAnalyzer{}, fp, Options{QualityFloor: 0.4})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	// Partial results are kept for diagnosis even on rejection.
	if resolution.Analysis == nil || resolution.Response == nil {
		t.Error("quality rejection must preserve analysis and draft")
	}
	if resolution.ResponseText != "" {
		t.Errorf("ResponseText = %q, want empty for a rejected draft", resolution.ResponseText)
	}
	if !strings.Contains(resolution.Error, "quality floor") {
		t.Errorf("Error = %q, want quality floor message", resolution.Error)
	}
}

func TestEmptyDraftRejected(t *testing.T) {
	t.Parallel()
	fp := &fakePlanner{suggestion: &domain.ResponseSuggestion{ResponseText: "   ", ConfidenceScore: 0.9}}
	orch, _ := newTestOrchestrator(&fakeAnalyzer{}, fp, Options{})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
}

func TestProcessTimeoutProducesTimeoutFailure(t *testing.T) {
	t.Parallel()
	fa := &fakeAnalyzer{delay: 200 * time.Millisecond}
	orch, _ := newTestOrchestrator(fa, &fakePlanner{}, Options{
		ProcessTimeout: 20 * time.Millisecond,
		RetryBaseDelay: time.Millisecond,
	})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	if !strings.Contains(resolution.Error, "timed out") {
		t.Errorf("Error = %q, want timeout message", resolution.Error)
	}
}

func TestHistoryWindowPassedToPlanner(t *testing.T) {
	t.Parallel()
	fp := &fakePlanner{}
	orch, _ := newTestOrchestrator(&fakeAnalyzer{}, fp, Options{HistoryWindow: 2})

	ticket := testTicket()
	for i := 0; i < 4; i++ {
		orch.Process(context.Background(), ticket)
	}

	if got := len(fp.lastCtx.History); got != 2 {
		t.Errorf("planner saw %d history entries, want 2", got)
	}
	// The store itself keeps everything.
	if got := len(orch.Store().History("cust-1")); got != 4 {
		t.Errorf("store history = %d entries, want 4", got)
	}
	if fp.lastCtx.TicketText != ticket.Body {
		t.Errorf("TicketText = %q, want ticket body", fp.lastCtx.TicketText)
	}
}

func TestTicketVariablesReachPlanner(t *testing.T) {
	t.Parallel()
	fp := &fakePlanner{}
	orch, _ := newTestOrchestrator(&fakeAnalyzer{}, fp, Options{})

	ticket := testTicket()
	ticket.Variables = map[string]string{"eta": "tomorrow morning"}
	orch.Process(context.Background(), ticket)

	if got := fp.lastCtx.ExtraVars["eta"]; got != "tomorrow morning" {
		t.Errorf("ExtraVars[eta] = %q, want caller value passed through", got)
	}
}

func TestPlannerFailureFailsTicket(t *testing.T) {
	t.Parallel()
	fp := &fakePlanner{err: apperrors.NewTemplateError("template catalog has no usable entry", nil)}
	orch, recorder := newTestOrchestrator(&fakeAnalyzer{}, fp, Options{})

	resolution := orch.Process(context.Background(), testTicket())

	if resolution.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want %s", resolution.Status, domain.StatusFailed)
	}
	if resolution.Analysis == nil {
		t.Error("plan failure must preserve the analysis")
	}
	got := recorder.types()
	if len(got) == 0 || got[len(got)-1] != events.EventTicketFailed {
		t.Errorf("events = %v, want ticket_failed last", got)
	}
}
