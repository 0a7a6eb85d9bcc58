// Package orchestrator drives the per-ticket triage workflow end to
// end: validate, record context, analyze, plan, validate the response,
// and emit a resolution. All failures are captured into the resolution;
// nothing propagates past Process.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/analyzer"
	"github.com/spec-kit/ticket-triage/internal/contextstore"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/planner"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

// Pipeline stages, in success order. Any stage may fail terminally.
type stage string

const (
	stageValidate stage = "validate"
	stageAnalyze  stage = "analyze"
	stagePlan     stage = "plan"
	stageQuality  stage = "quality"
	stageResolve  stage = "resolve"
)

// TicketAnalyzer is the analysis stage contract.
type TicketAnalyzer interface {
	Analyze(ctx context.Context, text string, actx analyzer.Context) (*domain.TicketAnalysis, error)
}

// ResponsePlanner is the planning stage contract.
type ResponsePlanner interface {
	Plan(ctx context.Context, analysis *domain.TicketAnalysis, catalog planner.Catalog, pctx planner.Context) (*domain.ResponseSuggestion, error)
}

// Dependencies bundles collaborators for the orchestrator.
type Dependencies struct {
	Analyzer   TicketAnalyzer
	Planner    ResponsePlanner
	Store      *contextstore.Store
	Catalog    planner.Catalog
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// Options tunes retry, quality gating and the processing deadline.
// Zero-value fields take defaults.
type Options struct {
	// QualityFloor rejects drafts below this confidence outright. It is
	// a quality gate, separate from the planner's approval threshold.
	// Default 0.4.
	QualityFloor float64
	// RetryMaxAttempts caps analysis attempts for transient capability
	// failures. Default 3.
	RetryMaxAttempts int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt
	// up to RetryMaxDelay. Defaults 100ms and 2s.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// ProcessTimeout bounds one Process call so a stuck capability
	// cannot hang the caller. Default 30s; zero disables.
	ProcessTimeout time.Duration
	// HistoryWindow is how many recent history entries planning sees.
	// Default 3.
	HistoryWindow int
}

// Orchestrator owns the per-ticket state machine and the ContextStore.
type Orchestrator struct {
	analyzer   TicketAnalyzer
	planner    ResponsePlanner
	store      *contextstore.Store
	catalog    planner.Catalog
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	opts       Options
}

// New constructs the orchestrator. Zero fields in opts take defaults.
func New(deps Dependencies, opts Options) *Orchestrator {
	if opts.QualityFloor <= 0 {
		opts.QualityFloor = 0.4
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 100 * time.Millisecond
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 2 * time.Second
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 3
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		analyzer:   deps.Analyzer,
		planner:    deps.Planner,
		store:      deps.Store,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		opts:       opts,
	}
}

// Store exposes the context store for read-only diagnostics (health
// endpoint, supervisors). The failure counter never feeds back into
// processing decisions here.
func (o *Orchestrator) Store() *contextstore.Store {
	return o.store
}

// Process runs the full pipeline for one ticket. It never returns an
// error: every failure is captured into the resolution.
func (o *Orchestrator) Process(ctx context.Context, ticket domain.SupportTicket) domain.TicketResolution {
	if o.opts.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ProcessTimeout)
		defer cancel()
	}

	resolution := domain.TicketResolution{TicketID: ticket.ID}
	o.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReceived,
		TicketID: ticket.ID,
		Payload: events.TicketReceivedPayload{
			Subject:    ticket.Subject,
			CustomerID: ticket.CustomerID(),
		},
	})

	// Validation failures are terminal immediately, no retry.
	if err := validateTicket(ticket); err != nil {
		return o.fail(ctx, resolution, stageValidate, err)
	}
	o.metrics.RecordStage(string(stageValidate), "ok")

	customerID := ticket.CustomerID()
	o.store.Record(customerID, ticket.ID, ticket.Subject)
	resolution.Context = o.store.Snapshot(customerID)

	analysis, err := o.analyzeWithRetry(ctx, ticket)
	if err != nil {
		return o.fail(ctx, resolution, stageAnalyze, err)
	}
	resolution.Analysis = analysis
	o.metrics.RecordStage(string(stageAnalyze), "ok")
	o.logger.Debug("ticket analyzed",
		zap.String("ticket_id", ticket.ID),
		zap.String("category", string(analysis.Category)),
		zap.String("priority", analysis.Priority.String()),
	)

	suggestion, err := o.planner.Plan(ctx, analysis, o.catalog, planner.Context{
		TicketID:   ticket.ID,
		TicketText: ticket.Body,
		Customer:   ticket.Customer,
		Health:     o.store.Health(),
		History:    o.store.LastN(customerID, o.opts.HistoryWindow),
		ExtraVars:  ticket.Variables,
	})
	if err != nil {
		return o.fail(ctx, resolution, stagePlan, err)
	}
	resolution.Response = suggestion
	o.metrics.RecordStage(string(stagePlan), "ok")

	if err := o.validateResponse(suggestion); err != nil {
		return o.fail(ctx, resolution, stageQuality, err)
	}
	o.metrics.RecordStage(string(stageQuality), "ok")

	resolution.ResponseText = suggestion.ResponseText
	if suggestion.RequiresApproval {
		resolution.Status = domain.StatusNeedsApproval
		o.publishEvent(ctx, events.Event{
			Type:     events.EventApprovalRequired,
			TicketID: ticket.ID,
			Payload: events.ApprovalRequiredPayload{
				Priority:   analysis.Priority.String(),
				Confidence: suggestion.ConfidenceScore,
			},
		})
	} else {
		resolution.Status = domain.StatusCompleted
	}

	o.store.MarkSuccess(time.Now())
	o.metrics.RecordStage(string(stageResolve), "ok")
	o.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		Payload: events.TicketResolvedPayload{
			Status:     resolution.Status,
			Category:   analysis.Category,
			Priority:   analysis.Priority.String(),
			Confidence: suggestion.ConfidenceScore,
		},
	})
	return resolution
}

func validateTicket(ticket domain.SupportTicket) error {
	if strings.TrimSpace(ticket.Body) == "" {
		return apperrors.NewValidationError("ticket body is empty", map[string]any{"ticket_id": ticket.ID})
	}
	if ticket.Customer == nil {
		return apperrors.NewValidationError("customer profile is missing", map[string]any{"ticket_id": ticket.ID})
	}
	return nil
}

// analyzeWithRetry retries transient capability failures with
// exponential backoff. Non-transient failures return immediately.
func (o *Orchestrator) analyzeWithRetry(ctx context.Context, ticket domain.SupportTicket) (*domain.TicketAnalysis, error) {
	actx := analyzer.Context{
		Customer: ticket.Customer,
		History:  o.store.History(ticket.CustomerID()),
	}

	delay := o.opts.RetryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= o.opts.RetryMaxAttempts; attempt++ {
		analysis, err := o.analyzer.Analyze(ctx, ticket.Body, actx)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		if !apperrors.IsTransient(err) {
			return nil, err
		}
		if attempt == o.opts.RetryMaxAttempts {
			break
		}
		o.logger.Warn("analysis attempt failed, backing off",
			zap.String("ticket_id", ticket.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, apperrors.NewTimeoutError("ticket processing timed out", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > o.opts.RetryMaxDelay {
			delay = o.opts.RetryMaxDelay
		}
	}
	return nil, lastErr
}

// validateResponse is the hard quality gate, distinct from approval
// gating: drafts that fail here never reach a human reviewer.
func (o *Orchestrator) validateResponse(suggestion *domain.ResponseSuggestion) error {
	if strings.TrimSpace(suggestion.ResponseText) == "" {
		return apperrors.NewQualityError("drafted response is empty", nil)
	}
	if suggestion.ConfidenceScore < o.opts.QualityFloor {
		return apperrors.NewQualityError("draft confidence below quality floor", map[string]any{
			"confidence": suggestion.ConfidenceScore,
			"floor":      o.opts.QualityFloor,
		})
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, resolution domain.TicketResolution, failedStage stage, err error) domain.TicketResolution {
	if ctx.Err() == context.DeadlineExceeded {
		err = apperrors.NewTimeoutError("ticket processing timed out", err)
	}
	domainErr := apperrors.ToDomainError(err)

	resolution.Status = domain.StatusFailed
	resolution.Error = domainErr.Error()
	o.store.MarkFailure()
	o.metrics.RecordStage(string(failedStage), "failed")
	o.logger.Warn("ticket processing failed",
		zap.String("ticket_id", resolution.TicketID),
		zap.String("stage", string(failedStage)),
		zap.String("code", domainErr.Code),
		zap.Error(domainErr),
	)
	o.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFailed,
		TicketID: resolution.TicketID,
		Payload: events.TicketFailedPayload{
			Code:  domainErr.Code,
			Error: domainErr.Error(),
		},
	})
	return resolution
}

func (o *Orchestrator) publishEvent(ctx context.Context, event events.Event) {
	if o.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = o.dispatcher.Publish(ctx, event)
}
