// Package planner drafts candidate replies from templates and scores
// them for confidence and approval gating.
package planner

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/capability"
	"github.com/spec-kit/ticket-triage/internal/domain"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

// GenericCustomerName stands in when no display name can be resolved.
const GenericCustomerName = "valued customer"

var placeholderPattern = regexp.MustCompile(`\{\{[a-z_]+\}\}`)

// Options tunes the planner. Zero-value fields take defaults.
type Options struct {
	// ApprovalThreshold gates human review on low confidence. Distinct
	// from the orchestrator's quality floor. Default 0.6.
	ApprovalThreshold float64
	// ReadabilityThreshold is the reading-ease score above which the
	// draft earns a confidence bonus. Default 60.
	ReadabilityThreshold float64
	// SensitiveTerms force approval when present in the draft.
	SensitiveTerms []string
	// JargonGlossary maps technical terms to plain-language equivalents
	// applied for non-technical customers.
	JargonGlossary map[string]string
	// TechnicalRolePattern matches roles with a technical background.
	TechnicalRolePattern *regexp.Regexp
	// ETAByPriority supplies the rendered ETA string per level.
	ETAByPriority map[domain.Priority]string
	// ActionMap supplies category-specific default actions.
	ActionMap map[domain.TicketCategory][]string
	// TopTierPlans get a dedicated-support action.
	TopTierPlans []string
	// DraftKeyPoints bounds how many key points render into the draft.
	// Default 3.
	DraftKeyPoints int
}

// DefaultOptions returns the stock planner tables and thresholds.
func DefaultOptions() Options {
	return Options{
		ApprovalThreshold:    0.6,
		ReadabilityThreshold: 60,
		SensitiveTerms:       []string{"credit", "refund", "compensation", "legal"},
		JargonGlossary: map[string]string{
			"backend":        "server side",
			"latency":        "delay",
			"authentication": "sign-in",
			"cache":          "temporary storage",
			"API":            "connection interface",
		},
		TechnicalRolePattern: regexp.MustCompile(`(?i)\b(engineer|developer|cto|devops|programmer|architect)\b`),
		ETAByPriority: map[domain.Priority]string{
			domain.PriorityCritical: "immediate to 24 hours",
			domain.PriorityHigh:     "2 to 3 days",
			domain.PriorityMedium:   "1 to 2 weeks",
			domain.PriorityLow:      "1 month or as resources permit",
		},
		ActionMap: map[domain.TicketCategory][]string{
			domain.CategoryTechnical: {"Run system diagnostics", "Check error logs"},
			domain.CategoryBilling:   {"Verify payment records"},
			domain.CategoryFeature:   {"Log feature request for product review"},
			domain.CategoryAccess:    {"Verify account permissions", "Check authentication logs"},
		},
		TopTierPlans:   []string{"enterprise", "premium"},
		DraftKeyPoints: 3,
	}
}

// Context bundles everything beyond the analysis that planning needs.
type Context struct {
	TicketID string
	// TicketText is the original ticket body, used for sentiment
	// alignment between the draft and the customer's message.
	TicketText string
	Customer   map[string]string
	Health     domain.SystemHealthState
	// History holds the customer's recent entries (the orchestrator
	// passes the last three); subjects feed the entity name fallback.
	History []domain.CustomerHistoryEntry
	// ExtraVars are caller-supplied template variables. They win over
	// computed defaults on key collision.
	ExtraVars map[string]string
}

// Planner drafts and scores response suggestions. It holds no mutable
// state: planning twice with identical inputs yields identical output.
type Planner struct {
	caps   capability.TextCapabilities
	logger *zap.Logger
	opts   Options
}

// New constructs the planner. Zero fields in opts take defaults.
func New(caps capability.TextCapabilities, logger *zap.Logger, opts Options) *Planner {
	defaults := DefaultOptions()
	if opts.ApprovalThreshold <= 0 {
		opts.ApprovalThreshold = defaults.ApprovalThreshold
	}
	if opts.ReadabilityThreshold <= 0 {
		opts.ReadabilityThreshold = defaults.ReadabilityThreshold
	}
	if opts.SensitiveTerms == nil {
		opts.SensitiveTerms = defaults.SensitiveTerms
	}
	if opts.JargonGlossary == nil {
		opts.JargonGlossary = defaults.JargonGlossary
	}
	if opts.TechnicalRolePattern == nil {
		opts.TechnicalRolePattern = defaults.TechnicalRolePattern
	}
	if opts.ETAByPriority == nil {
		opts.ETAByPriority = defaults.ETAByPriority
	}
	if opts.ActionMap == nil {
		opts.ActionMap = defaults.ActionMap
	}
	if opts.TopTierPlans == nil {
		opts.TopTierPlans = defaults.TopTierPlans
	}
	if opts.DraftKeyPoints <= 0 {
		opts.DraftKeyPoints = defaults.DraftKeyPoints
	}
	return &Planner{caps: caps, logger: logger, opts: opts}
}

// Plan selects and renders a template for the analysis, then scores
// the draft. It fails only when the catalog has no usable entry.
func (p *Planner) Plan(ctx context.Context, analysis *domain.TicketAnalysis, catalog Catalog, pctx Context) (*domain.ResponseSuggestion, error) {
	template, templateKey, err := selectTemplate(analysis, catalog)
	if err != nil {
		return nil, err
	}

	name := p.resolveCustomerName(ctx, pctx)
	text := p.render(template, templateKey, analysis, pctx, name)
	text = p.adjustTechnicalLevel(text, pctx.Customer[domain.ProfileKeyRole])
	text = p.personalizeGreeting(text, name)

	confidence := p.scoreConfidence(ctx, text, analysis.Priority, pctx.TicketText)

	return &domain.ResponseSuggestion{
		ResponseText:     text,
		ConfidenceScore:  confidence,
		RequiresApproval: p.requiresApproval(text, analysis.Priority, confidence),
		SuggestedActions: p.suggestActions(analysis, pctx),
	}, nil
}

// selectTemplate applies the fixed precedence: exact response-type
// match, then category match, then the general fallback.
func selectTemplate(analysis *domain.TicketAnalysis, catalog Catalog) (string, string, error) {
	if tpl, ok := catalog[analysis.SuggestedResponseType]; ok {
		return tpl, analysis.SuggestedResponseType, nil
	}
	if tpl, ok := catalog[string(analysis.Category)]; ok {
		return tpl, string(analysis.Category), nil
	}
	if tpl, ok := catalog[FallbackKey]; ok {
		return tpl, FallbackKey, nil
	}
	return "", "", apperrors.NewTemplateError("template catalog has no usable entry", map[string]any{
		"response_type": analysis.SuggestedResponseType,
		"category":      string(analysis.Category),
	})
}

// resolveCustomerName prefers the explicit profile field, then a
// person entity extracted from the customer's prior ticket subjects.
// An empty result means no name could be determined.
func (p *Planner) resolveCustomerName(ctx context.Context, pctx Context) string {
	if name := strings.TrimSpace(pctx.Customer[domain.ProfileKeyName]); name != "" {
		return name
	}
	if len(pctx.History) == 0 {
		return ""
	}
	subjects := make([]string, 0, len(pctx.History))
	for _, entry := range pctx.History {
		subjects = append(subjects, entry.Subject)
	}
	entities, err := p.caps.Entities(ctx, strings.Join(subjects, ". "))
	if err != nil {
		p.logger.Debug("entity name fallback skipped", zap.Error(err))
		return ""
	}
	for _, entity := range entities {
		if entity.Label == "PERSON" {
			return entity.Text
		}
	}
	return ""
}

func (p *Planner) render(template, templateKey string, analysis *domain.TicketAnalysis, pctx Context, name string) string {
	displayName := name
	if displayName == "" {
		displayName = GenericCustomerName
	}
	expertise := "our team"
	if len(analysis.RequiredExpertise) > 0 {
		expertise = analysis.RequiredExpertise[0]
	}
	keyPoints := analysis.KeyPoints
	if len(keyPoints) > p.opts.DraftKeyPoints {
		keyPoints = keyPoints[:p.opts.DraftKeyPoints]
	}

	vars := map[string]string{
		"name":       displayName,
		"priority":   analysis.Priority.String(),
		"key_points": strings.Join(keyPoints, ", "),
		"expertise":  expertise,
		"eta":        p.opts.ETAByPriority[analysis.Priority],
		"ticket_id":  pctx.TicketID,
	}
	for key, value := range pctx.ExtraVars {
		vars[key] = value
	}

	text := template
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}

	// Unresolved placeholders degrade to the raw template rather than
	// aborting the pipeline. Observable, not silent.
	if leftover := placeholderPattern.FindAllString(text, -1); len(leftover) > 0 {
		p.logger.Warn("template rendering degraded to raw text",
			zap.String("template", templateKey),
			zap.Strings("unresolved", dedupe(leftover)),
		)
		return template
	}
	return text
}

// adjustTechnicalLevel swaps jargon for plain language unless the
// customer's role indicates a technical background.
func (p *Planner) adjustTechnicalLevel(text, role string) string {
	if p.opts.TechnicalRolePattern.MatchString(role) {
		return text
	}
	terms := make([]string, 0, len(p.opts.JargonGlossary))
	for term := range p.opts.JargonGlossary {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		text = strings.ReplaceAll(text, term, p.opts.JargonGlossary[term])
	}
	return text
}

// personalizeGreeting prepends a greeting when a name was determined
// but the rendered text does not already address the customer by it.
// The check is word-bounded so a short name is not mistaken for part
// of an unrelated word.
func (p *Planner) personalizeGreeting(text, name string) string {
	if name == "" {
		return text
	}
	addressed := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	if addressed.MatchString(text) {
		return text
	}
	return "Dear " + name + ",\n\n" + text
}

func (p *Planner) scoreConfidence(ctx context.Context, text string, priority domain.Priority, ticketText string) float64 {
	confidence := 0.7
	if priority >= domain.PriorityHigh {
		confidence = 0.5
	}

	if readability, err := p.caps.Readability(ctx, text); err != nil {
		p.logger.Debug("readability adjustment skipped", zap.Error(err))
	} else if readability > p.opts.ReadabilityThreshold {
		confidence += 0.2
	} else {
		confidence -= 0.1
	}

	draftPolarity, draftErr := p.caps.Sentiment(ctx, text)
	ticketPolarity, ticketErr := p.caps.Sentiment(ctx, ticketText)
	if draftErr != nil || ticketErr != nil {
		p.logger.Debug("sentiment adjustment skipped",
			zap.NamedError("draft", draftErr), zap.NamedError("ticket", ticketErr))
	} else {
		// Up to +0.1 for aligned tone, down to -0.1 for opposed tone.
		confidence += 0.1 * (1 - math.Abs(draftPolarity-ticketPolarity))
	}

	return clamp01(confidence)
}

func (p *Planner) requiresApproval(text string, priority domain.Priority, confidence float64) bool {
	if priority == domain.PriorityCritical {
		return true
	}
	lowered := strings.ToLower(text)
	for _, term := range p.opts.SensitiveTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return confidence < p.opts.ApprovalThreshold
}

// suggestActions always returns at least one action.
func (p *Planner) suggestActions(analysis *domain.TicketAnalysis, pctx Context) []string {
	actions := append([]string(nil), p.opts.ActionMap[analysis.Category]...)
	if analysis.Priority > domain.PriorityMedium {
		actions = append(actions, "Escalate to senior support")
	}
	plan := strings.ToLower(strings.TrimSpace(pctx.Customer[domain.ProfileKeyPlan]))
	for _, tier := range p.opts.TopTierPlans {
		if plan == tier {
			actions = append(actions, "Notify dedicated support manager")
			break
		}
	}
	if len(actions) == 0 {
		actions = []string{"Monitor ticket status"}
	}
	return actions
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
