// Package analyzer turns raw ticket text and a customer profile into a
// structured TicketAnalysis.
package analyzer

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

// Options tunes the analyzer. Zero-value fields fall back to the
// documented defaults, so callers only override what they need.
type Options struct {
	// ClassifyThreshold is the minimum classifier confidence to accept
	// its label before falling back to keyword matching. Default 0.7.
	ClassifyThreshold float64
	// MaxKeyPoints bounds the extracted key point list. Default 10.
	MaxKeyPoints int
	// CategoryKeywords drives the keyword-matching fallback.
	CategoryKeywords map[domain.TicketCategory][]string
	// UrgencyPattern matches urgency indicators in normalized text.
	UrgencyPattern *regexp.Regexp
	// RoleWeights multiply priority by the heaviest role keyword found
	// as a substring of the customer's role.
	RoleWeights map[string]float64
	// ImpactWeights multiply priority by the heaviest business-impact
	// keyword found in the ticket text.
	ImpactWeights map[string]float64
	// ExpertiseMap maps a category to required expertise tags.
	ExpertiseMap map[domain.TicketCategory][]string
	// ResponseTypeMap maps a category to a suggested response type for
	// tickets below high priority.
	ResponseTypeMap map[domain.TicketCategory]string
}

// DefaultOptions returns the stock tables and thresholds.
func DefaultOptions() Options {
	return Options{
		ClassifyThreshold: 0.7,
		MaxKeyPoints:      10,
		CategoryKeywords: map[domain.TicketCategory][]string{
			domain.CategoryTechnical: {"error", "bug", "crash", "slow"},
			domain.CategoryBilling:   {"invoice", "charge", "payment", "fee"},
			domain.CategoryFeature:   {"request", "suggest", "add", "new feature"},
			domain.CategoryAccess:    {"login", "access", "password", "permission"},
		},
		UrgencyPattern: regexp.MustCompile(`(?i)\b(asap|urgent|immediately|critical|emergency|right away|[4-5][0-9]{2})\b`),
		RoleWeights: map[string]float64{
			"ceo": 2.0, "cfo": 2.0, "cto": 2.0,
			"director": 1.7, "manager": 1.3,
		},
		ImpactWeights: map[string]float64{
			"payroll": 2.0,
			"revenue": 1.8,
			"sales":   1.5,
			"demo":    1.5,
			"client":  1.3,
		},
		ExpertiseMap: map[domain.TicketCategory][]string{
			domain.CategoryTechnical: {"backend", "frontend", "devops"},
			domain.CategoryBilling:   {"finance", "billing_specialist"},
			domain.CategoryFeature:   {"product", "engineering"},
			domain.CategoryAccess:    {"security", "iam"},
		},
		ResponseTypeMap: map[domain.TicketCategory]string{
			domain.CategoryTechnical: domain.ResponseTypeTechnicalResponse,
			domain.CategoryBilling:   domain.ResponseTypeBillingDocumentation,
			domain.CategoryFeature:   domain.ResponseTypeFeatureAcknowledgement,
			domain.CategoryAccess:    domain.ResponseTypeSecurityVerification,
		},
	}
}

// Context carries the customer profile and prior history supplied by
// the orchestrator for analysis.
type Context struct {
	Customer map[string]string
	History  []domain.CustomerHistoryEntry
}

// Analyzer classifies tickets and scores their priority.
type Analyzer struct {
	caps   capability.TextCapabilities
	logger *zap.Logger
	opts   Options
}

// New constructs the analyzer. Zero fields in opts take defaults.
func New(caps capability.TextCapabilities, logger *zap.Logger, opts Options) *Analyzer {
	defaults := DefaultOptions()
	if opts.ClassifyThreshold <= 0 {
		opts.ClassifyThreshold = defaults.ClassifyThreshold
	}
	if opts.MaxKeyPoints <= 0 {
		opts.MaxKeyPoints = defaults.MaxKeyPoints
	}
	if opts.CategoryKeywords == nil {
		opts.CategoryKeywords = defaults.CategoryKeywords
	}
	if opts.UrgencyPattern == nil {
		opts.UrgencyPattern = defaults.UrgencyPattern
	}
	if opts.RoleWeights == nil {
		opts.RoleWeights = defaults.RoleWeights
	}
	if opts.ImpactWeights == nil {
		opts.ImpactWeights = defaults.ImpactWeights
	}
	if opts.ExpertiseMap == nil {
		opts.ExpertiseMap = defaults.ExpertiseMap
	}
	if opts.ResponseTypeMap == nil {
		opts.ResponseTypeMap = defaults.ResponseTypeMap
	}
	return &Analyzer{caps: caps, logger: logger, opts: opts}
}

// Analyze produces a TicketAnalysis for the given ticket text. It
// returns a capability error only when the text-capability layer is
// transiently unreachable; every other degradation falls back to the
// keyword tables so empty or odd text still analyzes.
func (a *Analyzer) Analyze(ctx context.Context, text string, actx Context) (*domain.TicketAnalysis, error) {
	clean := normalize(text)

	category, err := a.classify(ctx, clean)
	if err != nil {
		return nil, err
	}

	urgency := a.detectUrgency(clean)
	priority := a.calculatePriority(clean, urgency, actx.Customer)

	keyPoints, err := a.extractKeyPoints(ctx, clean)
	if err != nil {
		return nil, err
	}

	return &domain.TicketAnalysis{
		Category:              category,
		Priority:              priority,
		UrgencyIndicators:     urgency,
		KeyPoints:             keyPoints,
		RequiredExpertise:     a.determineExpertise(category),
		SuggestedResponseType: a.suggestResponseType(category, priority),
	}, nil
}

// normalize lowercases, collapses newlines and whitespace runs, trims.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func (a *Analyzer) classify(ctx context.Context, clean string) (domain.TicketCategory, error) {
	labels := make([]string, 0, 4)
	for _, category := range domain.Categories() {
		labels = append(labels, string(category))
	}
	label, confidence, err := a.caps.Classify(ctx, clean, labels)
	if err != nil {
		if capability.IsUnavailable(err) {
			return "", apperrors.NewCapabilityError("ticket classification unavailable", err)
		}
		a.logger.Warn("classifier failed, falling back to keywords", zap.Error(err))
		return a.keywordClassify(clean), nil
	}
	if confidence > a.opts.ClassifyThreshold {
		return domain.ParseCategory(label), nil
	}
	return a.keywordClassify(clean), nil
}

func (a *Analyzer) keywordClassify(clean string) domain.TicketCategory {
	for _, category := range domain.Categories() {
		for _, term := range a.opts.CategoryKeywords[category] {
			if strings.Contains(clean, term) {
				return category
			}
		}
	}
	return domain.CategoryTechnical
}

func (a *Analyzer) detectUrgency(clean string) []string {
	matches := a.opts.UrgencyPattern.FindAllString(clean, -1)
	seen := make(map[string]struct{}, len(matches))
	indicators := make([]string, 0, len(matches))
	for _, match := range matches {
		lowered := strings.ToLower(match)
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}
		indicators = append(indicators, lowered)
	}
	return indicators
}

func (a *Analyzer) calculatePriority(clean string, urgency []string, customer map[string]string) domain.Priority {
	score := 1.0 + 0.5*float64(len(urgency))

	role := strings.ToLower(customer[domain.ProfileKeyRole])
	roleBoost := 1.0
	for keyword, weight := range a.opts.RoleWeights {
		if strings.Contains(role, keyword) && weight > roleBoost {
			roleBoost = weight
		}
	}
	score *= roleBoost

	impact := 1.0
	for keyword, weight := range a.opts.ImpactWeights {
		if strings.Contains(clean, keyword) && weight > impact {
			impact = weight
		}
	}
	score *= impact

	// Round first, then clamp to the four-level scale.
	return domain.PriorityFromScore(int(math.Round(score)))
}

func (a *Analyzer) extractKeyPoints(ctx context.Context, clean string) ([]string, error) {
	if clean == "" {
		return nil, nil
	}
	keywords, err := a.caps.Keywords(ctx, clean)
	if err != nil {
		if capability.IsUnavailable(err) {
			return nil, apperrors.NewCapabilityError("keyword extraction unavailable", err)
		}
		a.logger.Warn("keyword extraction failed, continuing without key points", zap.Error(err))
		return nil, nil
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Score > keywords[j].Score
	})
	limit := a.opts.MaxKeyPoints
	if len(keywords) < limit {
		limit = len(keywords)
	}
	points := make([]string, 0, limit)
	for _, kw := range keywords[:limit] {
		points = append(points, kw.Phrase)
	}
	return points, nil
}

func (a *Analyzer) determineExpertise(category domain.TicketCategory) []string {
	if tags, ok := a.opts.ExpertiseMap[category]; ok {
		return append([]string(nil), tags...)
	}
	return []string{"general"}
}

func (a *Analyzer) suggestResponseType(category domain.TicketCategory, priority domain.Priority) string {
	if priority >= domain.PriorityHigh {
		return domain.ResponseTypeImmediateCallBack
	}
	if responseType, ok := a.opts.ResponseTypeMap[category]; ok {
		return responseType
	}
	return domain.ResponseTypeGeneral
}
