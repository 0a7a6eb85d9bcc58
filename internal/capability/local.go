package capability

import (
	"context"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Local implements TextCapabilities in-process: prose for tokenization,
// sentence segmentation and named-entity extraction, plus lexicon-based
// scoring for classification and sentiment. Deterministic and
// network-free, which makes it the default backend for the demo API.
type Local struct{}

// NewLocal returns the in-process capability backend.
func NewLocal() *Local {
	return &Local{}
}

// classifyLexicon maps known labels to indicative terms. Labels outside
// the map simply never score.
var classifyLexicon = map[string][]string{
	"technical": {"error", "bug", "crash", "slow", "broken", "fail", "down", "exception", "timeout"},
	"billing":   {"invoice", "charge", "payment", "fee", "refund", "billing", "subscription", "price"},
	"feature":   {"request", "suggest", "add", "feature", "improvement", "enhancement", "wish"},
	"access":    {"login", "access", "password", "permission", "locked", "account", "denied", "credentials"},
}

var positiveWords = map[string]struct{}{
	"thanks": {}, "thank": {}, "great": {}, "good": {}, "appreciate": {},
	"happy": {}, "love": {}, "excellent": {}, "helpful": {}, "resolved": {},
	"please": {}, "glad": {},
}

var negativeWords = map[string]struct{}{
	"urgent": {}, "broken": {}, "error": {}, "fail": {}, "failed": {},
	"angry": {}, "frustrated": {}, "terrible": {}, "bad": {}, "unacceptable": {},
	"critical": {}, "wrong": {}, "problem": {}, "issue": {}, "crash": {},
}

// Classify scores each label by lexicon hits in the text. Confidence is
// the winning label's share of all hits, zero when nothing matches.
func (l *Local) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	lowered := strings.ToLower(text)
	best := ""
	bestHits := 0
	total := 0
	for _, label := range labels {
		hits := 0
		for _, term := range classifyLexicon[strings.ToLower(label)] {
			hits += strings.Count(lowered, term)
		}
		total += hits
		if hits > bestHits {
			bestHits = hits
			best = label
		}
	}
	if total == 0 {
		if len(labels) == 0 {
			return "", 0, nil
		}
		return labels[0], 0, nil
	}
	return best, float64(bestHits) / float64(total), nil
}

// Entities extracts named entities via prose's NER model.
func (l *Local) Entities(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}
	found := doc.Entities()
	entities := make([]Entity, 0, len(found))
	for _, ent := range found {
		entities = append(entities, Entity{Text: ent.Text, Label: ent.Label})
	}
	return entities, nil
}

// Keywords ranks noun tokens by frequency share.
func (l *Local) Keywords(ctx context.Context, text string) ([]Keyword, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	totalNouns := 0
	for _, tok := range doc.Tokens() {
		if !strings.HasPrefix(tok.Tag, "NN") {
			continue
		}
		word := strings.ToLower(tok.Text)
		if len(word) < 3 {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
		totalNouns++
	}
	if totalNouns == 0 {
		return nil, nil
	}
	keywords := make([]Keyword, 0, len(order))
	for _, word := range order {
		keywords = append(keywords, Keyword{
			Phrase: word,
			Score:  float64(counts[word]) / float64(totalNouns),
		})
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Score > keywords[j].Score
	})
	return keywords, nil
}

// Readability computes the Flesch reading-ease score, clamped to 0-100.
func (l *Local) Readability(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithTagging(false))
	if err != nil {
		return 0, err
	}
	sentences := len(doc.Sentences())
	if sentences == 0 {
		sentences = 1
	}
	words := 0
	syllables := 0
	for _, tok := range doc.Tokens() {
		if !isWord(tok.Text) {
			continue
		}
		words++
		syllables += countSyllables(tok.Text)
	}
	if words == 0 {
		return 0, nil
	}
	score := 206.835 - 1.015*(float64(words)/float64(sentences)) - 84.6*(float64(syllables)/float64(words))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// Sentiment returns (positive-negative)/(positive+negative) over the
// polarity lexicons, zero for neutral text.
func (l *Local) Sentiment(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	positive := 0
	negative := 0
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(field, ".,!?;:'\"()")
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}
	if positive+negative == 0 {
		return 0, nil
	}
	return float64(positive-negative) / float64(positive+negative), nil
}

func isWord(text string) bool {
	for _, r := range text {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// countSyllables estimates syllables by counting vowel groups.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
