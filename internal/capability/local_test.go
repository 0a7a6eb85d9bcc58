package capability

import (
	"context"
	"testing"
)

var triageLabels = []string{"technical", "billing", "feature", "access"}

func TestClassifyPicksDominantLabel(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	tests := []struct {
		name string
		text string
		want string
	}{
		{"billing terms", "The invoice shows a duplicate charge on my subscription.", "billing"},
		{"technical terms", "The app keeps crashing with an error and a timeout.", "technical"},
		{"access terms", "My account is locked and my password is denied.", "access"},
		{"feature terms", "I would like to suggest an improvement, a new export feature.", "feature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, confidence, err := local.Classify(context.Background(), tt.text, triageLabels)
			if err != nil {
				t.Fatalf("Classify() error: %v", err)
			}
			if label != tt.want {
				t.Errorf("label = %q, want %q", label, tt.want)
			}
			if confidence <= 0 || confidence > 1 {
				t.Errorf("confidence = %f, want in (0,1]", confidence)
			}
		})
	}
}

func TestClassifyNoHitsReturnsFirstLabelZeroConfidence(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	label, confidence, err := local.Classify(context.Background(), "hello there", triageLabels)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if label != "technical" || confidence != 0 {
		t.Errorf("got (%q, %f), want (technical, 0)", label, confidence)
	}
}

func TestClassifyHonorsCancelledContext(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := local.Classify(ctx, "error", triageLabels); err == nil {
		t.Error("Classify() with cancelled context must fail")
	}
}

func TestSentimentPolarity(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	tests := []struct {
		name string
		text string
		sign int
	}{
		{"positive", "Thanks, the support was great and very helpful!", 1},
		{"negative", "This is broken, urgent, and frankly unacceptable.", -1},
		{"neutral", "The report covers the third quarter.", 0},
		{"mixed leaning positive", "Thanks for the help, but the error remains; still, great work.", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polarity, err := local.Sentiment(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Sentiment() error: %v", err)
			}
			if polarity < -1 || polarity > 1 {
				t.Fatalf("polarity = %f outside [-1,1]", polarity)
			}
			switch {
			case tt.sign > 0 && polarity <= 0:
				t.Errorf("polarity = %f, want positive", polarity)
			case tt.sign < 0 && polarity >= 0:
				t.Errorf("polarity = %f, want negative", polarity)
			case tt.sign == 0 && polarity != 0:
				t.Errorf("polarity = %f, want 0", polarity)
			}
		})
	}
}

func TestCountSyllables(t *testing.T) {
	t.Parallel()
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"table", 1},
		{"window", 2},
		{"computer", 3},
		{"a", 1},
		{"rhythm", 1},
	}
	for _, tt := range tests {
		if got := countSyllables(tt.word); got != tt.want {
			t.Errorf("countSyllables(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestReadabilityBounds(t *testing.T) {
	t.Parallel()
	local := NewLocal()

	simple, err := local.Readability(context.Background(), "The cat sat. The dog ran. It was fun.")
	if err != nil {
		t.Fatalf("Readability() error: %v", err)
	}
	dense, err := local.Readability(context.Background(),
		"Notwithstanding contemporaneous organizational considerations, interdepartmental prioritization methodologies necessitate comprehensive reevaluation of infrastructural interdependencies.")
	if err != nil {
		t.Fatalf("Readability() error: %v", err)
	}
	for _, score := range []float64{simple, dense} {
		if score < 0 || score > 100 {
			t.Fatalf("score = %f outside [0,100]", score)
		}
	}
	if simple <= dense {
		t.Errorf("simple text scored %f, dense text %f; want simple higher", simple, dense)
	}

	empty, err := local.Readability(context.Background(), "   ")
	if err != nil || empty != 0 {
		t.Errorf("empty text = (%f, %v), want (0, nil)", empty, err)
	}
}

func TestKeywordsRankedByFrequency(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	text := "The dashboard is broken. The dashboard will not load any reports. Our team needs the dashboard and the reports today."

	keywords, err := local.Keywords(context.Background(), text)
	if err != nil {
		t.Fatalf("Keywords() error: %v", err)
	}
	if len(keywords) == 0 {
		t.Fatal("Keywords() returned nothing")
	}
	if keywords[0].Phrase != "dashboard" {
		t.Errorf("top keyword = %q, want dashboard", keywords[0].Phrase)
	}
	for i := 1; i < len(keywords); i++ {
		if keywords[i].Score > keywords[i-1].Score {
			t.Errorf("keywords not sorted by score at %d: %+v", i, keywords)
		}
	}
	for _, keyword := range keywords {
		if keyword.Score <= 0 || keyword.Score > 1 {
			t.Errorf("score for %q = %f outside (0,1]", keyword.Phrase, keyword.Score)
		}
	}
}

func TestKeywordsEmptyText(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	keywords, err := local.Keywords(context.Background(), "  ")
	if err != nil || keywords != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", keywords, err)
	}
}

func TestIsUnavailable(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if !IsUnavailable(ctx.Err()) {
		t.Error("cancelled context must count as unavailable")
	}
	if !IsUnavailable(ErrUnavailable) {
		t.Error("sentinel must count as unavailable")
	}
	if IsUnavailable(nil) {
		t.Error("nil error is not unavailable")
	}
}
