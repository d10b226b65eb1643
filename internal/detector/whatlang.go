package detector

import (
	"context"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/sells-group/langid/internal/model"
)

// Whatlang is a trigram-based fast detector. It reports ISO 639-1 codes
// where one exists and ISO 639-3 otherwise.
type Whatlang struct{}

// NewWhatlang returns a whatlanggo-backed detector.
func NewWhatlang() *Whatlang { return &Whatlang{} }

// Detect returns whatlanggo's verdict and confidence.
func (w *Whatlang) Detect(_ context.Context, text string) (Verdict, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		return Verdict{}, fail(model.StrategyFast, ErrEmptyText)
	}

	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Confidence <= 0 {
		return Verdict{}, fail(model.StrategyFast, ErrUndetermined)
	}

	code := info.Lang.Iso6391()
	if code == "" {
		code = info.Lang.Iso6393()
	}
	if code == "" {
		return Verdict{}, fail(model.StrategyFast, ErrUndetermined)
	}

	score := info.Confidence
	return Verdict{Lang: code, Score: &score, Elapsed: time.Since(start)}, nil
}
