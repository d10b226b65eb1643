package detector

import (
	"context"
	"strings"
	"time"

	"github.com/pemistahl/lingua-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/langid/internal/model"
)

// Lingua is the default fast detector. Its score is the confidence lingua
// assigns to the most likely language.
type Lingua struct {
	detector lingua.LanguageDetector
}

// NewLingua builds a detector over the given ISO 639-1 codes, or over every
// supported language when codes is empty. Language models load eagerly so
// the first request does not pay for it.
func NewLingua(codes []string) (*Lingua, error) {
	builder := lingua.NewLanguageDetectorBuilder()
	if len(codes) == 0 {
		return &Lingua{detector: builder.FromAllLanguages().WithPreloadedLanguageModels().Build()}, nil
	}

	langs, err := linguaLanguages(codes)
	if err != nil {
		return nil, err
	}
	if len(langs) < 2 {
		return nil, eris.Errorf("detector: lingua needs at least two languages, got %d", len(langs))
	}
	return &Lingua{detector: builder.FromLanguages(langs...).WithPreloadedLanguageModels().Build()}, nil
}

func linguaLanguages(codes []string) ([]lingua.Language, error) {
	byCode := make(map[string]lingua.Language)
	for _, l := range lingua.AllLanguages() {
		byCode[strings.ToLower(l.IsoCode639_1().String())] = l
	}

	seen := make(map[lingua.Language]bool, len(codes))
	langs := make([]lingua.Language, 0, len(codes))
	for _, c := range codes {
		l, ok := byCode[strings.ToLower(strings.TrimSpace(c))]
		if !ok {
			return nil, eris.Errorf("detector: lingua does not support %q", c)
		}
		if !seen[l] {
			seen[l] = true
			langs = append(langs, l)
		}
	}
	return langs, nil
}

// Detect returns the top-ranked language and its confidence.
func (l *Lingua) Detect(_ context.Context, text string) (Verdict, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		return Verdict{}, fail(model.StrategyFast, ErrEmptyText)
	}

	values := l.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 || values[0].Value() <= 0 || values[0].Language() == lingua.Unknown {
		return Verdict{}, fail(model.StrategyFast, ErrUndetermined)
	}

	top := values[0]
	score := top.Value()
	return Verdict{
		Lang:    strings.ToLower(top.Language().IsoCode639_1().String()),
		Score:   &score,
		Elapsed: time.Since(start),
	}, nil
}
