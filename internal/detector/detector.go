// Package detector defines the language detection capability and its
// statistical and LLM-backed implementations.
package detector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/langid/internal/model"
)

// Sentinel causes carried inside a DetectionError.
var (
	ErrEmptyText    = eris.New("detector: empty text")
	ErrUndetermined = eris.New("detector: language could not be determined")
)

// Verdict is the raw answer of one detector call. Score is nil for
// detectors that do not report confidence.
type Verdict struct {
	Lang    string
	Score   *float64
	Elapsed time.Duration
}

// Detector identifies the language of a text. Implementations are shared
// across requests and must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, text string) (Verdict, error)
}

// DetectionError reports that a detector ran but produced no usable verdict.
type DetectionError struct {
	Strategy model.Strategy
	Err      error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("%s detector: %v", e.Strategy, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// IsDetectionError reports whether err wraps a *DetectionError.
func IsDetectionError(err error) bool {
	var de *DetectionError
	return errors.As(err, &de)
}

func fail(strategy model.Strategy, err error) error {
	return &DetectionError{Strategy: strategy, Err: err}
}
