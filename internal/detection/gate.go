package detection

import (
	"strings"

	"github.com/sells-group/langid/internal/model"
)

// Decision is the confidence gate's answer for a fast verdict.
type Decision int

const (
	Accept Decision = iota
	Escalate
)

func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "escalate"
}

// Decide applies the confidence gate. Fast mode always accepts and deep
// mode always escalates. Auto mode accepts when score >= minConfidence,
// so a tie accepts; a missing score or threshold escalates.
func Decide(mode model.Mode, score, minConfidence *float64) Decision {
	switch mode {
	case model.ModeFast:
		return Accept
	case model.ModeAuto:
		if score != nil && minConfidence != nil && *score >= *minConfidence {
			return Accept
		}
		return Escalate
	default:
		return Escalate
	}
}

// Validate checks a request before detection starts.
func Validate(req model.DetectionRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return &ConfigurationError{Field: "text", Reason: "must not be empty"}
	}

	switch req.Mode {
	case model.ModeFast, model.ModeDeep:
	case model.ModeAuto:
		if req.MinConfidence == nil {
			return &ConfigurationError{Field: "min_confidence", Reason: "is required in auto mode"}
		}
	default:
		return &ConfigurationError{Field: "mode", Reason: "must be one of fast, auto, deep"}
	}

	if mc := req.MinConfidence; mc != nil && (*mc < 0 || *mc > 1) {
		return &ConfigurationError{Field: "min_confidence", Reason: "must be within [0, 1]"}
	}
	return nil
}

// FoldNewlines replaces line breaks with spaces.
func FoldNewlines(text string) string {
	return newlineFolder.Replace(text)
}

var newlineFolder = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
