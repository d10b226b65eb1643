package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Mode selects which detection strategies a request may use.
type Mode string

const (
	// ModeFast uses the statistical detector only.
	ModeFast Mode = "fast"
	// ModeAuto uses the statistical detector and escalates below MinConfidence.
	ModeAuto Mode = "auto"
	// ModeDeep skips the statistical detector and asks the LLM directly.
	ModeDeep Mode = "deep"
)

// ParseMode maps a mode name to a Mode. The legacy names "fast-langdetect"
// and "llm" are accepted for fast and deep.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast", "fast-langdetect":
		return ModeFast, nil
	case "auto":
		return ModeAuto, nil
	case "deep", "llm":
		return ModeDeep, nil
	default:
		return "", eris.Errorf("unknown detection mode %q", s)
	}
}

// Strategy identifies the detector that produced a verdict.
type Strategy string

const (
	StrategyFast Strategy = "fast"
	StrategyDeep Strategy = "deep"
)

// FailureKind classifies why a detection attempt ended in failure.
type FailureKind string

const (
	FailureDetection  FailureKind = "detection"
	FailureTimeout    FailureKind = "timeout"
	FailureCanceled   FailureKind = "canceled"
	FailureConversion FailureKind = "conversion"
	FailureInternal   FailureKind = "internal"
)

// DetectionRequest is one caller request. It is not modified once built.
type DetectionRequest struct {
	Text          string   `json:"text"`
	Mode          Mode     `json:"mode"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	NormalizeCode bool     `json:"normalize_code"`
	SourceTag     string   `json:"source,omitempty"`
}

// DetectionOutcome is the result of one pass through the detection pipeline.
// CanonicalCode is set only when Succeeded is true.
type DetectionOutcome struct {
	RawLangTag     string      `json:"raw_lang,omitempty"`
	CanonicalCode  string      `json:"canonical_code,omitempty"`
	DisplayName    string      `json:"display_name,omitempty"`
	Score          *float64    `json:"score,omitempty"`
	ModelUsed      Strategy    `json:"model_used,omitempty"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
	Trace          []string    `json:"trace"`
	ReceivedAt     time.Time   `json:"received_at"`
	Succeeded      bool        `json:"succeeded"`
	FailureKind    FailureKind `json:"failure_kind,omitempty"`
	FailureReason  string      `json:"failure_reason,omitempty"`
}

// AuditRecord is the persisted form of a request and its outcome.
type AuditRecord struct {
	ID string `json:"id"`

	Text          string   `json:"text"`
	Mode          Mode     `json:"mode"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	NormalizeCode bool     `json:"normalize_code"`
	SourceTag     string   `json:"source,omitempty"`

	RawLangTag     string      `json:"raw_lang,omitempty"`
	CanonicalCode  string      `json:"canonical_code,omitempty"`
	DisplayName    string      `json:"display_name,omitempty"`
	Score          *float64    `json:"score,omitempty"`
	ModelUsed      Strategy    `json:"model_used,omitempty"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
	Trace          []string    `json:"trace"`
	FailureKind    FailureKind `json:"failure_kind,omitempty"`
	FailureReason  string      `json:"failure_reason,omitempty"`
	Succeeded      bool        `json:"succeeded"`

	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAuditRecord flattens a request and its outcome into one record.
func NewAuditRecord(id string, req DetectionRequest, out DetectionOutcome, createdAt time.Time) AuditRecord {
	trace := make([]string, len(out.Trace))
	copy(trace, out.Trace)

	rec := AuditRecord{
		ID:             id,
		Text:           req.Text,
		Mode:           req.Mode,
		MinConfidence:  req.MinConfidence,
		NormalizeCode:  req.NormalizeCode,
		SourceTag:      req.SourceTag,
		RawLangTag:     out.RawLangTag,
		DisplayName:    out.DisplayName,
		Score:          out.Score,
		ModelUsed:      out.ModelUsed,
		ElapsedSeconds: out.ElapsedSeconds,
		Trace:          trace,
		FailureKind:    out.FailureKind,
		FailureReason:  out.FailureReason,
		Succeeded:      out.Succeeded,
		ReceivedAt:     out.ReceivedAt,
		CreatedAt:      createdAt,
	}
	if out.Succeeded {
		rec.CanonicalCode = out.CanonicalCode
	}
	return rec
}
