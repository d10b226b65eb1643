// Package detection runs the fast/deep language detection pipeline and
// records every attempt.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/langid/internal/detector"
	"github.com/sells-group/langid/internal/langcode"
	"github.com/sells-group/langid/internal/model"
	"github.com/sells-group/langid/internal/script"
)

// DefaultDeepTimeout bounds the deep phase when no timeout is configured.
const DefaultDeepTimeout = 5 * time.Second

// Recorder persists one outcome per request and returns the record ID.
type Recorder interface {
	Record(ctx context.Context, req model.DetectionRequest, out model.DetectionOutcome) (string, error)
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Fast        detector.Detector
	Deep        detector.Detector
	Script      *script.Disambiguator
	Codes       *langcode.Normalizer
	Recorder    Recorder
	DeepTimeout time.Duration
}

// Result is what a caller gets back for an accepted request. AuditErr is a
// *PersistenceError when the record could not be written.
type Result struct {
	Outcome  model.DetectionOutcome
	RecordID string
	AuditErr error
}

// Orchestrator composes detectors, the confidence gate, script
// disambiguation and code normalization. It is safe for concurrent use.
type Orchestrator struct {
	fast        detector.Detector
	deep        detector.Detector
	script      *script.Disambiguator
	codes       *langcode.Normalizer
	recorder    Recorder
	deepTimeout time.Duration

	now func() time.Time
}

// NewOrchestrator validates cfg and returns an Orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Fast == nil:
		return nil, eris.New("detection: fast detector is required")
	case cfg.Deep == nil:
		return nil, eris.New("detection: deep detector is required")
	case cfg.Script == nil:
		return nil, eris.New("detection: script disambiguator is required")
	case cfg.Codes == nil:
		return nil, eris.New("detection: code normalizer is required")
	case cfg.Recorder == nil:
		return nil, eris.New("detection: recorder is required")
	}

	timeout := cfg.DeepTimeout
	if timeout <= 0 {
		timeout = DefaultDeepTimeout
	}

	return &Orchestrator{
		fast:        cfg.Fast,
		deep:        cfg.Deep,
		script:      cfg.Script,
		codes:       cfg.Codes,
		recorder:    cfg.Recorder,
		deepTimeout: timeout,
		now:         time.Now,
	}, nil
}

// Detect runs one request to a terminal state and records it. The returned
// error is non-nil only for a *ConfigurationError, in which case no
// detector ran and nothing was recorded. Detection failures are reported in
// Result.Outcome.
func (o *Orchestrator) Detect(ctx context.Context, req model.DetectionRequest) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	receivedAt := o.now().UTC()
	start := time.Now()

	out := o.run(ctx, req, FoldNewlines(req.Text))
	out.ReceivedAt = receivedAt
	out.ElapsedSeconds = time.Since(start).Seconds()

	if out.Succeeded {
		zap.L().Info("detection: complete",
			zap.String("mode", string(req.Mode)),
			zap.String("source", req.SourceTag),
			zap.String("canonical_code", out.CanonicalCode),
			zap.String("model_used", string(out.ModelUsed)),
			zap.Float64("elapsed_seconds", out.ElapsedSeconds),
		)
	} else {
		zap.L().Warn("detection: failed",
			zap.String("mode", string(req.Mode)),
			zap.String("source", req.SourceTag),
			zap.String("failure_kind", string(out.FailureKind)),
			zap.String("failure_reason", out.FailureReason),
			zap.Float64("elapsed_seconds", out.ElapsedSeconds),
		)
	}

	id, auditErr := o.recorder.Record(ctx, req, out)
	return &Result{Outcome: out, RecordID: id, AuditErr: auditErr}, nil
}

func (o *Orchestrator) run(ctx context.Context, req model.DetectionRequest, text string) (out model.DetectionOutcome) {
	tr := &trace{}
	strategy := model.StrategyFast

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("detection: recovered panic", zap.Any("panic", r), zap.Stack("stack"))
			out = failure(tr, strategy, model.FailureInternal, eris.Errorf("panic: %v", r))
		}
	}()

	var verdict detector.Verdict
	escalate := req.Mode == model.ModeDeep

	if escalate {
		tr.add("fast: skipped (mode=deep)")
	} else {
		v, err := o.fast.Detect(ctx, text)
		switch {
		case err == nil:
			verdict = v
			tr.add("fast: lang=%s score=%s elapsed=%s", v.Lang, formatScore(v.Score), v.Elapsed)
			if req.Mode == model.ModeAuto {
				d := Decide(req.Mode, v.Score, req.MinConfidence)
				tr.add("gate: %s (score=%s min=%s)", d, formatScore(v.Score), formatScore(req.MinConfidence))
				escalate = d == Escalate
			}
		case req.Mode == model.ModeAuto && detector.IsDetectionError(err):
			tr.add("fast: error: %v", err)
			tr.add("gate: escalate (fast detector failed)")
			escalate = true
		default:
			tr.add("fast: error: %v", err)
			return failure(tr, strategy, model.FailureDetection, err)
		}
	}

	if escalate {
		strategy = model.StrategyDeep
		v, err := o.deepPhase(ctx, text)
		if err != nil {
			var te *TimeoutError
			switch {
			case errors.As(err, &te):
				tr.add("deep: timeout after %s", te.After)
				return failure(tr, strategy, model.FailureTimeout, err)
			case errors.Is(err, context.Canceled):
				tr.add("deep: canceled by caller")
				return failure(tr, strategy, model.FailureCanceled, err)
			default:
				tr.add("deep: error: %v", err)
				return failure(tr, strategy, model.FailureDetection, err)
			}
		}
		verdict = v
		tr.add("deep: lang=%s elapsed=%s", v.Lang, v.Elapsed)
	}

	tag, applied, err := o.script.Resolve(text, verdict.Lang)
	if err != nil {
		tr.add("script: conversion failed: %v", err)
		out = failure(tr, strategy, model.FailureConversion, err)
		out.RawLangTag = verdict.Lang
		return out
	}
	if applied {
		tr.add("script: %s -> %s", verdict.Lang, tag)
	}

	code := o.codes.Normalize(tag, req.NormalizeCode)
	name := o.codes.DisplayName(code)
	tr.add("normalize: %s -> %s (%s)", tag, code, name)

	return model.DetectionOutcome{
		RawLangTag:    verdict.Lang,
		CanonicalCode: code,
		DisplayName:   name,
		Score:         verdict.Score,
		ModelUsed:     strategy,
		Trace:         tr.snapshot(),
		Succeeded:     true,
	}
}

type deepResult struct {
	verdict detector.Verdict
	err     error
}

// deepPhase calls the deep detector under the configured bound. The bound
// holds even if the detector ignores its context.
func (o *Orchestrator) deepPhase(ctx context.Context, text string) (detector.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deepTimeout)
	defer cancel()

	ch := make(chan deepResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- deepResult{err: eris.Errorf("deep detector panic: %v", r)}
			}
		}()
		v, err := o.deep.Detect(ctx, text)
		ch <- deepResult{verdict: v, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && ctx.Err() != nil {
			return detector.Verdict{}, o.contextFailure(ctx)
		}
		return r.verdict, r.err
	case <-ctx.Done():
		return detector.Verdict{}, o.contextFailure(ctx)
	}
}

func (o *Orchestrator) contextFailure(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Strategy: model.StrategyDeep, After: o.deepTimeout}
	}
	return ctx.Err()
}

func failure(tr *trace, strategy model.Strategy, kind model.FailureKind, err error) model.DetectionOutcome {
	reason := fmt.Sprint(err)
	tr.add("failure: %s: %s", kind, reason)
	return model.DetectionOutcome{
		ModelUsed:     strategy,
		Trace:         tr.snapshot(),
		Succeeded:     false,
		FailureKind:   kind,
		FailureReason: reason,
	}
}
