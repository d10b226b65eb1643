package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/langid/internal/config"
	"github.com/sells-group/langid/internal/detection"
	"github.com/sells-group/langid/internal/detector"
	"github.com/sells-group/langid/internal/langcode"
	"github.com/sells-group/langid/internal/resilience"
	"github.com/sells-group/langid/internal/script"
	"github.com/sells-group/langid/internal/store"
	"github.com/sells-group/langid/pkg/anthropic"
)

// detectionEnv holds the initialized store and orchestrator shared by the
// detect, batch and serve commands.
type detectionEnv struct {
	Store        store.Store
	Orchestrator *detection.Orchestrator
}

// Close releases the store.
func (e *detectionEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initDetection validates config for mode and builds the full detection
// stack: store, code tables, script converter, both detectors and the
// audit recorder.
func initDetection(ctx context.Context, mode string) (*detectionEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	orch, err := buildOrchestrator(st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Info("detection stack ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("fast", cfg.Fast.Backend),
		zap.String("deep", cfg.Deep.Provider),
		zap.Duration("deep_timeout", cfg.Deep.Timeout()),
	)

	return &detectionEnv{Store: st, Orchestrator: orch}, nil
}

func buildOrchestrator(sink detection.Sink) (*detection.Orchestrator, error) {
	codes, err := langcode.Load(cfg.Langcode.AliasesFile)
	if err != nil {
		return nil, eris.Wrap(err, "load language codes")
	}

	conv, err := script.NewOpenCC()
	if err != nil {
		return nil, err
	}

	fast, err := initFast(cfg.Fast)
	if err != nil {
		return nil, err
	}

	deep, err := initDeep(cfg)
	if err != nil {
		return nil, err
	}

	return detection.NewOrchestrator(detection.Config{
		Fast:        fast,
		Deep:        deep,
		Script:      script.NewDisambiguator(conv),
		Codes:       codes,
		Recorder:    detection.NewAuditRecorder(sink, cfg.Audit.Timeout()),
		DeepTimeout: cfg.Deep.Timeout(),
	})
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initFast(fc config.FastConfig) (detector.Detector, error) {
	switch fc.Backend {
	case "whatlang":
		return detector.NewWhatlang(), nil
	case "lingua":
		d, err := detector.NewLingua(fc.Languages)
		if err != nil {
			return nil, eris.Wrap(err, "init lingua detector")
		}
		return d, nil
	default:
		return nil, eris.Errorf("unsupported fast backend: %s", fc.Backend)
	}
}

func initDeep(c *config.Config) (detector.Detector, error) {
	var completer detector.Completer
	switch c.Deep.Provider {
	case "anthropic":
		completer = detector.NewAnthropicCompleter(
			anthropic.NewClient(c.Anthropic.Key),
			c.Anthropic.Model,
			int64(c.Deep.MaxTokens),
		)
	case "openai":
		completer = detector.NewOpenAICompleter(
			detector.NewOpenAIClient(c.OpenAI.Key, c.OpenAI.BaseURL),
			c.OpenAI.Model,
			c.Deep.MaxTokens,
		)
	default:
		return nil, eris.Errorf("unsupported deep provider: %s", c.Deep.Provider)
	}

	opts := []detector.LLMOption{
		detector.WithBreaker(resilience.NewCircuitBreaker(resilience.FromCircuitConfig(
			"deep_"+c.Deep.Provider,
			c.Deep.BreakerFailureThreshold,
			c.Deep.BreakerResetSecs,
		))),
	}
	if c.Deep.RatePerSec > 0 {
		burst := c.Deep.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, detector.WithLimiter(rate.NewLimiter(rate.Limit(c.Deep.RatePerSec), burst)))
	}

	return detector.NewLLM(completer, opts...), nil
}
