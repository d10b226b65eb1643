package detector

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/sells-group/langid/internal/langcode"
	"github.com/sells-group/langid/internal/model"
	"github.com/sells-group/langid/internal/resilience"
)

const systemPrompt = "You identify the language of the text the user sends. " +
	"Reply with only its ISO 639-1 language code in lowercase, for example en, fr or zh. " +
	"Do not translate, explain or add punctuation."

var codePattern = regexp.MustCompile(`^[a-z]{2,3}([-_][a-z0-9]{2,8})*$`)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = eris.New("llm: empty reply")

// Completer sends one system+user exchange to a chat model and returns the
// text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMOption configures an LLM detector.
type LLMOption func(*LLM)

// WithLimiter paces calls to the model. Waiting counts against the
// caller's context.
func WithLimiter(l *rate.Limiter) LLMOption {
	return func(d *LLM) { d.limiter = l }
}

// WithBreaker fails calls fast while the model provider is failing.
func WithBreaker(cb *resilience.CircuitBreaker) LLMOption {
	return func(d *LLM) { d.breaker = cb }
}

// LLM is the deep detector. It asks a chat model for the language code and
// reports no score.
type LLM struct {
	completer Completer
	limiter   *rate.Limiter
	breaker   *resilience.CircuitBreaker
}

// NewLLM returns a deep detector backed by c.
func NewLLM(c Completer, opts ...LLMOption) *LLM {
	d := &LLM{completer: c}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect asks the model for the language of text.
func (d *LLM) Detect(ctx context.Context, text string) (Verdict, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		return Verdict{}, fail(model.StrategyDeep, ErrEmptyText)
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return Verdict{}, fail(model.StrategyDeep, eris.Wrap(err, "llm: rate limit wait"))
		}
	}

	call := func(ctx context.Context) (string, error) {
		return d.completer.Complete(ctx, systemPrompt, text)
	}

	var (
		reply string
		err   error
	)
	if d.breaker != nil {
		reply, err = resilience.ExecuteVal(ctx, d.breaker, call)
	} else {
		reply, err = call(ctx)
	}
	if err != nil {
		return Verdict{}, fail(model.StrategyDeep, err)
	}

	code, err := ParseLanguageCode(reply)
	if err != nil {
		return Verdict{}, fail(model.StrategyDeep, err)
	}
	return Verdict{Lang: code, Elapsed: time.Since(start)}, nil
}

// replyStopwords are three-letter English words that are also registered
// ISO 639-3 codes and show up when a model answers in prose.
var replyStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "not": true, "are": true,
	"but": true, "you": true, "its": true, "was": true, "can": true,
	"one": true, "yes": true, "lan": true,
}

// ParseLanguageCode extracts a language code from a model reply. The reply
// must be a single token whose base subtag is a registered language code
// or a known alias.
func ParseLanguageCode(reply string) (string, error) {
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return "", ErrEmptyReply
	}
	if len(fields) > 1 {
		return "", eris.Errorf("llm: reply is not a single code %q", reply)
	}

	tok := strings.ToLower(strings.Trim(fields[0], "`'\".,:;!?()[]{}*"))
	if !codePattern.MatchString(tok) {
		return "", eris.Errorf("llm: unparseable reply %q", reply)
	}
	if langcode.IsAlias(tok) {
		return tok, nil
	}

	base := tok
	if i := strings.IndexAny(tok, "-_"); i >= 0 {
		base = tok[:i]
	}
	if replyStopwords[base] {
		return "", eris.Errorf("llm: unparseable reply %q", reply)
	}
	b, err := language.ParseBase(base)
	if err != nil || b.String() == "und" {
		return "", eris.Errorf("llm: unknown language code %q", tok)
	}
	return tok, nil
}
