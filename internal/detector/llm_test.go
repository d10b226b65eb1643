package detector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/langid/internal/model"
	"github.com/sells-group/langid/internal/resilience"
	"github.com/sells-group/langid/pkg/anthropic"
	"github.com/sells-group/langid/pkg/anthropic/mocks"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestParseLanguageCode(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"en", "en"},
		{"  FR\n", "fr"},
		{"`de`", "de"},
		{"zh-TW.", "zh-tw"},
		{"pt_BR", "pt_br"},
		{"jp", "jp"},
		{"yue", "yue"},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := ParseLanguageCode(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLanguageCode_Rejects(t *testing.T) {
	_, err := ParseLanguageCode("   ")
	assert.True(t, errors.Is(err, ErrEmptyReply))

	for _, reply := range []string{
		"English", "The language is en", "The language is English.",
		"en is the code", "the", "And.", "e", "12", "xq", "und",
	} {
		_, err := ParseLanguageCode(reply)
		assert.Error(t, err, reply)
	}
}

func TestLLM_Detect(t *testing.T) {
	c := &stubCompleter{reply: "ja"}
	v, err := NewLLM(c).Detect(context.Background(), "こんにちは")
	require.NoError(t, err)
	assert.Equal(t, "ja", v.Lang)
	assert.Nil(t, v.Score)
	assert.Equal(t, 1, c.calls)
}

func TestLLM_CompleterErrorIsDetectionError(t *testing.T) {
	c := &stubCompleter{err: errors.New("provider down")}
	_, err := NewLLM(c).Detect(context.Background(), "hola")

	var de *DetectionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, model.StrategyDeep, de.Strategy)
	assert.Contains(t, err.Error(), "provider down")
}

func TestLLM_UnparseableReply(t *testing.T) {
	_, err := NewLLM(&stubCompleter{reply: "I think it is Spanish"}).Detect(context.Background(), "hola")
	require.Error(t, err)
	assert.True(t, IsDetectionError(err))
}

func TestLLM_EmptyTextSkipsCompleter(t *testing.T) {
	c := &stubCompleter{reply: "en"}
	_, err := NewLLM(c).Detect(context.Background(), " ")
	assert.True(t, errors.Is(err, ErrEmptyText))
	assert.Zero(t, c.calls)
}

func TestLLM_BreakerOpensAndFailsFast(t *testing.T) {
	c := &stubCompleter{err: errors.New("500")}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	d := NewLLM(c, WithBreaker(cb))

	for i := 0; i < 2; i++ {
		_, _ = d.Detect(context.Background(), "hola")
	}
	_, err := d.Detect(context.Background(), "hola")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.True(t, IsDetectionError(err))
	assert.Equal(t, 2, c.calls)
}

func TestLLM_LimiterWaitHonorsContext(t *testing.T) {
	c := &stubCompleter{reply: "en"}
	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, lim.Allow())
	d := NewLLM(c, WithLimiter(lim))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Detect(ctx, "hello")
	require.Error(t, err)
	assert.True(t, IsDetectionError(err))
	assert.Zero(t, c.calls)
}

func TestAnthropicCompleter(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 16 &&
			len(req.System) == 1 && req.System[0].Text == systemPrompt &&
			len(req.Messages) == 1 && req.Messages[0].Content == "Guten Morgen"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "de"}},
		Usage:   anthropic.TokenUsage{InputTokens: 30, OutputTokens: 1},
	}, nil)

	d := NewLLM(NewAnthropicCompleter(client, "claude-haiku-4-5-20251001", 16))
	v, err := d.Detect(context.Background(), "Guten Morgen")
	require.NoError(t, err)
	assert.Equal(t, "de", v.Lang)
}

func TestAnthropicCompleter_Error(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("anthropic: create message: 529"))

	_, err := NewAnthropicCompleter(client, "m", 16).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "529")
}

func TestOpenAICompleter_HTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "Buongiorno a tutti", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "it"}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 25, "completion_tokens": 1, "total_tokens": 26},
		})
	}))
	defer ts.Close()

	client := NewOpenAIClient("test-key", ts.URL+"/v1")
	d := NewLLM(NewOpenAICompleter(client, "gpt-4o-mini", 16))

	v, err := d.Detect(context.Background(), "Buongiorno a tutti")
	require.NoError(t, err)
	assert.Equal(t, "it", v.Lang)
}

type emptyChat struct{}

func (emptyChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	_, err := NewOpenAICompleter(emptyChat{}, "gpt-4o-mini", 16).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
