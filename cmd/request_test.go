package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/langid/internal/model"
)

func f64(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestDecodeDetectRequest(t *testing.T) {
	req, err := decodeDetectRequest(strings.NewReader(`{"text":"hello","mode":"auto","min_confidence":0.8,"source":"web"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", req.Text)
	assert.Equal(t, "auto", req.Mode)
	require.NotNil(t, req.MinConfidence)
	assert.InDelta(t, 0.8, *req.MinConfidence, 1e-9)
	assert.Nil(t, req.NormalizeCode)
	assert.Equal(t, "web", req.Source)
}

func TestDecodeDetectRequest_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", ``, "empty body"},
		{"malformed", `{"text":`, "invalid JSON"},
		{"unknown field", `{"text":"hi","mode":"fast","lang":"en"}`, "invalid JSON"},
		{"trailing data", `{"text":"hi","mode":"fast"}{"x":1}`, "unexpected trailing data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeDetectRequest(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, isRequestError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestToModel_Defaults(t *testing.T) {
	req, err := detectRequest{Text: "hello", Mode: "fast"}.toModel()
	require.NoError(t, err)
	assert.Equal(t, model.ModeFast, req.Mode)
	assert.True(t, req.NormalizeCode, "normalize_code defaults to true")
	assert.Nil(t, req.MinConfidence)
}

func TestToModel_MissingModeDefaultsToFast(t *testing.T) {
	req, err := detectRequest{Text: "hello"}.toModel()
	require.NoError(t, err)
	assert.Equal(t, model.ModeFast, req.Mode)
}

func TestToModel_LegacyModeNames(t *testing.T) {
	req, err := detectRequest{Text: "hello", Mode: "fast-langdetect"}.toModel()
	require.NoError(t, err)
	assert.Equal(t, model.ModeFast, req.Mode)

	req, err = detectRequest{Text: "hello", Mode: "llm"}.toModel()
	require.NoError(t, err)
	assert.Equal(t, model.ModeDeep, req.Mode)
}

func TestToModel_ExplicitFields(t *testing.T) {
	req, err := detectRequest{
		Text:          "hello",
		Mode:          "auto",
		MinConfidence: f64(0.5),
		NormalizeCode: boolPtr(false),
		Source:        "svc-a",
	}.toModel()
	require.NoError(t, err)
	assert.Equal(t, model.ModeAuto, req.Mode)
	assert.False(t, req.NormalizeCode)
	assert.Equal(t, "svc-a", req.SourceTag)
	assert.InDelta(t, 0.5, *req.MinConfidence, 1e-9)
}

func TestToModel_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   detectRequest
		field string
	}{
		{"missing text", detectRequest{Mode: "fast"}, "text"},
		{"unknown mode", detectRequest{Text: "hi", Mode: "turbo"}, "mode"},
		{"min too high", detectRequest{Text: "hi", Mode: "auto", MinConfidence: f64(1.5)}, "min_confidence"},
		{"min negative", detectRequest{Text: "hi", Mode: "auto", MinConfidence: f64(-0.1)}, "min_confidence"},
		{"source too long", detectRequest{Text: "hi", Mode: "fast", Source: strings.Repeat("s", 129)}, "source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.toModel()
			require.Error(t, err)
			var re *requestError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.field, re.Field)
			assert.NotEmpty(t, re.Message)
		})
	}
}

func TestToModel_UnknownModeMessage(t *testing.T) {
	_, err := detectRequest{Text: "hi", Mode: "turbo"}.toModel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode must be one of fast, auto or deep")
}
