package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"fast", ModeFast},
		{"fast-langdetect", ModeFast},
		{"AUTO", ModeAuto},
		{" auto ", ModeAuto},
		{"deep", ModeDeep},
		{"llm", ModeDeep},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMode_Unknown(t *testing.T) {
	_, err := ParseMode("turbo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}

func TestNewAuditRecord_Success(t *testing.T) {
	minConf := 0.8
	score := 0.95
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created := received.Add(time.Second)

	req := DetectionRequest{
		Text:          "Hello world",
		Mode:          ModeAuto,
		MinConfidence: &minConf,
		NormalizeCode: true,
		SourceTag:     "unit",
	}
	out := DetectionOutcome{
		RawLangTag:     "en",
		CanonicalCode:  "en",
		DisplayName:    "English",
		Score:          &score,
		ModelUsed:      StrategyFast,
		ElapsedSeconds: 0.01,
		Trace:          []string{"fast: lang=en"},
		ReceivedAt:     received,
		Succeeded:      true,
	}

	rec := NewAuditRecord("rec-1", req, out, created)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Hello world", rec.Text)
	assert.Equal(t, ModeAuto, rec.Mode)
	require.NotNil(t, rec.MinConfidence)
	assert.InDelta(t, 0.8, *rec.MinConfidence, 1e-9)
	assert.Equal(t, "unit", rec.SourceTag)
	assert.Equal(t, "en", rec.CanonicalCode)
	assert.Equal(t, "English", rec.DisplayName)
	assert.True(t, rec.Succeeded)
	assert.Equal(t, received, rec.ReceivedAt)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, []string{"fast: lang=en"}, rec.Trace)
}

func TestNewAuditRecord_FailureDropsCanonicalCode(t *testing.T) {
	out := DetectionOutcome{
		CanonicalCode: "en",
		Trace:         []string{"deep: timeout"},
		Succeeded:     false,
		FailureKind:   FailureTimeout,
	}

	rec := NewAuditRecord("rec-2", DetectionRequest{Text: "x", Mode: ModeDeep}, out, time.Now())

	assert.Empty(t, rec.CanonicalCode)
	assert.False(t, rec.Succeeded)
	assert.Equal(t, FailureTimeout, rec.FailureKind)
}

func TestNewAuditRecord_TraceIsCopied(t *testing.T) {
	out := DetectionOutcome{Trace: []string{"a"}, Succeeded: true}
	rec := NewAuditRecord("rec-3", DetectionRequest{}, out, time.Now())

	out.Trace[0] = "mutated"
	assert.Equal(t, "a", rec.Trace[0])
}
