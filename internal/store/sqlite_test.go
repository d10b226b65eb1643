package store

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/langid/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func f64(v float64) *float64 { return &v }

func successRecord(id string) model.AuditRecord {
	received := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return model.AuditRecord{
		ID:             id,
		Text:           "Hello world",
		Mode:           model.ModeAuto,
		MinConfidence:  f64(0.8),
		NormalizeCode:  true,
		SourceTag:      "unit",
		RawLangTag:     "en",
		CanonicalCode:  "en",
		DisplayName:    "English",
		Score:          f64(0.95),
		ModelUsed:      model.StrategyFast,
		ElapsedSeconds: 0.012,
		Trace:          []string{"fast: lang=en score=0.9500", "gate: accept", "normalize: en -> en (English)"},
		Succeeded:      true,
		ReceivedAt:     received,
		CreatedAt:      received.Add(time.Millisecond),
	}
}

func failureRecord(id string) model.AuditRecord {
	received := time.Date(2026, 5, 4, 11, 0, 0, 0, time.UTC)
	return model.AuditRecord{
		ID:             id,
		Text:           "slow text",
		Mode:           model.ModeDeep,
		ModelUsed:      model.StrategyDeep,
		ElapsedSeconds: 5.001,
		Trace:          []string{"fast: skipped (mode=deep)", "deep: timeout after 5s", "failure: timeout"},
		FailureKind:    model.FailureTimeout,
		FailureReason:  "detection: deep detector timed out after 5s",
		Succeeded:      false,
		ReceivedAt:     received,
		CreatedAt:      received.Add(5 * time.Second),
	}
}

func TestSQLite_AppendAndGet_Success(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	want := successRecord("rec-ok")
	require.NoError(t, st.AppendRecord(ctx, want))

	got, err := st.GetRecord(ctx, "rec-ok")
	require.NoError(t, err)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, model.ModeAuto, got.Mode)
	require.NotNil(t, got.MinConfidence)
	assert.InDelta(t, 0.8, *got.MinConfidence, 1e-9)
	assert.True(t, got.NormalizeCode)
	assert.Equal(t, "unit", got.SourceTag)
	assert.Equal(t, "en", got.CanonicalCode)
	assert.Equal(t, "English", got.DisplayName)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 0.95, *got.Score, 1e-9)
	assert.Equal(t, model.StrategyFast, got.ModelUsed)
	assert.Equal(t, want.Trace, got.Trace)
	assert.True(t, got.Succeeded)
	assert.True(t, want.ReceivedAt.Equal(got.ReceivedAt))
}

func TestSQLite_AppendAndGet_Failure(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendRecord(ctx, failureRecord("rec-fail")))

	got, err := st.GetRecord(ctx, "rec-fail")
	require.NoError(t, err)
	assert.False(t, got.Succeeded)
	assert.Empty(t, got.CanonicalCode)
	assert.Nil(t, got.Score)
	assert.Nil(t, got.MinConfidence)
	assert.Equal(t, model.FailureTimeout, got.FailureKind)
	assert.Equal(t, "failure: timeout", got.Trace[len(got.Trace)-1])
}

func TestSQLite_GetRecord_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRecord(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_AppendRecord_DuplicateID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendRecord(ctx, successRecord("dup")))
	err := st.AppendRecord(ctx, successRecord("dup"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record dup")
}

func TestSQLite_AppendRecord_NilTrace(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := successRecord("nil-trace")
	rec.Trace = nil
	require.NoError(t, st.AppendRecord(ctx, rec))

	got, err := st.GetRecord(ctx, "nil-trace")
	require.NoError(t, err)
	assert.Empty(t, got.Trace)
}

func TestSQLite_ConcurrentAppends(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.AppendRecord(ctx, successRecord("rec-"+strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detection_records`).Scan(&n))
	assert.Equal(t, 20, n)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))

	require.NoError(t, st.Close())
	assert.Error(t, st.Ping(context.Background()))
}
