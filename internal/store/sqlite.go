package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/langid/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS detection_records (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL,
	mode            TEXT NOT NULL,
	min_confidence  REAL,
	normalize_code  INTEGER NOT NULL DEFAULT 0,
	source_tag      TEXT NOT NULL DEFAULT '',
	raw_lang        TEXT NOT NULL DEFAULT '',
	canonical_code  TEXT,
	display_name    TEXT NOT NULL DEFAULT '',
	score           REAL,
	model_used      TEXT NOT NULL DEFAULT '',
	elapsed_seconds REAL NOT NULL DEFAULT 0,
	trace           TEXT NOT NULL,
	failure_kind    TEXT NOT NULL DEFAULT '',
	failure_reason  TEXT NOT NULL DEFAULT '',
	succeeded       INTEGER NOT NULL,
	received_at     DATETIME NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_detection_records_succeeded ON detection_records(succeeded);
CREATE INDEX IF NOT EXISTS idx_detection_records_received_at ON detection_records(received_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AppendRecord(ctx context.Context, rec model.AuditRecord) error {
	traceJSON, err := json.Marshal(traceOrEmpty(rec.Trace))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal trace")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO detection_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Text, string(rec.Mode), rec.MinConfidence, rec.NormalizeCode, rec.SourceTag,
		rec.RawLangTag, nullString(rec.CanonicalCode), rec.DisplayName, rec.Score, string(rec.ModelUsed),
		rec.ElapsedSeconds, string(traceJSON), string(rec.FailureKind), rec.FailureReason, rec.Succeeded,
		rec.ReceivedAt.UTC(), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert record %s", rec.ID)
	}
	return nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.AuditRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM detection_records WHERE id = ?`, id)

	var (
		r         model.AuditRecord
		minConf   sql.NullFloat64
		score     sql.NullFloat64
		canonical sql.NullString
		traceJSON string
	)
	err := row.Scan(
		&r.ID, &r.Text, &r.Mode, &minConf, &r.NormalizeCode, &r.SourceTag,
		&r.RawLangTag, &canonical, &r.DisplayName, &score, &r.ModelUsed,
		&r.ElapsedSeconds, &traceJSON, &r.FailureKind, &r.FailureReason, &r.Succeeded,
		&r.ReceivedAt, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get record %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}

	if err := json.Unmarshal([]byte(traceJSON), &r.Trace); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal trace")
	}
	r.MinConfidence = floatPtr(minConf)
	r.Score = floatPtr(score)
	r.CanonicalCode = canonical.String
	return &r, nil
}

const recordColumns = `id, text, mode, min_confidence, normalize_code, source_tag,
	raw_lang, canonical_code, display_name, score, model_used,
	elapsed_seconds, trace, failure_kind, failure_reason, succeeded,
	received_at, created_at`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func traceOrEmpty(trace []string) []string {
	if trace == nil {
		return []string{}
	}
	return trace
}
