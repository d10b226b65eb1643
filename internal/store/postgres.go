package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/langid/internal/db"
	"github.com/sells-group/langid/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS detection_records (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL,
	mode            TEXT NOT NULL,
	min_confidence  DOUBLE PRECISION,
	normalize_code  BOOLEAN NOT NULL DEFAULT false,
	source_tag      TEXT NOT NULL DEFAULT '',
	raw_lang        TEXT NOT NULL DEFAULT '',
	canonical_code  TEXT,
	display_name    TEXT NOT NULL DEFAULT '',
	score           DOUBLE PRECISION,
	model_used      TEXT NOT NULL DEFAULT '',
	elapsed_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	trace           JSONB NOT NULL,
	failure_kind    TEXT NOT NULL DEFAULT '',
	failure_reason  TEXT NOT NULL DEFAULT '',
	succeeded       BOOLEAN NOT NULL,
	received_at     TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_detection_records_succeeded ON detection_records(succeeded);
CREATE INDEX IF NOT EXISTS idx_detection_records_received_at ON detection_records(received_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AppendRecord(ctx context.Context, rec model.AuditRecord) error {
	traceJSON, err := json.Marshal(traceOrEmpty(rec.Trace))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal trace")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO detection_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rec.ID, rec.Text, string(rec.Mode), rec.MinConfidence, rec.NormalizeCode, rec.SourceTag,
		rec.RawLangTag, nullString(rec.CanonicalCode), rec.DisplayName, rec.Score, string(rec.ModelUsed),
		rec.ElapsedSeconds, traceJSON, string(rec.FailureKind), rec.FailureReason, rec.Succeeded,
		rec.ReceivedAt.UTC(), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert record %s", rec.ID)
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.AuditRecord, error) {
	var (
		r         model.AuditRecord
		mode      string
		modelUsed string
		kind      string
		canonical *string
		traceJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM detection_records WHERE id = $1`, id,
	).Scan(
		&r.ID, &r.Text, &mode, &r.MinConfidence, &r.NormalizeCode, &r.SourceTag,
		&r.RawLangTag, &canonical, &r.DisplayName, &r.Score, &modelUsed,
		&r.ElapsedSeconds, &traceJSON, &kind, &r.FailureReason, &r.Succeeded,
		&r.ReceivedAt, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get record %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}

	if err := json.Unmarshal(traceJSON, &r.Trace); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal trace")
	}
	r.Mode = model.Mode(mode)
	r.ModelUsed = model.Strategy(modelUsed)
	r.FailureKind = model.FailureKind(kind)
	if canonical != nil {
		r.CanonicalCode = *canonical
	}
	return &r, nil
}
