// Package store persists detection audit records.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/langid/internal/model"
)

// ErrNotFound is returned by GetRecord for an unknown ID.
var ErrNotFound = eris.New("store: record not found")

// Store is the append-only sink for audit records. Records are never
// updated once written.
type Store interface {
	AppendRecord(ctx context.Context, rec model.AuditRecord) error
	GetRecord(ctx context.Context, id string) (*model.AuditRecord, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
