package detection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/langid/internal/model"
)

// DefaultAuditTimeout bounds a single record write.
const DefaultAuditTimeout = 5 * time.Second

// Sink is the append-only store behind the AuditRecorder.
type Sink interface {
	AppendRecord(ctx context.Context, rec model.AuditRecord) error
}

// AuditRecorder writes one AuditRecord per request.
type AuditRecorder struct {
	sink    Sink
	timeout time.Duration

	newID func() string
	now   func() time.Time
}

// NewAuditRecorder returns a recorder writing to sink.
func NewAuditRecorder(sink Sink, timeout time.Duration) *AuditRecorder {
	if timeout <= 0 {
		timeout = DefaultAuditTimeout
	}
	return &AuditRecorder{
		sink:    sink,
		timeout: timeout,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Record persists req and out. The write is detached from ctx cancellation
// so a caller that goes away does not drop the record. A write failure is
// logged and returned as a *PersistenceError with an empty ID.
func (a *AuditRecorder) Record(ctx context.Context, req model.DetectionRequest, out model.DetectionOutcome) (string, error) {
	id := a.newID()
	rec := model.NewAuditRecord(id, req, out, a.now().UTC())

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.sink.AppendRecord(wctx, rec); err != nil {
		zap.L().Error("audit: persist detection record",
			zap.String("record_id", id),
			zap.Bool("succeeded", out.Succeeded),
			zap.String("failure_kind", string(out.FailureKind)),
			zap.Error(err),
		)
		return "", &PersistenceError{RecordID: id, Err: err}
	}
	return id, nil
}
