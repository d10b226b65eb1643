package detection

import (
	"errors"
	"fmt"
	"time"

	"github.com/sells-group/langid/internal/model"
)

// ConfigurationError rejects a request before any detector runs. Requests
// rejected this way are not recorded.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("detection: invalid request: %s %s", e.Field, e.Reason)
}

// TimeoutError reports that a detector did not answer within its bound.
type TimeoutError struct {
	Strategy model.Strategy
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("detection: %s detector timed out after %s", e.Strategy, e.After)
}

// PersistenceError reports that an audit record could not be written. The
// detection result it belongs to is still valid.
type PersistenceError struct {
	RecordID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("detection: persist record %s: %v", e.RecordID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
