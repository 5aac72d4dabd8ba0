package quota

import (
	"errors"
	"fmt"
	"time"
)

// Common errors.
var (
	// ErrQuotaExceeded is returned when a principal's daily limit is reached.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrInvalidPrincipal is returned when the principal identifier is empty.
	ErrInvalidPrincipal = errors.New("invalid principal")

	// ErrStoreUnavailable is returned when the usage store cannot be read or
	// written. The guard treats it as a denial unless configured fail-open.
	ErrStoreUnavailable = errors.New("usage store unavailable")
)

// ExceededError carries the denial details for a rejected request.
type ExceededError struct {
	Principal string
	Limit     int64
	ResetsAt  time.Time
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily quota of %d exceeded, resets at %s",
		e.Limit, e.ResetsAt.Format(time.RFC3339))
}

func (e *ExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// IsExceeded reports whether err represents a quota denial.
func IsExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
