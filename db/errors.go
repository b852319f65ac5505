package db

import (
	"errors"
	"fmt"
)

// ErrConnectionFailed is the single error kind of this package: a new
// session could not be established. The database may be unreachable, the
// credentials rejected, the driver missing, or the handshake broken.
var ErrConnectionFailed = errors.New("fintech/db: connection failed")

// IsConnectionFailed reports whether err is (or wraps) a connection failure.
func IsConnectionFailed(err error) bool { return errors.Is(err, ErrConnectionFailed) }

// ConnectionError carries the original cause of a connection failure so
// callers can use errors.Is(err, ErrConnectionFailed) for the simple check
// or errors.As down to the driver / network error for detail.
type ConnectionError struct {
	// Endpoint identifies the target without the account secret.
	Endpoint string
	// Cause is the original error, unaltered.
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s: %v", ErrConnectionFailed, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", ErrConnectionFailed, e.Endpoint, e.Cause)
}

func (e *ConnectionError) Is(target error) bool { return target == ErrConnectionFailed }
func (e *ConnectionError) Unwrap() error        { return e.Cause }
