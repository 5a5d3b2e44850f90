package remote

import (
	"context"
	"errors"
)

var (
	// ErrNetwork means no response was received.
	ErrNetwork = errors.New("network error")
	// ErrService means the server answered with an unexpected status or a malformed body.
	ErrService    = errors.New("service error")
	ErrAuth       = errors.New("invalid or missing credentials")
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrTimeout    = errors.New("request timed out")
)

// Kind returns the sentinel error of the taxonomy err belongs to, or nil if it belongs to none.
func Kind(err error) error {
	for _, kind := range []error{ErrTimeout, ErrAuth, ErrNotFound, ErrService, ErrValidation, ErrNetwork} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return nil
}
