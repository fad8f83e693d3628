package rtr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// TransientError wraps a failure the façade's retry policy should
// retry with capped exponential backoff (spec §7).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("rtr: %s: transient: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError wraps a failure that must never be retried: auth,
// not-found, or a permanently rejected request.
type FatalError struct {
	Op   string
	Kind types.ErrorKind
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("rtr: %s: %s: %v", e.Op, e.Kind, e.Err)
}
func (e *FatalError) Unwrap() error { return e.Err }

// classifyStatus maps an HTTP status code from the RTR service to the
// error taxonomy of spec §7. 2xx is not an error; everything else is
// bucketed so the caller's retry loop knows whether to retry.
func classifyStatus(op string, status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &FatalError{Op: op, Kind: types.KindAuth, Err: errors.New(body)}
	case status == http.StatusNotFound:
		return &FatalError{Op: op, Kind: types.KindNotFoundOffline, Err: errors.New(body)}
	case status == http.StatusTooManyRequests, status >= 500:
		return &TransientError{Op: op, Err: fmt.Errorf("status %d: %s", status, body)}
	default:
		return &FatalError{Op: op, Kind: types.KindInternal, Err: fmt.Errorf("status %d: %s", status, body)}
	}
}

// IsTransient reports whether err (or a wrapped cause of it) is a
// TransientError, the only kind the façade's retry transport retries.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
