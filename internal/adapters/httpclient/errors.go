package httpclient

import (
	"errors"
	"fmt"
)

// ErrTransport matches every TransportError via errors.Is.
var ErrTransport = errors.New("transport error")

// TransportError reports a network failure, a non-2xx status, or a body
// that is not JSON.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int    // zero when no response arrived
	Status     string // status text, e.g. "Not Found"
	Err        error  // underlying cause, nil for status failures
}

// Error renders "<code> <status text>" for status failures and the cause
// otherwise, which is what the display slots show after "Error: ".
func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }
