package supervisor

import "github.com/pkg/errors"

// Sentinel errors for the public operation table in spec §4.3. Wrapped with
// github.com/pkg/errors so callers can still errors.Is() through any
// additional context the control surface adds.
var (
	ErrAlreadyStarted = errors.New("the process is already started")
	ErrNotStarted     = errors.New("the process is not started")
)

// errWrapIo wraps an unexpected OS error as the spec's Io(reason) kind,
// keeping pkg/errors' stack context for diagnostics.
func errWrapIo(err error) error {
	return errors.Wrap(err, "I/O error")
}
