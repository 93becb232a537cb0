package invoke

import (
	"errors"
	"fmt"
)

// ErrInputUnsupported is returned when a test declares input for a strategy
// that has no way to deliver it.
var ErrInputUnsupported = errors.New("input directives are not supported by single-stage suites")

// LaunchError reports a process that could not be started at all.
// It indicates a harness misconfiguration, not a failing test.
type LaunchError struct {
	Path string // executable that failed to launch
	Err  error  // underlying exec/os error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError reports whether err is or wraps a *LaunchError.
func IsLaunchError(err error) bool {
	var launchErr *LaunchError
	return errors.As(err, &launchErr)
}
