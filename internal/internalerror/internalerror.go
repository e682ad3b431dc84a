// Package internalerror implements the grader's fatal abort path.
// Infrastructure failures (pipe/spawn/wait failures, duplicate
// registration, a case constructed with the automatic-points
// sentinel, a registration-time lookup miss, or an InternalError
// outcome surfacing from a test body) are never recoverable and never
// reported as a test outcome. They short-circuit straight to a banner
// on stderr and a non-zero exit, distinct from ordinary wrapped
// errors that a caller might recover from.
package internalerror

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Error marks a condition that must abort the entire run. It is never
// handled, only logged and converted into a process exit.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

// New builds an internal error with a formatted message.
func New(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

var exit = os.Exit // overridable for tests

// SetExitForTest swaps the process-exit hook Abort calls, returning a
// function that restores the previous hook. Tests that need to
// observe an abort without killing the test binary install a hook
// that panics instead of exiting, then recover() around the call.
func SetExitForTest(f func(int)) (restore func()) {
	prev := exit
	exit = f
	return func() { exit = prev }
}

// Abort logs err (if a logger is available) and terminates the
// process with a non-zero exit code. It never returns.
//
// logger may be nil (e.g. during early startup before logging is
// configured); in that case the banner still goes to stderr.
func Abort(logger *zap.Logger, err error) {
	if logger != nil {
		logger.Error("internal error: aborting run", zap.Error(err))
	}
	fmt.Fprintln(os.Stderr, "=== INTERNAL GRADER ERROR ===")
	fmt.Fprintln(os.Stderr, err.Error())
	fmt.Fprintln(os.Stderr, "This is a bug in the grading infrastructure, not your submission.")
	exit(1)
}
