// Package testkit provides the assertion primitives test bodies call
// to signal how they ended. Each is an exceptional control transfer:
// it never returns to its caller. A body that returns normally is
// treated as Pass by the harness that invokes it (see
// internal/isolate).
package testkit

import (
	"fmt"

	"github.com/stanford-cs106/grader/internal/outcome"
)

// signal is the payload carried by the panic that unwinds a test
// body. It is unexported so that only this package can construct one.
// Any other panic value is an unrecognized exceptional control
// transfer and is classified outcome.Exception by the harness.
type signal struct {
	outcome outcome.Outcome
	message string
}

// Recover inspects a recovered panic value. ok is true if v is a
// signal raised by one of this package's primitives; message holds the
// reason given to FailTest, FailTestVisibly, or InternalErrorf (empty
// for PassTest).
func Recover(v any) (o outcome.Outcome, message string, ok bool) {
	s, ok := v.(signal)
	if !ok {
		return 0, "", false
	}
	return s.outcome, s.message, true
}

// PassTest terminates the calling test body immediately with outcome
// Pass.
func PassTest() {
	panic(signal{outcome: outcome.Pass})
}

// FailTest terminates the calling test body with outcome Fail. reason
// is logged for graders only; it is never shown to the student.
func FailTest(reason string) {
	panic(signal{outcome: outcome.Fail, message: reason})
}

// FailTestf is FailTest with fmt.Sprintf-style formatting.
func FailTestf(format string, args ...any) {
	FailTest(fmt.Sprintf(format, args...))
}

// FailTestVisibly terminates the calling test body with outcome
// VisibleFail. reason is propagated to the student verbatim (subject
// to the group's visibility, see internal/resulttree).
func FailTestVisibly(reason string) {
	panic(signal{outcome: outcome.VisibleFail, message: reason})
}

// FailTestVisiblyf is FailTestVisibly with fmt.Sprintf-style formatting.
func FailTestVisiblyf(format string, args ...any) {
	FailTestVisibly(fmt.Sprintf(format, args...))
}

// Expect fails the test (as FailTest) if cond is false. exprText
// should be the stringified form of the condition the caller
// evaluated, and location a "file:line"-style source position; both
// are folded into the logged reason.
func Expect(cond bool, exprText, location string) {
	if cond {
		return
	}
	FailTest(fmt.Sprintf("expected true: %s (%s)", exprText, location))
}

// InternalErrorf terminates the calling test body with outcome
// InternalError, formatted like fmt.Sprintf. This is fatal to the
// whole run once it reaches the driver; see internal/internalerror.
func InternalErrorf(format string, args ...any) {
	panic(signal{outcome: outcome.InternalError, message: fmt.Sprintf(format, args...)})
}
