package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stanford-cs106/grader/internal/outcome"
)

func recoverOutcome(t *testing.T, body func()) (o outcome.Outcome, msg string, ok bool) {
	t.Helper()
	func() {
		defer func() {
			o, msg, ok = Recover(recover())
		}()
		body()
	}()
	return
}

func TestPassTestSignalsPass(t *testing.T) {
	o, _, ok := recoverOutcome(t, PassTest)
	assert.True(t, ok)
	assert.Equal(t, outcome.Pass, o)
}

func TestFailTestCarriesReasonForGradersOnly(t *testing.T) {
	o, msg, ok := recoverOutcome(t, func() { FailTest("internal reason") })
	assert.True(t, ok)
	assert.Equal(t, outcome.Fail, o)
	assert.Equal(t, "internal reason", msg)
}

func TestFailTestVisiblyCarriesMessageVerbatim(t *testing.T) {
	o, msg, ok := recoverOutcome(t, func() { FailTestVisibly("expected 4, got 5") })
	assert.True(t, ok)
	assert.Equal(t, outcome.VisibleFail, o)
	assert.Equal(t, "expected 4, got 5", msg)
}

func TestExpectPassesWhenConditionTrue(t *testing.T) {
	assert.NotPanics(t, func() { Expect(true, "1 == 1", "test.go:1") })
}

func TestExpectFailsWhenConditionFalse(t *testing.T) {
	o, msg, ok := recoverOutcome(t, func() { Expect(false, "1 == 2", "test.go:2") })
	assert.True(t, ok)
	assert.Equal(t, outcome.Fail, o)
	assert.Contains(t, msg, "1 == 2")
}

func TestInternalErrorfFormats(t *testing.T) {
	o, msg, ok := recoverOutcome(t, func() { InternalErrorf("cannot open %s", "file.txt") })
	assert.True(t, ok)
	assert.Equal(t, outcome.InternalError, o)
	assert.Equal(t, "cannot open file.txt", msg)
}

func TestRecoverRejectsForeignPanic(t *testing.T) {
	_, _, ok := recoverOutcome(t, func() { panic("some other panic") })
	assert.False(t, ok)
}
