package isolate

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/stanford-cs106/grader/internal/outcome"
)

// TestMain checks for goroutine leaks across the whole package; the
// runner spawns processes, pipes, and timers on every call, and none
// of them may outlive it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *zap.Logger { return zap.NewNop() }

func TestClassifyDecodesPassOutcome(t *testing.T) {
	r := &Runner{}
	mask := byte(0x5A)
	data := []byte{byte(outcome.Pass) ^ mask}
	o, msg := r.classify(testLogger(), nil, data, nil, nil, mask)
	assert.Equal(t, outcome.Pass, o)
	assert.Empty(t, msg)
}

func TestClassifyDecodesVisibleFailMessage(t *testing.T) {
	r := &Runner{}
	mask := byte(0x11)
	payload := append([]byte{byte(outcome.VisibleFail) ^ mask}, []byte("expected 4, got 5")...)
	o, msg := r.classify(testLogger(), nil, payload, nil, nil, mask)
	assert.Equal(t, outcome.VisibleFail, o)
	assert.Equal(t, "expected 4, got 5", msg)
}

func TestClassifyEmptyPayloadIsCrash(t *testing.T) {
	r := &Runner{}
	o, msg := r.classify(testLogger(), nil, nil, nil, nil, 0x00)
	assert.Equal(t, outcome.Crash, o)
	assert.Empty(t, msg)
}

func TestClassifyUndecodableByteIsCrash(t *testing.T) {
	r := &Runner{}
	mask := byte(0x00)
	// With a zero mask, 200 decodes to 200, outside the valid outcome
	// range.
	o, _ := r.classify(testLogger(), nil, []byte{200}, nil, nil, mask)
	assert.Equal(t, outcome.Crash, o)
}

func TestClassifyReadErrorIsCrash(t *testing.T) {
	r := &Runner{}
	o, _ := r.classify(testLogger(), nil, nil, assert.AnError, nil, 0)
	assert.Equal(t, outcome.Crash, o)
}

// writeScript drops an executable shell script into a fresh temp
// directory standing in for a compiled grader binary's isolate-child
// mode, so Run's parent-side plumbing (pipe, ExtraFiles, deadline
// select, reaping) can be exercised without invoking the Go
// toolchain.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available in test environment")
	}
	path := filepath.Join(t.TempDir(), "child.sh")
	contents := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o755))
	return path
}

func TestRunAgainstRealProcessCompletesBeforeDeadline(t *testing.T) {
	// Writes outcome.Pass masked with 0, i.e. a single zero byte, to
	// fd 3 and exits cleanly.
	script := writeScript(t, `printf '\000' >&3`)
	r := &Runner{ExecutablePath: script, Logger: testLogger()}

	o, msg := r.Run(context.Background(), []string{"case"}, time.Second)
	// The real mask is drawn internally by Run via crypto/rand, so the
	// script's fixed zero byte decodes to the mask itself (Crash when
	// the mask is not a valid outcome value). Only
	// the pipe/process plumbing is under test here, not the value;
	// assert it completed without an internal abort and without
	// hanging or crashing the harness.
	assert.NotEqual(t, outcome.Timeout, o)
	_ = msg
}

func TestRunTimesOutOnHangingChild(t *testing.T) {
	script := writeScript(t, `sleep 5`)
	r := &Runner{ExecutablePath: script, Logger: testLogger()}

	o, msg := r.Run(context.Background(), []string{"hangs"}, 50*time.Millisecond)
	assert.Equal(t, outcome.Timeout, o)
	assert.Empty(t, msg)
}

func TestRunTreatsSilentExitAsCrash(t *testing.T) {
	// Exits immediately without ever writing to fd 3.
	script := writeScript(t, `exit 0`)
	r := &Runner{ExecutablePath: script, Logger: testLogger()}

	o, _ := r.Run(context.Background(), []string{"noop"}, time.Second)
	assert.Equal(t, outcome.Crash, o)
}

func TestRunTreatsAbnormalExitAsCrash(t *testing.T) {
	// Killing itself with SIGKILL before writing anything: the
	// classic "crashed" case.
	script := writeScript(t, `kill -9 $$`)
	r := &Runner{ExecutablePath: script, Logger: testLogger()}

	o, _ := r.Run(context.Background(), []string{"self-kill"}, time.Second)
	assert.Equal(t, outcome.Crash, o)
}
