// Package isolate runs one opaque test body in a child process so
// that the parent is immune to every pathological thing the body can
// do (crash, hang, abort, raise an unrecognized panic) and still
// recovers a trustworthy (Outcome, message) pair.
//
// Go cannot call a bare fork() and keep running: the runtime's
// goroutine scheduler, GC, and timers do not survive a raw fork
// without an immediate exec. The parent instead re-execs its own
// binary with a hidden flag identifying which case to run, and one
// inherited pipe (via exec.Cmd.ExtraFiles) carrying the write end of
// the outcome channel.
package isolate

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/stanford-cs106/grader/internal/internalerror"
	"github.com/stanford-cs106/grader/internal/outcome"
	"github.com/stanford-cs106/grader/internal/testkit"
)

// DefaultDeadline is the wall-clock timeout applied to each test when
// no override is configured.
const DefaultDeadline = 60 * time.Second

// IsolateFlag is the hidden flag the grader binary recognizes to
// switch into isolate-child mode. A real invocation never passes this
// on the command line; only the Runner does, when it re-execs itself.
const IsolateFlag = "--grader-isolate-case"

// maskEnvVar carries the XOR mask from parent to child. With a true
// fork the child would simply inherit the parent's copy of the mask
// from shared memory; re-exec loses that inheritance, so the mask
// crosses via the environment instead. The child never sees it
// before exec, so a test body cannot read it ahead of time and forge
// an outcome byte.
const maskEnvVar = "GRADER_ISOLATE_MASK"

// outcomeFD is the file descriptor the child finds its end of the
// outcome pipe on: 0, 1, 2 are stdin/stdout/stderr, so the first
// (and only) entry in ExtraFiles lands on fd 3.
const outcomeFD = 3

// Runner executes test bodies in isolate children.
type Runner struct {
	// ExecutablePath is the path to re-exec. Defaults to
	// os.Executable() if empty.
	ExecutablePath string
	Logger         *zap.Logger
}

// NewRunner constructs a Runner, resolving the current executable's
// path once up front. Failure to resolve it is fatal: without it no
// isolate can ever be spawned.
func NewRunner(logger *zap.Logger) *Runner {
	exePath, err := os.Executable()
	if err != nil {
		internalerror.Abort(logger, internalerror.New("cannot resolve own executable path: %v", err))
	}
	return &Runner{ExecutablePath: exePath, Logger: logger}
}

// Run executes the case named by scopePath in a fresh isolate child,
// enforcing deadline as a hard wall-clock timeout. The returned
// message is empty unless the outcome is VisibleFail or
// InternalError (whose reason the driver quotes when it aborts).
// Failures to create the pipe, spawn the child, or reap it abort the
// whole run via internalerror; there are no retries.
func (r *Runner) Run(ctx context.Context, scopePath []string, deadline time.Duration) (outcome.Outcome, string) {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	mask, err := randomMask()
	if err != nil {
		internalerror.Abort(log, internalerror.New("cannot draw random XOR mask: %v", err))
	}

	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		internalerror.Abort(log, internalerror.New("cannot create outcome pipe: %v", err))
	}

	args := append([]string{IsolateFlag}, scopePath...)
	cmd := exec.Command(r.ExecutablePath, args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", maskEnvVar, mask))
	cmd.ExtraFiles = []*os.File{writeEnd}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		writeEnd.Close()
		readEnd.Close()
		internalerror.Abort(log, internalerror.New("cannot spawn isolate for %v: %v", scopePath, err))
	}

	// Parent closes its copy of the write end: the child (or its
	// exit) is now the only thing keeping the pipe open, so a read
	// from readEnd will see EOF exactly when the child is gone.
	writeEnd.Close()
	defer readEnd.Close()

	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(readEnd)
		done <- readResult{data: data, err: err}
	}()

	// reap waits for the child. A non-zero exit or a signal is the
	// child's own business; any other wait failure is fatal.
	reap := func() error {
		err := cmd.Wait()
		if _, exited := err.(*exec.ExitError); err != nil && !exited {
			internalerror.Abort(log, internalerror.New("cannot reap isolate for %v: %v", scopePath, err))
		}
		return err
	}

	deadlineTimer := time.NewTimer(deadline)
	defer deadlineTimer.Stop()

	select {
	case <-deadlineTimer.C:
		_ = cmd.Process.Kill()
		<-done // the kill forces EOF; drain the reader goroutine
		_ = reap()
		log.Warn("isolate timed out", zap.Strings("scope", scopePath), zap.Duration("deadline", deadline))
		return outcome.Timeout, ""
	case res := <-done:
		waitErr := reap()
		return r.classify(log, scopePath, res.data, res.err, waitErr, mask)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		_ = reap()
		return outcome.Timeout, ""
	}
}

// classify decodes the bytes read from the pipe into an Outcome and
// message. Zero bytes, an undecodable first byte, or a read error all
// mean the child never legitimately reported, i.e. Crash. For
// non-benign outcomes the signal that killed the child, if any, is
// logged.
func (r *Runner) classify(log *zap.Logger, scopePath []string, data []byte, readErr, waitErr error, mask byte) (outcome.Outcome, string) {
	if readErr != nil {
		log.Debug("isolate pipe read error, treating as crash", zap.Error(readErr))
		return outcome.Crash, ""
	}
	if len(data) == 0 {
		logSignalIfAbnormal(log, waitErr, outcome.Crash)
		return outcome.Crash, ""
	}

	o, ok := outcome.FromByte(data[0] ^ mask)
	if !ok {
		log.Debug("isolate emitted an undecodable outcome byte, treating as crash", zap.Strings("scope", scopePath))
		return outcome.Crash, ""
	}
	message := string(data[1:])

	switch o {
	case outcome.Pass, outcome.Fail, outcome.VisibleFail, outcome.Exception:
		// benign; nothing further to log
	default:
		logSignalIfAbnormal(log, waitErr, o)
	}

	return o, message
}

func logSignalIfAbnormal(log *zap.Logger, waitErr error, o outcome.Outcome) {
	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok || exitErr == nil {
		return
	}
	if ws, ok := exitErr.Sys().(interface{ Signaled() bool }); ok && ws.Signaled() {
		log.Info("isolate child terminated by signal", zap.String("outcome", o.String()), zap.String("wait_status", exitErr.String()))
	}
}

func randomMask() (byte, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// RunChild is invoked by the grader binary's own main() when it
// detects IsolateFlag on its argv: it is the isolate child's entire
// job. body is the resolved test case's action, recovered from the
// registry by the caller using the scope path carried in argv.
//
// RunChild never returns: on success it exits 0 after flushing the
// outcome byte and message. If it cannot write its result at all,
// that surfaces to the parent as a missing outcome byte, which the
// parent treats as Crash: indistinguishable from a real crash, which
// is the safe direction under the threat model.
func RunChild(body func()) {
	maskStr := os.Getenv(maskEnvVar)
	var maskVal int
	fmt.Sscanf(maskStr, "%d", &maskVal)
	mask := byte(maskVal)

	o, message := evaluate(body)

	pipe := os.NewFile(outcomeFD, "outcome-pipe")
	if pipe == nil {
		os.Exit(1)
	}

	payload := append([]byte{byte(o) ^ mask}, []byte(message)...)
	writeFully(pipe, payload)
	pipe.Close()
	os.Exit(0)
}

// evaluate runs body and classifies how it ended. VisibleFail carries
// its message back through the pipe, and so does InternalError (whose
// reason is also printed to the shared stderr); a plain Fail's reason
// is for graders and goes only to the shared stderr, as does the text
// of an unrecognized panic.
func evaluate(body func()) (o outcome.Outcome, message string) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if sigOutcome, msg, ok := testkit.Recover(v); ok {
			o, message = sigOutcome, msg
			switch o {
			case outcome.Fail:
				fmt.Fprintf(os.Stderr, "  Fail: %s\n", message)
				message = ""
			case outcome.InternalError:
				fmt.Fprintf(os.Stderr, "  Internal error: %s\n", message)
			}
			return
		}
		// Any other panic is an unrecognized exceptional control
		// transfer.
		o = outcome.Exception
		detail := fmt.Sprint(v)
		if err, ok := v.(error); ok {
			detail = err.Error()
		}
		fmt.Fprintf(os.Stderr, "  Exception: %s\n", detail)
	}()
	body()
	return outcome.Pass, ""
}

// writeFully loops until buf is completely flushed, retrying partial
// writes.
func writeFully(w io.Writer, buf []byte) {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return
		}
		buf = buf[n:]
	}
}
