// Package logging wires up structured logging for the grader. The
// grader is a one-shot CLI with no persisted workspace to log into,
// so every log line goes to stderr for the invoking autograder
// harness to capture.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component names used as the "component" field across the grader.
const (
	Registry = "registry"
	Isolate  = "isolate"
	Driver   = "driver"
	Report   = "report"
)

// New builds the root logger. verbose raises the level to Debug;
// otherwise only Info and above are emitted. Output goes to stderr so
// stdout stays free for any diagnostic text the CLI itself writes.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// For returns a child logger scoped to one grader subsystem and run.
func For(base *zap.Logger, component string, runID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.With(zap.String("component", component), zap.String("run_id", runID))
}
