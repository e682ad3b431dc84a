// Command grader is the reference autograder binary for this module:
// it registers the demonstration suite in internal/samplesuite and
// drives it through internal/driver, exposing two program modes
// (count possible points; run everything and emit a JSON report)
// behind a cobra CLI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stanford-cs106/grader/internal/config"
	"github.com/stanford-cs106/grader/internal/driver"
	"github.com/stanford-cs106/grader/internal/internalerror"
	"github.com/stanford-cs106/grader/internal/isolate"
	"github.com/stanford-cs106/grader/internal/logging"
	"github.com/stanford-cs106/grader/internal/registry"
	"github.com/stanford-cs106/grader/internal/report"
	"github.com/stanford-cs106/grader/internal/samplesuite"
)

func main() {
	samplesuite.Register(registry.Global())

	if handledIsolateChild(os.Args[1:]) {
		return
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// handledIsolateChild recognizes the hidden re-exec flag before cobra
// ever parses argv: cobra's flag parser has no notion of
// isolate.IsolateFlag, and a test case's own re-executed process must
// never be routed through the ordinary CLI surface. Returns true if
// this process was such a child (in which case isolate.RunChild has
// already called os.Exit and this return value is unreachable in
// practice, but is still useful to keep main()'s control flow
// explicit and testable).
func handledIsolateChild(args []string) bool {
	for i, a := range args {
		if a != isolate.IsolateFlag {
			continue
		}
		scopePath := args[i+1:]
		reg := registry.Global()
		reg.Freeze()
		node := reg.Find(scopePath)
		c, ok := node.(*registry.Case)
		if !ok {
			fmt.Fprintf(os.Stderr, "isolate target %v does not resolve to a test case\n", scopePath)
			os.Exit(1)
		}
		isolate.RunChild(c.Body())
		return true
	}
	return false
}

var (
	flagVerbose     bool
	flagOutputPath  string
	flagMissingPath string
	flagConfigPath  string
	flagCountOnly   bool
)

func rootCmd() *cobra.Command {
	var logger *zap.Logger

	cmd := &cobra.Command{
		Use:   "grader",
		Short: "Runs a registered test suite in per-case process isolation and emits a Gradescope-style JSON report.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(flagVerbose)
			return err
		},
		// Bare invocation supports `grader --count-points` and
		// `grader -o <path> -m <missing-list-path>` directly; the
		// `run`/`count-points` subcommands below are a more
		// discoverable alias for the same two modes.
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagCountOnly {
				return runCountPoints(logger)
			}
			if flagOutputPath == "" {
				return fmt.Errorf("no mode selected: pass --count-points, or -o <path> to run the suite")
			}
			missing, err := readMissingFiles(flagMissingPath)
			if err != nil {
				internalerror.Abort(logger, internalerror.New("cannot read missing-files list %q: %v", flagMissingPath, err))
			}
			return runAll(cmd.Context(), logger, flagOutputPath, flagConfigPath, missing)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug-level logging")
	cmd.Flags().BoolVar(&flagCountOnly, "count-points", false, "print the total points possible and exit")
	cmd.Flags().StringVarP(&flagOutputPath, "output", "o", "", "path to write the JSON report to")
	cmd.Flags().StringVarP(&flagMissingPath, "missing-files", "m", "", "path to a file listing missing submission files, one per line")
	cmd.Flags().StringVar(&flagConfigPath, "config", "", "path to an optional YAML config file")

	cmd.AddCommand(runCmd(&logger), countPointsCmd(&logger))
	return cmd
}

func runCmd(logger **zap.Logger) *cobra.Command {
	var outPath, missingPath, configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every registered test and write a JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			missing, err := readMissingFiles(missingPath)
			if err != nil {
				return fmt.Errorf("reading missing-files list %q: %w", missingPath, err)
			}
			return runAll(cmd.Context(), *logger, outPath, configPath, missing)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "path to write the JSON report to (required)")
	cmd.Flags().StringVarP(&missingPath, "missing-files", "m", "", "path to a file listing missing submission files, one per line")
	cmd.Flags().StringVar(&configPath, "config", "", "path to an optional YAML config file")
	cmd.MarkFlagRequired("output")
	return cmd
}

func countPointsCmd(logger **zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "count-points",
		Short: "Print the total number of points possible across the whole suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCountPoints(*logger)
		},
	}
}

func runCountPoints(logger *zap.Logger) error {
	reg := registry.Global()
	reg.Freeze()
	d := driver.New(reg, nil, logger, 0, nil)
	fmt.Println(d.CountPoints())
	return nil
}

func runAll(ctx context.Context, logger *zap.Logger, outPath, configPath string, missingFiles []string) error {
	if outPath == "" {
		return fmt.Errorf("an output path is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg := registry.Global()
	reg.Freeze()

	runID := uuid.New().String()
	driverLogger := logging.For(logger, logging.Driver, runID)
	runner := isolate.NewRunner(logging.For(logger, logging.Isolate, runID))

	d := driver.New(reg, runner, driverLogger, cfg.Deadline, missingFiles)

	results := d.RunAll(ctx)
	rep := report.Build(results, missingFiles)

	out, err := os.Create(outPath)
	if err != nil {
		internalerror.Abort(logger, internalerror.New("cannot open %q for writing: %v", outPath, err))
	}
	defer out.Close()

	if err := report.Encode(out, rep); err != nil {
		internalerror.Abort(logger, internalerror.New("cannot write report to %q: %v", outPath, err))
	}

	fmt.Printf("Wrote report to %s (score %d)\n", outPath, rep.Score)
	return nil
}

// readMissingFiles parses the missing-files list: one filename per
// line, no escaping. A path of "" means no list was supplied at all;
// driver.New's nil contract then treats every required file as
// present. A supplied path that does not exist is treated as an
// explicitly empty (non-nil) list, so required-file gating is still
// active but finds nothing missing.
func readMissingFiles(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
