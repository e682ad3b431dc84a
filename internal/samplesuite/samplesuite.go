// Package samplesuite registers a small demonstration test suite
// exercising the shapes the grader handles: a passing public case, a
// silently-failing case, a case that calls FailTestVisibly on a
// condition that does not occur (so it passes), a crashing case, a
// timing-out case, a private group whose failures are redacted, a
// capped group, and a group gated on a required submitted file.
//
// A real grading repository replaces this package with its own test
// definitions, built against the same registry.Builder API. This
// package exists so the grader binary in this repository is itself a
// runnable, demonstrable autograder rather than a library with no
// wiring.
package samplesuite

import (
	"fmt"
	"time"

	"github.com/stanford-cs106/grader/internal/outcome"
	"github.com/stanford-cs106/grader/internal/registry"
	"github.com/stanford-cs106/grader/internal/testkit"
)

// Register installs the demonstration suite into reg. Calling it
// twice on the same registry aborts, via the registry's ordinary
// duplicate-name rule; callers should only call it once, typically
// from main() before the registry is frozen.
func Register(reg *registry.Registry) {
	reg.TopLevelGroup("Warmup", func(g *registry.Builder) {
		g.SetVisibility(true)
		g.Case("addition works", 2, func() {
			testkit.Expect(2+2 == 4, "2+2 == 4", "samplesuite/warmup.go:1")
		})
		g.Case("subtraction works", 2, func() {
			if 5-3 != 2 {
				testkit.FailTestVisibly("5 - 3 should be 2")
			}
			testkit.PassTest()
		})
	})

	reg.TopLevelGroup("EdgeCases", func(g *registry.Builder) {
		g.SetVisibility(true)
		g.Case("division by zero is rejected", 3, func() {
			defer func() {
				if recover() == nil {
					testkit.FailTest("expected a panic dividing by zero")
				} else {
					testkit.PassTest()
				}
			}()
			safeDivide(1, 0)
		})
		g.Case("always crashes", 1, func() {
			// A nil dereference on another goroutine is a panic the
			// isolate's harness cannot recover, so the child dies
			// without writing an outcome byte and the isolate reports
			// Crash, without hanging the suite.
			done := make(chan struct{})
			go func() {
				var p *int
				_ = *p
				close(done)
			}()
			<-done
		})
		g.Case("always hangs", 1, func() {
			time.Sleep(10 * time.Minute)
		})
	})

	reg.TopLevelGroup("HiddenLogic", func(g *registry.Builder) {
		// Private by default: failures here are redacted in the report.
		g.Case("internal invariant holds", 5, func() {
			if !checkInvariant() {
				testkit.FailTest("invariant check failed (details withheld from students)")
			}
			testkit.PassTest()
		})
	})

	reg.TopLevelGroup("RequiresSubmission", func(g *registry.Builder) {
		g.SetVisibility(true)
		g.AddRequiredFile("PriorityQueue.cpp")
		g.Case("priority queue orders correctly", 10, func() {
			testkit.PassTest()
		})
	})

	reg.TopLevelGroup("CappedGroup", func(g *registry.Builder) {
		g.SetVisibility(true)
		g.SetPointsCap(10)
		g.Case("case a", 3, func() { testkit.PassTest() })
		g.Case("case b", 3, func() { testkit.PassTest() })
		g.Case("case c", 3, func() { testkit.FailTest("intentional sample failure") })
	})
}

func safeDivide(a, b int) int {
	if b == 0 {
		panic(fmt.Sprintf("division by zero: %d/%d", a, b))
	}
	return a / b
}

func checkInvariant() bool {
	return outcome.DetermineAutomatically < 0
}
