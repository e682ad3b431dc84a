// Package resulttree implements the polymorphic result nodes produced
// by a run: SingleResult, PublicGroupResult, PrivateGroupResult, and
// MissingFileResult, each with its own aggregation and redaction
// rules. Group nodes store a score the driver has already summed and,
// for a capped group, scaled. The variant set is closed (an interface with
// an unexported sealing method): report rendering dispatches on these
// four shapes and no others.
package resulttree

import (
	"fmt"
	"strings"

	"github.com/stanford-cs106/grader/internal/outcome"
)

// redactedPrivateFailure is the fixed opaque string a private group's
// failed-name set collapses to. Never leaks which child, or how many,
// failed.
const redactedPrivateFailure = "(at least one private test case)"

// missingFilesFailure is the fixed failed-name placeholder for a
// short-circuited group.
const missingFilesFailure = "(tests not run; not all needed files submitted)"

// Result is the closed set of result-tree node variants.
type Result interface {
	// Name is the node's test/group name.
	Name() string
	// Score is this node's earned/possible point pair.
	Score() outcome.Score
	// TestsPassed and NumTests report the leaf-test pass count this
	// node aggregates, for the summary line of a group.
	TestsPassed() int
	NumTests() int
	// DisplayText is the student-facing report text for this node.
	DisplayText() string
	// FailedNames reports the (possibly redacted) names of failed
	// leaves under this node.
	FailedNames() []string

	sealed()
}

// SingleResult is the result of running one Case.
type SingleResult struct {
	outcomeVal outcome.Outcome
	message    string
	possible   outcome.Points
	name       string
}

// NewSingleResult constructs the result of one test case's execution.
func NewSingleResult(o outcome.Outcome, message string, possible outcome.Points, name string) *SingleResult {
	return &SingleResult{outcomeVal: o, message: message, possible: possible, name: name}
}

func (*SingleResult) sealed()        {}
func (r *SingleResult) Name() string { return r.name }

func (r *SingleResult) Score() outcome.Score {
	if r.outcomeVal == outcome.Pass {
		return outcome.Score{Earned: r.possible, Possible: r.possible}
	}
	return outcome.Score{Earned: 0, Possible: r.possible}
}

func (r *SingleResult) TestsPassed() int {
	if r.outcomeVal == outcome.Pass {
		return 1
	}
	return 0
}

func (r *SingleResult) NumTests() int { return 1 }

func (r *SingleResult) reasonPhrase() string {
	if r.outcomeVal == outcome.VisibleFail {
		return r.message
	}
	return r.outcomeVal.ShortPhrase()
}

// DisplayText pluralizes on the test count, not the pass count: a
// single case always has one test, so it reads "1 / 1 Test Passed."
// or "0 / 1 Test Passed.", singular in both branches.
func (r *SingleResult) DisplayText() string {
	if r.outcomeVal == outcome.Pass {
		return "1 / 1 Test Passed."
	}
	return fmt.Sprintf("0 / 1 Test Passed.\n  (%s)", r.reasonPhrase())
}

func (r *SingleResult) FailedNames() []string {
	if r.outcomeVal == outcome.Pass {
		return nil
	}
	return []string{fmt.Sprintf("%s (%s)", r.name, r.reasonPhrase())}
}

// groupTotals computes the shared tests-passed/num-tests aggregation
// used by both group variants.
func groupTotals(children []Result) (passed, total int) {
	for _, c := range children {
		passed += c.TestsPassed()
		total += c.NumTests()
	}
	return passed, total
}

// PublicGroupResult is the result of running a public Group: child
// failures may be named.
type PublicGroupResult struct {
	score    outcome.Score
	name     string
	children []Result
}

// NewPublicGroupResult constructs the public-visibility result node.
// score is the group's already-aggregated (and, if capped, already
// scaled) total.
func NewPublicGroupResult(score outcome.Score, name string, children []Result) *PublicGroupResult {
	return &PublicGroupResult{score: score, name: name, children: children}
}

func (*PublicGroupResult) sealed()        {}
func (g *PublicGroupResult) Name() string { return g.name }

func (g *PublicGroupResult) Score() outcome.Score {
	return g.score
}

func (g *PublicGroupResult) TestsPassed() int { passed, _ := groupTotals(g.children); return passed }
func (g *PublicGroupResult) NumTests() int    { _, total := groupTotals(g.children); return total }

func (g *PublicGroupResult) DisplayText() string {
	passed, total := groupTotals(g.children)
	var b strings.Builder
	fmt.Fprintf(&b, "%d / %d Test%s Passed.\n", passed, total, plural(total))
	failed := g.FailedNames()
	if len(failed) > 0 {
		b.WriteString("Tests that didn't pass:\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	return b.String()
}

func (g *PublicGroupResult) FailedNames() []string {
	var out []string
	for _, c := range g.children {
		out = append(out, c.FailedNames()...)
	}
	return out
}

// PrivateGroupResult is the result of running a private Group: child
// names and messages are redacted. That includes a VisibleFail
// message from a private child; the group's privacy outranks the
// case's own visibility choice.
type PrivateGroupResult struct {
	score    outcome.Score
	name     string
	children []Result
}

// NewPrivateGroupResult is the private-visibility counterpart of
// NewPublicGroupResult.
func NewPrivateGroupResult(score outcome.Score, name string, children []Result) *PrivateGroupResult {
	return &PrivateGroupResult{score: score, name: name, children: children}
}

func (*PrivateGroupResult) sealed()        {}
func (g *PrivateGroupResult) Name() string { return g.name }

func (g *PrivateGroupResult) Score() outcome.Score {
	return g.score
}

func (g *PrivateGroupResult) TestsPassed() int { passed, _ := groupTotals(g.children); return passed }
func (g *PrivateGroupResult) NumTests() int    { _, total := groupTotals(g.children); return total }

func (g *PrivateGroupResult) DisplayText() string {
	passed, total := groupTotals(g.children)
	return fmt.Sprintf("%d / %d Test%s Passed.", passed, total, plural(total))
}

// FailedNames never leaks which, or how many, children failed: 0
// elements if every child passed, else exactly the one fixed opaque
// string.
func (g *PrivateGroupResult) FailedNames() []string {
	for _, c := range g.children {
		if len(c.FailedNames()) > 0 {
			return []string{redactedPrivateFailure}
		}
	}
	return nil
}

// MissingFileResult is returned when a group's required files were
// not submitted; no child body was ever executed.
type MissingFileResult struct {
	possible outcome.Points
	name     string
}

// NewMissingFileResult constructs the short-circuit placeholder for a
// group whose prerequisites were not met.
func NewMissingFileResult(possible outcome.Points, name string) *MissingFileResult {
	return &MissingFileResult{possible: possible, name: name}
}

func (*MissingFileResult) sealed()        {}
func (m *MissingFileResult) Name() string { return m.name }

func (m *MissingFileResult) Score() outcome.Score {
	return outcome.Score{Earned: 0, Possible: m.possible}
}

func (m *MissingFileResult) TestsPassed() int { return 0 }
func (m *MissingFileResult) NumTests() int    { return 0 }

func (m *MissingFileResult) DisplayText() string {
	return "Tests not run; not all necessary files were submitted."
}

func (m *MissingFileResult) FailedNames() []string {
	return []string{missingFilesFailure}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
