// Package driver walks a registry, runs every case through an isolate
// runner, and folds the results into a result tree. It implements the
// grader's two program modes: counting total possible points, and
// running the whole suite to produce a report.
package driver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stanford-cs106/grader/internal/internalerror"
	"github.com/stanford-cs106/grader/internal/outcome"
	"github.com/stanford-cs106/grader/internal/registry"
	"github.com/stanford-cs106/grader/internal/resulttree"
)

// CaseRunner executes one test case in isolation. *isolate.Runner is
// the production implementation; tests substitute a fake to exercise
// the driver's tree-walk and aggregation logic without spawning real
// processes.
type CaseRunner interface {
	Run(ctx context.Context, scopePath []string, deadline time.Duration) (outcome.Outcome, string)
}

// Driver runs a frozen registry against an isolate runner.
type Driver struct {
	Registry   *registry.Registry
	Runner     CaseRunner
	Logger     *zap.Logger
	Deadline   time.Duration
	MissingSet map[string]struct{} // required files the submission lacked; nil disables gating
}

// New constructs a Driver. missingFiles names the required files the
// invoker's missing-list file said were absent from the submission;
// any group requiring one of them short-circuits to a
// MissingFileResult. A nil slice means no missing-list was supplied
// at all (count-points mode, or a run with nothing to gate on); a
// non-nil, possibly-empty slice enables gating with that exact set.
func New(reg *registry.Registry, runner CaseRunner, logger *zap.Logger, deadline time.Duration, missingFiles []string) *Driver {
	var set map[string]struct{}
	if missingFiles != nil {
		set = make(map[string]struct{}, len(missingFiles))
		for _, f := range missingFiles {
			set[f] = struct{}{}
		}
	}
	return &Driver{Registry: reg, Runner: runner, Logger: logger, Deadline: deadline, MissingSet: set}
}

// CountPoints sums the point value of every top-level node. It never
// runs a single test.
func (d *Driver) CountPoints() outcome.Points {
	var total outcome.Points
	for _, node := range d.Registry.AllTopLevel() {
		total += node.PointsPossible()
	}
	return total
}

// RunAll runs every top-level node to completion and returns one
// result per node, in the registry's name-sorted order.
func (d *Driver) RunAll(ctx context.Context) []resulttree.Result {
	top := d.Registry.AllTopLevel()
	results := make([]resulttree.Result, 0, len(top))
	for _, node := range top {
		results = append(results, d.run(ctx, node, nil))
	}
	return results
}

// run dispatches on the node's dynamic type: a Case runs through the
// isolate runner; a Group either short-circuits to MissingFileResult
// (if any required file is absent) or recurses into its children and
// aggregates.
func (d *Driver) run(ctx context.Context, node registry.Node, scopePath []string) resulttree.Result {
	path := append(append([]string{}, scopePath...), node.Name())

	switch n := node.(type) {
	case *registry.Case:
		o, message := d.Runner.Run(ctx, path, d.Deadline)
		if o == outcome.InternalError {
			internalerror.Abort(d.Logger, internalerror.New("test case %v reported an internal error: %s", path, message))
		}
		d.logOutcome(path, o)
		return resulttree.NewSingleResult(o, message, n.PointsPossible(), n.Name())
	case *registry.Group:
		return d.runGroup(ctx, n, path)
	default:
		internalerror.Abort(d.Logger, internalerror.New("unrecognized registry node type for %v", path))
		return nil // unreachable; Abort never returns
	}
}

func (d *Driver) runGroup(ctx context.Context, g *registry.Group, path []string) resulttree.Result {
	for _, required := range g.RequiredFiles() {
		if !d.fileSubmitted(required) {
			return resulttree.NewMissingFileResult(g.PointsPossible(), g.Name())
		}
	}

	children := g.Children()
	childResults := make([]resulttree.Result, 0, len(children))
	var total outcome.Score
	for _, child := range children {
		r := d.run(ctx, child, path)
		childResults = append(childResults, r)
		total = total.Add(r.Score())
	}

	scaled := d.scaleIfCapped(g, total)

	if g.Visibility() == registry.Public {
		return resulttree.NewPublicGroupResult(scaled, g.Name(), childResults)
	}
	return resulttree.NewPrivateGroupResult(scaled, g.Name(), childResults)
}

// scaleIfCapped rescales the raw child total against the group's
// fixed point cap, if it has one. A group with no cap has a
// PointsPossible equal to the plain child sum, so the raw total
// passes through untouched.
func (d *Driver) scaleIfCapped(g *registry.Group, raw outcome.Score) outcome.Score {
	possible := g.PointsPossible()
	if possible == raw.Possible {
		return raw
	}
	return raw.Scale(possible)
}

func (d *Driver) fileSubmitted(name string) bool {
	if d.MissingSet == nil {
		return true
	}
	_, missing := d.MissingSet[name]
	return !missing
}

func (d *Driver) logOutcome(path []string, o outcome.Outcome) {
	if d.Logger == nil {
		return
	}
	d.Logger.Debug("test case finished", zap.Strings("scope", path), zap.String("outcome", o.String()))
}
