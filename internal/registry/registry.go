// Package registry implements the hierarchical, statically-constructed
// test tree: a single root group, named groups and cases nested under
// it, with per-group visibility, optional point caps, and optional
// required-file prerequisites. The tree is write-once: all
// registration completes before the first run, a duplicate name is a
// bug in the suite, not a runtime error.
package registry

import (
	"sort"
	"sync"

	"github.com/stanford-cs106/grader/internal/internalerror"
	"github.com/stanford-cs106/grader/internal/outcome"
)

// Visibility controls whether a group's failures may be named in the
// student-visible report.
type Visibility int

const (
	// Private is the default: child failures are redacted.
	Private Visibility = iota
	Public
)

// Node is either a *Case or a *Group. It is a closed, two-variant
// type: external packages cannot implement it (the unexported method
// seals it).
type Node interface {
	Name() string
	// PointsPossible returns this node's maximum score: a case's
	// fixed point value, or a group's cap (if set) or the recursive
	// sum of its children's PointsPossible.
	PointsPossible() outcome.Points
	sealed()
}

// Case is a single leaf test.
type Case struct {
	name   string
	points outcome.Points
	body   func()
}

// NewCase constructs a leaf test case. points must be a concrete,
// non-negative value; constructing one with
// outcome.DetermineAutomatically is an internal error.
func NewCase(name string, points outcome.Points, body func()) *Case {
	if points == outcome.DetermineAutomatically {
		internalerror.Abort(nil, internalerror.New(
			"case %q: points cannot be DetermineAutomatically", name))
	}
	if points < 0 {
		internalerror.Abort(nil, internalerror.New("case %q: negative points %d", name, points))
	}
	return &Case{name: name, points: points, body: body}
}

func (c *Case) Name() string                   { return c.name }
func (c *Case) PointsPossible() outcome.Points { return c.points }
func (c *Case) Body() func()                   { return c.body }
func (*Case) sealed()                          {}

// Group is an ordered-by-name collection of named children.
type Group struct {
	mu            sync.RWMutex
	name          string
	children      map[string]Node
	pointsCap     outcome.Points
	visibility    Visibility
	requiredFiles map[string]struct{}
	frozen        bool
}

// NewGroup constructs an empty group. Its points are
// DetermineAutomatically (sum of children) until SetPointsCap is
// called, and it is Private until SetVisibility is called.
func NewGroup(name string) *Group {
	return &Group{
		name:          name,
		children:      make(map[string]Node),
		pointsCap:     outcome.DetermineAutomatically,
		visibility:    Private,
		requiredFiles: make(map[string]struct{}),
	}
}

func (g *Group) Name() string { return g.name }
func (*Group) sealed()        {}

// PointsPossible returns the group's cap if set, else the sum of its
// children's PointsPossible, recursively.
func (g *Group) PointsPossible() outcome.Points {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.pointsCap != outcome.DetermineAutomatically {
		return g.pointsCap
	}
	var sum outcome.Points
	for _, child := range g.children {
		sum += child.PointsPossible()
	}
	return sum
}

// Visibility reports the group's current visibility.
func (g *Group) Visibility() Visibility {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.visibility
}

// RequiredFiles returns a copy of the group's required-file set.
func (g *Group) RequiredFiles() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.requiredFiles))
	for f := range g.requiredFiles {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Children returns the group's children, sorted by name for
// deterministic iteration order.
func (g *Group) Children() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.children))
	for n := range g.children {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Node, len(names))
	for i, n := range names {
		out[i] = g.children[n]
	}
	return out
}

// AddChild installs node as an immediate child of g. Child names are
// unique within a group; registering a second child with the same
// name is an internal error.
func (g *Group) AddChild(node Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustBeMutable()
	if _, exists := g.children[node.Name()]; exists {
		internalerror.Abort(nil, internalerror.New(
			"group %q: duplicate child name %q", g.name, node.Name()))
	}
	g.children[node.Name()] = node
}

// SetVisibility sets whether failures under this group may be named
// in the student-visible report.
func (g *Group) SetVisibility(public bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustBeMutable()
	if public {
		g.visibility = Public
	} else {
		g.visibility = Private
	}
}

// AddRequiredFile marks name as a file the student must have
// submitted for this group's tests to run at all.
func (g *Group) AddRequiredFile(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustBeMutable()
	g.requiredFiles[name] = struct{}{}
}

// SetPointsCap fixes the group's total point value, overriding the
// default behavior of summing children.
func (g *Group) SetPointsCap(points outcome.Points) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustBeMutable()
	g.pointsCap = points
}

// freeze marks the group (and, recursively, every descendant group)
// immutable. Called once by the registry before the first run.
func (g *Group) freeze() {
	g.mu.Lock()
	g.frozen = true
	children := make([]Node, 0, len(g.children))
	for _, c := range g.children {
		children = append(children, c)
	}
	g.mu.Unlock()
	for _, c := range children {
		if sub, ok := c.(*Group); ok {
			sub.freeze()
		}
	}
}

// child looks up one immediate child by name.
func (g *Group) child(name string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.children[name]
	return n, ok
}

// mustBeMutable must be called with g.mu held.
func (g *Group) mustBeMutable() {
	if g.frozen {
		internalerror.Abort(nil, internalerror.New(
			"group %q: mutated after the registry was frozen for running", g.name))
	}
}

// Registry is the process-wide tree of groups and cases. It is
// lazily initialized on first use (via New or Global) and
// write-once-then-read: every mutation must complete before the
// first Freeze/run.
type Registry struct {
	root *Group
}

// New constructs a fresh, empty registry with a root group named
// "root". Every other node has exactly one parent.
func New() *Registry {
	return &Registry{root: NewGroup("root")}
}

// Root returns the registry's root group.
func (r *Registry) Root() *Group { return r.root }

// AllTopLevel returns the immediate children of the root, in
// deterministic name order.
func (r *Registry) AllTopLevel() []Node { return r.root.Children() }

// Install adds node as a descendant of the group addressed by
// scopePath (a sequence of group names from root, most recent last,
// NOT including "root" itself). An empty scopePath installs directly
// under root. Fails internally if any path segment does not resolve
// to an existing group, or if the final group already has a child
// with that name.
func (r *Registry) Install(scopePath []string, node Node) {
	parent := r.root
	for i, seg := range scopePath {
		child, ok := parent.child(seg)
		if !ok {
			internalerror.Abort(nil, internalerror.New(
				"install %q: no group named %q at depth %d", node.Name(), seg, i))
		}
		g, ok := child.(*Group)
		if !ok {
			internalerror.Abort(nil, internalerror.New(
				"install %q: %q is a case, not a group", node.Name(), seg))
		}
		parent = g
	}
	parent.AddChild(node)
}

// Find resolves a scope path (including the final node's own name as
// the last element) to the node it names. Fails internally if any
// segment is absent.
func (r *Registry) Find(scopePath []string) Node {
	var cur Node = r.root
	for i, seg := range scopePath {
		g, ok := cur.(*Group)
		if !ok {
			internalerror.Abort(nil, internalerror.New(
				"find %v: %q is a case, not a group, at depth %d", scopePath, cur.Name(), i))
		}
		next, ok := g.child(seg)
		if !ok {
			internalerror.Abort(nil, internalerror.New("find %v: no node named %q at depth %d", scopePath, seg, i))
		}
		cur = next
	}
	return cur
}

// Freeze marks every group in the tree immutable. The grader binary
// (cmd/grader) calls this before handing the registry to the driver;
// subsequent mutation attempts abort the run as an internal error.
func (r *Registry) Freeze() { r.root.freeze() }

// global is the process-wide singleton registry: the only global
// mutable state in the grader, and only until it is frozen.
var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, creating it on first
// call.
func Global() *Registry {
	globalOnce.Do(func() { global = New() })
	return global
}
