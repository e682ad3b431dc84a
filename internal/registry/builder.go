package registry

import "github.com/stanford-cs106/grader/internal/outcome"

// Builder is the declarative registration surface test suites use:
// lexical nesting of registration calls determines the scope path,
// rather than requiring callers to spell out Registry.Install paths
// by hand.
//
//	reg.TopLevelGroup("Warmup", func(g *registry.Builder) {
//		g.SetVisibility(true)
//		g.Case("addition works", 2, func() { ... })
//		g.Group("edge cases", func(g2 *registry.Builder) {
//			g2.Case("overflow", 1, func() { ... })
//		})
//	})
type Builder struct {
	group *Group
}

// TopLevelGroup registers a new immediate child of the registry root
// and, if configure is non-nil, lexically nests further registrations
// inside it.
func (r *Registry) TopLevelGroup(name string, configure func(*Builder)) *Group {
	g := NewGroup(name)
	r.root.AddChild(g)
	if configure != nil {
		configure(&Builder{group: g})
	}
	return g
}

// Case registers a leaf test case as a child of the group this
// builder scopes.
func (b *Builder) Case(name string, points outcome.Points, body func()) *Case {
	c := NewCase(name, points, body)
	b.group.AddChild(c)
	return c
}

// Group registers a nested group as a child of the group this builder
// scopes, lexically nesting configure's registrations inside it.
func (b *Builder) Group(name string, configure func(*Builder)) *Group {
	g := NewGroup(name)
	b.group.AddChild(g)
	if configure != nil {
		configure(&Builder{group: g})
	}
	return g
}

// SetVisibility sets the scoped group's visibility.
func (b *Builder) SetVisibility(public bool) { b.group.SetVisibility(public) }

// SetPointsCap fixes the scoped group's total point value.
func (b *Builder) SetPointsCap(points outcome.Points) { b.group.SetPointsCap(points) }

// AddRequiredFile marks name as required for the scoped group to run.
func (b *Builder) AddRequiredFile(name string) { b.group.AddRequiredFile(name) }

// Self returns the underlying group, for callers that need its name
// or points outside the configure callback.
func (b *Builder) Self() *Group { return b.group }
