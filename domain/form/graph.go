package form

import (
	"fmt"
	"slices"
)

// graph is the bidirectional dependency index of a section. children maps a
// child id to its single dependency; parents maps a parent id to its child
// ids in insertion order. The two maps are mutated only by insertEdge and
// removeEdge, which keep them exact inverses.
type graph struct {
	children map[string]Dependency
	parents  map[string][]string
}

func newGraph() graph {
	return graph{
		children: make(map[string]Dependency),
		parents:  make(map[string][]string),
	}
}

// insertEdge records dep, replacing any previous dependency of the same child.
func (g *graph) insertEdge(dep Dependency) {
	g.removeEdge(dep.ChildID)
	g.children[dep.ChildID] = dep
	g.parents[dep.ParentID] = append(g.parents[dep.ParentID], dep.ChildID)
}

// removeEdge deletes the dependency of childID and prunes empty parent entries.
func (g *graph) removeEdge(childID string) (Dependency, bool) {
	dep, ok := g.children[childID]
	if !ok {
		return Dependency{}, false
	}
	delete(g.children, childID)

	kids := slices.DeleteFunc(g.parents[dep.ParentID], func(id string) bool { return id == childID })
	if len(kids) == 0 {
		delete(g.parents, dep.ParentID)
	} else {
		g.parents[dep.ParentID] = kids
	}
	return dep, true
}

func (g *graph) dependencyOf(childID string) (Dependency, bool) {
	dep, ok := g.children[childID]
	return dep, ok
}

func (g *graph) childrenOf(parentID string) []string {
	return slices.Clone(g.parents[parentID])
}

func (g *graph) isChild(id string) bool {
	_, ok := g.children[id]
	return ok
}

func (g *graph) isParent(id string) bool {
	_, ok := g.parents[id]
	return ok
}

func (g *graph) edges() int {
	return len(g.children)
}

// verify checks that the two indices are exact inverses.
func (g *graph) verify() error {
	seen := 0
	for parentID, kids := range g.parents {
		if len(kids) == 0 {
			return fmt.Errorf("parent %q has an empty child list: %w", parentID, ErrInvariantViolation)
		}
		for i, childID := range kids {
			if slices.Index(kids, childID) != i {
				return fmt.Errorf("parent %q lists child %q twice: %w", parentID, childID, ErrInvariantViolation)
			}
			dep, ok := g.children[childID]
			if !ok || dep.ParentID != parentID {
				return fmt.Errorf("parent %q lists child %q without a matching dependency: %w", parentID, childID, ErrInvariantViolation)
			}
			seen++
		}
	}
	if seen != len(g.children) {
		return fmt.Errorf("%d dependencies but %d parent entries: %w", len(g.children), seen, ErrInvariantViolation)
	}
	return nil
}
