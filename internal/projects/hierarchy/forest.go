// Package hierarchy implements pure traversal over an organization's
// project forest. A Forest is built from one bulk fetch of the org's
// projects; traversal is an explicit breadth-first / upward walk with a
// visited-set guard, so it terminates even if a cycle were ever written
// through a bug elsewhere.
package hierarchy

import (
	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

// Forest is an in-memory adjacency index over one organization's
// projects.
type Forest struct {
	order    []string
	parent   map[string]string
	children map[string][]string
}

// Build indexes the given projects. Rows are assumed to be pre-scoped to
// a single organization; a stray cross-org row would only ever be
// unreachable, never traversed into, because edges are keyed by id.
func Build(projects []domain.Project) *Forest {
	f := &Forest{
		parent:   make(map[string]string, len(projects)),
		children: make(map[string][]string),
	}
	for _, p := range projects {
		f.order = append(f.order, p.ID)
		f.parent[p.ID] = ""
		if p.ParentID != nil {
			f.parent[p.ID] = *p.ParentID
			f.children[*p.ParentID] = append(f.children[*p.ParentID], p.ID)
		}
	}
	return f
}

// Contains reports whether the project id was part of the bulk fetch.
func (f *Forest) Contains(id string) bool {
	_, ok := f.parent[id]
	return ok
}

// Descendants returns every project reachable downward from id, excluding
// id itself. Empty for a leaf or an unknown id. Breadth-first, so results
// are ordered shallow-to-deep.
func (f *Forest) Descendants(id string) []string {
	if !f.Contains(id) {
		return nil
	}
	var out []string
	visited := map[string]bool{id: true}
	queue := append([]string(nil), f.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, f.children[cur]...)
	}
	return out
}

// Children returns the direct children of id, in input order.
func (f *Forest) Children(id string) []string {
	return f.children[id]
}

// Ancestors returns the strict ancestor chain of id, root-most first.
// Empty for a root or an unknown id. The visited set bounds the walk at
// the forest size, so a corrupt cyclic graph cannot loop.
func (f *Forest) Ancestors(id string) []string {
	if !f.Contains(id) {
		return nil
	}
	var chain []string
	visited := map[string]bool{id: true}
	cur := f.parent[id]
	for cur != "" && !visited[cur] {
		visited[cur] = true
		chain = append(chain, cur)
		cur = f.parent[cur]
	}
	// chain was collected leaf-to-root; callers want root-most first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// WouldCycle reports whether re-parenting id under newParent would make
// id its own ancestor. True when newParent is id itself or any of id's
// descendants.
func (f *Forest) WouldCycle(id, newParent string) bool {
	if id == newParent {
		return true
	}
	for _, d := range f.Descendants(id) {
		if d == newParent {
			return true
		}
	}
	return false
}

// Roots returns every project with no parent, in input order.
func (f *Forest) Roots() []string {
	var out []string
	for _, id := range f.order {
		if f.parent[id] == "" {
			out = append(out, id)
		}
	}
	return out
}
