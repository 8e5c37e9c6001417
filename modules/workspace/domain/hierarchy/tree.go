package hierarchy

import (
	"sort"

	"github.com/google/uuid"
)

// Subordinate is a user reached while walking down the reporting tree.
type Subordinate struct {
	UserID uuid.UUID
	Depth  int
}

// ReportingTree indexes reportsTo edges for traversal in both directions.
type ReportingTree struct {
	parent   map[uuid.UUID]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
}

// NewReportingTree builds a tree from users. Edges pointing outside the set are kept
// as parent links but have no node of their own.
func NewReportingTree(users []*User) *ReportingTree {
	t := &ReportingTree{
		parent:   make(map[uuid.UUID]uuid.UUID, len(users)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, u := range users {
		if u.ReportsTo == uuid.Nil {
			continue
		}
		t.parent[u.ID] = u.ReportsTo
		t.children[u.ReportsTo] = append(t.children[u.ReportsTo], u.ID)
	}
	for id := range t.children {
		kids := t.children[id]
		sort.Slice(kids, func(i, j int) bool { return kids[i].String() < kids[j].String() })
	}
	return t
}

// DirectReports returns the users whose reportsTo is id.
func (t *ReportingTree) DirectReports(id uuid.UUID) []uuid.UUID {
	kids := t.children[id]
	out := make([]uuid.UUID, len(kids))
	copy(out, kids)
	return out
}

// Subordinates walks breadth-first below id. maxDepth <= 0 means unbounded.
func (t *ReportingTree) Subordinates(id uuid.UUID, maxDepth int) []Subordinate {
	visited := map[uuid.UUID]struct{}{id: {}}
	queue := []Subordinate{{UserID: id, Depth: 0}}
	var out []Subordinate
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && cur.Depth >= maxDepth {
			continue
		}
		for _, child := range t.children[cur.UserID] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			next := Subordinate{UserID: child, Depth: cur.Depth + 1}
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

// Chain returns the managers above id, nearest first.
func (t *ReportingTree) Chain(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	seen := map[uuid.UUID]struct{}{id: {}}
	for {
		p, ok := t.parent[id]
		if !ok {
			return out
		}
		if _, loop := seen[p]; loop {
			return out
		}
		seen[p] = struct{}{}
		out = append(out, p)
		id = p
	}
}
