// Package dag provides the prerequisite graph used to order lessons.
// It supports difficulty-aware topological sorting (easier unblocked
// lessons surface first, ties break by id) and reports the nodes caught
// in a cycle when no total order exists.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains a dependency cycle.
var ErrCycle = errors.New("cycle detected")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// CycleError wraps ErrCycle and carries the ids that could not be
// ordered, so callers can identify the cycle.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected among lessons: %v", e.IDs)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Graph is a directed graph of lessons. Edges point from a lesson to its
// prerequisites: if A requires B, there is an edge A → B.
type Graph struct {
	scores map[string]float64
	// deps maps id → set of prerequisite ids.
	deps map[string]map[string]bool
	// dependents maps id → set of ids that require it.
	dependents map[string]map[string]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		scores:     make(map[string]float64),
		deps:       make(map[string]map[string]bool),
		dependents: make(map[string]map[string]bool),
	}
}

// AddNode adds a lesson with its difficulty score. Returns
// ErrDuplicateNode if the id is already present.
func (g *Graph) AddNode(id string, score float64) error {
	if _, ok := g.deps[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.scores[id] = score
	g.deps[id] = make(map[string]bool)
	g.dependents[id] = make(map[string]bool)
	return nil
}

// AddDep records that id requires prereq. Edges whose target is not a
// known node are ignored: the orderer only honors prerequisites that
// survived into the final lesson set. A self-edge is kept; the node can
// never unblock and Sort reports it as a cycle.
func (g *Graph) AddDep(id, prereq string) {
	if _, ok := g.deps[id]; !ok {
		return
	}
	if _, ok := g.deps[prereq]; !ok {
		return
	}
	g.deps[id][prereq] = true
	g.dependents[prereq][id] = true
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.deps) }

// Sort returns ids in a valid topological order: every prerequisite
// precedes its dependents. The ready queue is re-sorted after every
// insertion by (score ascending, id ascending), so among currently
// unblocked lessons the easiest is emitted first and ties are
// deterministic. Returns a *CycleError when some nodes never unblock.
func (g *Graph) Sort() ([]string, error) {
	inDegree := make(map[string]int, len(g.deps))
	var ready []string
	for id, deps := range g.deps {
		inDegree[id] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, id)
		}
	}
	g.sortReady(ready)

	order := make([]string, 0, len(g.deps))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		inserted := false
		for dependent := range g.dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
				inserted = true
			}
		}
		if inserted {
			g.sortReady(ready)
		}
	}

	if len(order) != len(g.deps) {
		ordered := make(map[string]bool, len(order))
		for _, id := range order {
			ordered[id] = true
		}
		var remaining []string
		for id := range g.deps {
			if !ordered[id] {
				remaining = append(remaining, id)
			}
		}
		sort.Strings(remaining)
		return nil, &CycleError{IDs: remaining}
	}
	return order, nil
}

func (g *Graph) sortReady(ready []string) {
	sort.Slice(ready, func(i, j int) bool {
		si, sj := g.scores[ready[i]], g.scores[ready[j]]
		if si != sj {
			return si < sj
		}
		return ready[i] < ready[j]
	})
}
