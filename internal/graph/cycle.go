// Package graph provides cycle detection for task dependency edges.
// All functions operate on caller-supplied snapshots and never mutate
// their inputs; persistence of accepted edges is the caller's job.
package graph

import (
	"fmt"
	"strings"

	"focal/internal/model"
)

// CycleError reports a rejected edge batch with the offending path.
// Path starts and ends at the same task id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// WouldCreateCycle reports whether adding proposed to existing closes a
// loop, i.e. whether proposed.SourceID is already reachable from
// proposed.TargetID.
func WouldCreateCycle(existing []model.DependencyEdge, proposed model.DependencyEdge) bool {
	_, found := findPath(adjacency(existing), proposed.TargetID, proposed.SourceID)
	return found
}

// CheckEdges validates a batch of proposed edges against the existing
// edge set. Each accepted edge joins the working set before the next is
// checked, so a bridging task's predecessor->new and new->successor
// edges are judged together. Any cycle rejects the whole batch with a
// *CycleError; no partial acceptance.
func CheckEdges(existing, proposed []model.DependencyEdge) error {
	adj := adjacency(existing)
	for _, edge := range proposed {
		if edge.SourceID == edge.TargetID {
			return &CycleError{Path: []string{edge.SourceID, edge.TargetID}}
		}
		if path, found := findPath(adj, edge.TargetID, edge.SourceID); found {
			full := append([]string{edge.SourceID}, path...)
			return &CycleError{Path: full}
		}
		adj[edge.SourceID] = append(adj[edge.SourceID], edge.TargetID)
	}
	return nil
}

func adjacency(edges []model.DependencyEdge) map[string][]string {
	adj := make(map[string][]string, len(edges))
	for _, e := range edges {
		adj[e.SourceID] = append(adj[e.SourceID], e.TargetID)
	}
	return adj
}

// findPath runs an iterative DFS from start looking for goal and
// returns the node path start..goal when reachable.
func findPath(adj map[string][]string, start, goal string) ([]string, bool) {
	if start == goal {
		return []string{start}, true
	}
	visited := map[string]bool{start: true}
	parent := map[string]string{}
	stack := []string{start}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[node] {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = node
			if next == goal {
				return reconstruct(parent, start, goal), true
			}
			stack = append(stack, next)
		}
	}
	return nil, false
}

func reconstruct(parent map[string]string, start, goal string) []string {
	path := []string{goal}
	for node := goal; node != start; {
		node = parent[node]
		path = append([]string{node}, path...)
	}
	return path
}
