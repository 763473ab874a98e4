// Package graph holds the authoritative node, edge, and adjacency data for
// the current map. The adjacency lists are the single source of truth for
// pathfinding: an edge appears in both endpoints' neighbor lists exactly
// when it is not blocked.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownNode is returned for node ids not present in the graph.
	ErrUnknownNode = errors.New("graph: unknown node")
	// ErrUnknownEdge is returned for edge ids not present in the graph.
	ErrUnknownEdge = errors.New("graph: unknown edge")
)

// Node is one map position. X and Y are render coordinates owned by the
// graph store; the core never interprets them beyond interpolation.
type Node struct {
	ID   NodeID
	Hole bool
	X    float64
	Y    float64
}

// Edge connects exactly two nodes. HoleAdjacent is precomputed at load so
// the blocker constraint check stays O(1).
type Edge struct {
	ID           EdgeID
	HoleAdjacent bool
	Blocked      bool
}

// Graph is the map's node/edge store plus derived adjacency.
type Graph struct {
	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge
	adj   map[NodeID][]NodeID
	holes []NodeID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[NodeID]*Node),
		edges: make(map[EdgeID]*Edge),
		adj:   make(map[NodeID][]NodeID),
	}
}

// AddNode inserts a node. Re-adding an existing id overwrites its record.
func (g *Graph) AddNode(n Node) {
	if _, exists := g.nodes[n.ID]; !exists {
		g.adj[n.ID] = nil
		if n.Hole {
			g.holes = insertSorted(g.holes, n.ID)
		}
	}
	node := n
	g.nodes[n.ID] = &node
}

// AddEdge inserts the unblocked edge between a and b and links the
// adjacency lists symmetrically. Both endpoints must already exist.
func (g *Graph) AddEdge(a, b NodeID) (EdgeID, error) {
	na, ok := g.nodes[a]
	if !ok {
		return EdgeID{}, fmt.Errorf("%w: %s", ErrUnknownNode, a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return EdgeID{}, fmt.Errorf("%w: %s", ErrUnknownNode, b)
	}
	id := NewEdgeID(a, b)
	if _, exists := g.edges[id]; exists {
		return id, nil
	}
	g.edges[id] = &Edge{
		ID:           id,
		HoleAdjacent: na.Hole || nb.Hole,
	}
	g.adj[a] = insertSorted(g.adj[a], b)
	g.adj[b] = insertSorted(g.adj[b], a)
	return id, nil
}

// Node returns the node record for id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge record for id.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Neighbors returns the current unblocked neighbors of id, ordered
// row-major. The returned slice is owned by the graph; callers must not
// mutate it.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	return g.adj[id]
}

// Holes returns the goal node ids, ordered row-major.
func (g *Graph) Holes() []NodeID {
	return g.holes
}

// NodeCount reports the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount reports the number of edges, blocked or not.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// SetBlocked flips an edge's blocked flag and keeps both endpoints'
// adjacency lists in sync. Setting the current value is a no-op.
func (g *Graph) SetBlocked(id EdgeID, blocked bool) error {
	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, id)
	}
	if e.Blocked == blocked {
		return nil
	}
	e.Blocked = blocked
	if blocked {
		g.adj[id.A] = removeID(g.adj[id.A], id.B)
		g.adj[id.B] = removeID(g.adj[id.B], id.A)
	} else {
		g.adj[id.A] = insertSorted(g.adj[id.A], id.B)
		g.adj[id.B] = insertSorted(g.adj[id.B], id.A)
	}
	return nil
}

// CheckSymmetry verifies the adjacency invariant: every edge is present in
// both endpoints' neighbor lists iff it is unblocked. It returns the first
// violation found.
func (g *Graph) CheckSymmetry() error {
	for id, e := range g.edges {
		inA := containsID(g.adj[id.A], id.B)
		inB := containsID(g.adj[id.B], id.A)
		if e.Blocked {
			if inA || inB {
				return fmt.Errorf("graph: blocked edge %s still linked", id)
			}
			continue
		}
		if !inA || !inB {
			return fmt.Errorf("graph: unblocked edge %s missing from adjacency", id)
		}
	}
	return nil
}

func insertSorted(list []NodeID, id NodeID) []NodeID {
	i := sort.Search(len(list), func(i int) bool { return !list[i].Less(id) })
	if i < len(list) && list[i] == id {
		return list
	}
	list = append(list, NodeID{})
	copy(list[i+1:], list[i:])
	list[i] = id
	return list
}

func removeID(list []NodeID, id NodeID) []NodeID {
	for i, n := range list {
		if n == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func containsID(list []NodeID, id NodeID) bool {
	for _, n := range list {
		if n == id {
			return true
		}
	}
	return false
}
