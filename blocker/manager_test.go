package blocker

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/milk9111/blockade/graph"
)

// ladder builds a 2xN grid so there are plenty of distinct interior edges.
func ladder(t *testing.T, cols int, holes ...graph.NodeID) *graph.Graph {
	t.Helper()
	holeSet := map[graph.NodeID]bool{}
	for _, h := range holes {
		holeSet[h] = true
	}
	g := graph.New()
	for r := 0; r < 2; r++ {
		for c := 0; c < cols; c++ {
			id := graph.NodeID{Row: r, Col: c}
			g.AddNode(graph.Node{ID: id, Hole: holeSet[id]})
		}
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				mustEdge(t, g, graph.NodeID{Row: r, Col: c}, graph.NodeID{Row: r, Col: c + 1})
			}
			if r == 0 {
				mustEdge(t, g, graph.NodeID{Row: 0, Col: c}, graph.NodeID{Row: 1, Col: c})
			}
		}
	}
	return g
}

func mustEdge(t *testing.T, g *graph.Graph, a, b graph.NodeID) graph.EdgeID {
	t.Helper()
	id, err := g.AddEdge(a, b)
	if err != nil {
		t.Fatalf("add edge %s-%s: %v", a, b, err)
	}
	return id
}

func newManager(t *testing.T, g *graph.Graph, max int, transit TransitEdgeFunc) *Manager {
	t.Helper()
	return NewManager(g, max, transit, slog.Default())
}

func rung(c int) graph.EdgeID {
	return graph.NewEdgeID(graph.NodeID{Row: 0, Col: c}, graph.NodeID{Row: 1, Col: c})
}

func TestToggleIdempotence(t *testing.T) {
	g := ladder(t, 8)
	m := newManager(t, g, 5, nil)
	e := rung(2)

	if !m.Toggle(e) {
		t.Fatalf("first toggle rejected")
	}
	edge, _ := g.Edge(e)
	if !edge.Blocked {
		t.Fatalf("edge not blocked after toggle")
	}
	if m.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", m.Len())
	}

	if !m.Toggle(e) {
		t.Fatalf("removal toggle rejected")
	}
	edge, _ = g.Edge(e)
	if edge.Blocked {
		t.Fatalf("edge still blocked after second toggle")
	}
	if m.Len() != 0 {
		t.Fatalf("queue length = %d, want 0", m.Len())
	}
	if err := g.CheckSymmetry(); err != nil {
		t.Fatalf("adjacency broken: %v", err)
	}
}

func TestCapacityInvariant(t *testing.T) {
	g := ladder(t, 10)
	m := newManager(t, g, 5, nil)

	// Arbitrary toggle sequence with repeats; the queue must never exceed
	// capacity after any call.
	seq := []int{0, 1, 2, 3, 4, 5, 6, 2, 2, 7, 8, 9, 0, 1}
	for i, c := range seq {
		m.Toggle(rung(c))
		if m.Len() > m.Max() {
			t.Fatalf("after toggle %d: queue length %d exceeds %d", i, m.Len(), m.Max())
		}
		if err := g.CheckSymmetry(); err != nil {
			t.Fatalf("after toggle %d: %v", i, err)
		}
	}
}

func TestFIFOEviction(t *testing.T) {
	g := ladder(t, 10)
	m := newManager(t, g, 5, nil)

	var removals []Removal
	m.Removed().Subscribe(func(r Removal) { removals = append(removals, r) })
	var additions []graph.EdgeID
	m.Added().Subscribe(func(e graph.EdgeID) { additions = append(additions, e) })

	for c := 0; c < 6; c++ {
		if !m.Toggle(rung(c)) {
			t.Fatalf("toggle %d rejected", c)
		}
	}

	if m.Len() != 5 {
		t.Fatalf("queue length = %d, want 5", m.Len())
	}
	if m.Has(rung(0)) {
		t.Fatalf("oldest blocker should have been evicted")
	}
	for c := 1; c < 6; c++ {
		if !m.Has(rung(c)) {
			t.Fatalf("blocker on rung %d missing", c)
		}
	}
	edge, _ := g.Edge(rung(0))
	if edge.Blocked {
		t.Fatalf("evicted edge still blocked")
	}

	if len(removals) != 1 || removals[0].Reason != ReasonEvicted || removals[0].Edge != rung(0) {
		t.Fatalf("removals = %+v", removals)
	}
	// Eviction must be announced before the sixth addition.
	if len(additions) != 6 || additions[5] != rung(5) {
		t.Fatalf("additions = %v", additions)
	}
}

func TestPendingEvictionMarking(t *testing.T) {
	g := ladder(t, 10)
	m := newManager(t, g, 3, nil)

	for c := 0; c < 3; c++ {
		m.Toggle(rung(c))
	}
	bs := m.Blockers()
	if !bs[0].PendingEviction {
		t.Fatalf("oldest blocker not flagged at capacity")
	}
	for _, b := range bs[1:] {
		if b.PendingEviction {
			t.Fatalf("non-oldest blocker flagged: %+v", b)
		}
	}

	// Removing one drops below capacity: no blocker stays flagged.
	m.Toggle(rung(0))
	for _, b := range m.Blockers() {
		if b.PendingEviction {
			t.Fatalf("blocker flagged below capacity: %+v", b)
		}
	}
}

func TestPlacementConstraints(t *testing.T) {
	hole := graph.NodeID{Row: 0, Col: 0}
	g := ladder(t, 6, hole)
	transit := rung(3)
	m := newManager(t, g, 5, func() (graph.EdgeID, bool) { return transit, true })

	cases := []struct {
		name string
		edge graph.EdgeID
		want error
	}{
		{"unknown_edge", graph.NewEdgeID(graph.NodeID{Row: 5, Col: 5}, graph.NodeID{Row: 5, Col: 6}), ErrUnknownEdge},
		{"hole_adjacent", graph.NewEdgeID(hole, graph.NodeID{Row: 1, Col: 0}), ErrHoleAdjacent},
		{"agent_transit", transit, ErrAgentTransit},
		{"valid", rung(4), nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := m.CanPlaceOrToggle(c.edge)
			if err != c.want {
				t.Fatalf("CanPlaceOrToggle = %v, want %v", err, c.want)
			}
			before := m.Len()
			got := m.Toggle(c.edge)
			if (c.want == nil) != got {
				t.Fatalf("Toggle = %v with constraint %v", got, c.want)
			}
			if c.want != nil && m.Len() != before {
				t.Fatalf("rejected toggle changed the queue")
			}
		})
	}

	// Toggling an existing blocker for removal always succeeds, even if a
	// new placement there would now be rejected.
	if err := m.CanPlaceOrToggle(rung(4)); err != nil {
		t.Fatalf("removal toggle rejected: %v", err)
	}
}

func TestClearIsSilent(t *testing.T) {
	g := ladder(t, 8)
	m := newManager(t, g, 5, nil)

	for c := 0; c < 4; c++ {
		m.Toggle(rung(c))
	}

	removed := 0
	m.Removed().Subscribe(func(Removal) { removed++ })
	cleared := 0
	m.Cleared().Subscribe(func(struct{}) { cleared++ })

	m.Clear()

	if removed != 0 {
		t.Fatalf("clear announced %d individual removals", removed)
	}
	if cleared != 1 {
		t.Fatalf("cleared notifications = %d, want 1", cleared)
	}
	if m.Len() != 0 {
		t.Fatalf("queue not empty after clear")
	}
	if err := g.CheckSymmetry(); err != nil {
		t.Fatalf("adjacency broken after clear: %v", err)
	}
	for c := 0; c < 4; c++ {
		edge, _ := g.Edge(rung(c))
		if edge.Blocked {
			t.Fatalf("edge %s still blocked after clear", rung(c))
		}
	}
}

func TestAdvanceAccumulates(t *testing.T) {
	g := ladder(t, 6)
	m := newManager(t, g, 5, nil)
	m.Toggle(rung(1))
	m.Advance(0.5)
	m.Advance(0.25)

	bs := m.Blockers()
	if len(bs) != 1 {
		t.Fatalf("blockers = %v", bs)
	}
	if got := bs[0].Elapsed; got != 0.75 {
		t.Fatalf("elapsed = %v, want 0.75", got)
	}
}

func ExampleManager_Toggle() {
	g := graph.New()
	for c := 0; c < 2; c++ {
		g.AddNode(graph.Node{ID: graph.NodeID{Row: 0, Col: c}})
		g.AddNode(graph.Node{ID: graph.NodeID{Row: 1, Col: c}})
	}
	edge, _ := g.AddEdge(graph.NodeID{Row: 0, Col: 0}, graph.NodeID{Row: 1, Col: 0})

	m := NewManager(g, 5, nil, slog.Default())
	fmt.Println(m.Toggle(edge), m.Len())
	fmt.Println(m.Toggle(edge), m.Len())
	// Output:
	// true 1
	// true 0
}
