// Package blocker enforces blocker placement constraints and the bounded
// FIFO queue. Every accepted toggle mutates the graph store and notifies
// subscribers, which is what drives replanning.
package blocker

import (
	"errors"
	"log/slog"

	"github.com/milk9111/blockade/graph"
	"github.com/milk9111/blockade/signal"
)

// DefaultMaxBlockers is the queue capacity when none is configured.
const DefaultMaxBlockers = 5

var (
	// ErrUnknownEdge rejects placement on an edge the graph doesn't have.
	ErrUnknownEdge = errors.New("blocker: unknown edge")
	// ErrHoleAdjacent rejects sealing an exit directly.
	ErrHoleAdjacent = errors.New("blocker: edge touches a hole")
	// ErrAgentTransit rejects blocking the edge the agent is crossing.
	ErrAgentTransit = errors.New("blocker: agent is transiting this edge")
)

// Reason says why a blocker was removed.
type Reason string

const (
	ReasonManual  Reason = "manual"
	ReasonEvicted Reason = "evicted"
	ReasonCleared Reason = "cleared"
)

// Blocker is one placed obstruction. Elapsed accumulates tick time for the
// renderer's highlight animation; it is core state so the animation stays
// deterministic.
type Blocker struct {
	Edge            graph.EdgeID
	Seq             uint64
	PendingEviction bool
	Elapsed         float64
}

// Removal is the payload of the removed notification.
type Removal struct {
	Edge   graph.EdgeID
	Reason Reason
}

// TransitEdgeFunc reports the edge the agent currently occupies, if any.
// Injected at construction so the manager never reaches into agent state.
type TransitEdgeFunc func() (graph.EdgeID, bool)

// Manager owns the blocker queue. It persists across map reloads; Reset
// swaps the graph underneath it without touching subscriptions.
type Manager struct {
	g           *graph.Graph
	max         int
	seq         uint64
	queue       []*Blocker
	transitEdge TransitEdgeFunc
	log         *slog.Logger

	added   signal.Source[graph.EdgeID]
	removed signal.Source[Removal]
	cleared signal.Source[struct{}]
}

// NewManager returns a manager over g with the given capacity.
func NewManager(g *graph.Graph, max int, transitEdge TransitEdgeFunc, log *slog.Logger) *Manager {
	if max <= 0 {
		max = DefaultMaxBlockers
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{g: g, max: max, transitEdge: transitEdge, log: log}
}

// Added is emitted after a blocker is placed and the graph mutated.
func (m *Manager) Added() *signal.Source[graph.EdgeID] { return &m.added }

// Removed is emitted after a blocker is removed and adjacency restored.
// Full clears do not announce individual removals; see Cleared.
func (m *Manager) Removed() *signal.Source[Removal] { return &m.removed }

// Cleared is emitted once per full clear.
func (m *Manager) Cleared() *signal.Source[struct{}] { return &m.cleared }

// Len reports the queue length.
func (m *Manager) Len() int { return len(m.queue) }

// Max reports the queue capacity.
func (m *Manager) Max() int { return m.max }

// Blockers returns a snapshot of the queue in FIFO order.
func (m *Manager) Blockers() []Blocker {
	out := make([]Blocker, len(m.queue))
	for i, b := range m.queue {
		out[i] = *b
	}
	return out
}

// Has reports whether a blocker sits on edge.
func (m *Manager) Has(edge graph.EdgeID) bool {
	return m.find(edge) >= 0
}

// CanPlaceOrToggle reports whether a toggle on edge would be accepted.
// Removing an existing blocker always succeeds; new placements must pass
// the constraints in order.
func (m *Manager) CanPlaceOrToggle(edge graph.EdgeID) error {
	if m.find(edge) >= 0 {
		return nil
	}
	e, ok := m.g.Edge(edge)
	if !ok {
		return ErrUnknownEdge
	}
	if e.HoleAdjacent {
		return ErrHoleAdjacent
	}
	if m.transitEdge != nil {
		if transit, busy := m.transitEdge(); busy && transit == edge {
			return ErrAgentTransit
		}
	}
	return nil
}

// Toggle places a blocker on edge or removes the existing one. It returns
// false, leaving all state untouched, when a new placement violates a
// constraint. At capacity the oldest blocker is evicted (and announced)
// before the new one is inserted.
func (m *Manager) Toggle(edge graph.EdgeID) bool {
	if i := m.find(edge); i >= 0 {
		m.removeAt(i, ReasonManual)
		return true
	}

	if err := m.CanPlaceOrToggle(edge); err != nil {
		m.log.Warn("blocker: placement rejected", "edge", edge.String(), "reason", err)
		return false
	}

	if len(m.queue) >= m.max {
		m.removeAt(0, ReasonEvicted)
	}

	m.seq++
	b := &Blocker{Edge: edge, Seq: m.seq}
	if err := m.g.SetBlocked(edge, true); err != nil {
		m.log.Warn("blocker: block failed", "edge", edge.String(), "error", err)
		return false
	}
	m.queue = append(m.queue, b)
	m.refreshPendingEviction()
	m.added.Emit(edge)
	return true
}

// Advance accumulates dt into every blocker's highlight timer.
func (m *Manager) Advance(dt float64) {
	for _, b := range m.queue {
		b.Elapsed += dt
	}
}

// Clear removes every blocker and restores adjacency without announcing
// individual removals; a single cleared notification is emitted instead.
// Used by the phase reset while the whole map is being replaced.
func (m *Manager) Clear() {
	for _, b := range m.queue {
		if err := m.g.SetBlocked(b.Edge, false); err != nil {
			m.log.Warn("blocker: unblock failed during clear", "edge", b.Edge.String(), "error", err)
		}
	}
	m.queue = nil
	m.cleared.Emit(struct{}{})
}

// Reset drops the queue silently and points the manager at a new graph.
func (m *Manager) Reset(g *graph.Graph) {
	m.queue = nil
	m.g = g
}

func (m *Manager) find(edge graph.EdgeID) int {
	for i, b := range m.queue {
		if b.Edge == edge {
			return i
		}
	}
	return -1
}

func (m *Manager) removeAt(i int, reason Reason) {
	b := m.queue[i]
	if err := m.g.SetBlocked(b.Edge, false); err != nil {
		m.log.Warn("blocker: unblock failed", "edge", b.Edge.String(), "error", err)
	}
	m.queue = append(m.queue[:i], m.queue[i+1:]...)
	m.refreshPendingEviction()
	m.removed.Emit(Removal{Edge: b.Edge, Reason: reason})
}

// refreshPendingEviction flags the single oldest entry while the queue is
// at capacity and clears the flag everywhere otherwise.
func (m *Manager) refreshPendingEviction() {
	atCapacity := len(m.queue) >= m.max
	for i, b := range m.queue {
		b.PendingEviction = atCapacity && i == 0
	}
}
