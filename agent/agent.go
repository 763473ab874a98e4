// Package agent implements the movement controller: it advances the agent
// along the current path each tick, detects node arrival, and supports the
// mid-path reversal installed by the pathfinding engine.
package agent

import (
	"github.com/milk9111/blockade/common"
	"github.com/milk9111/blockade/graph"
	"github.com/milk9111/blockade/signal"
)

// State is the agent lifecycle state. ESCAPED and TRAPPED are terminal.
type State string

const (
	StateIdle    State = "IDLE"
	StateMoving  State = "MOVING"
	StateEscaped State = "ESCAPED"
	StateTrapped State = "TRAPPED"
)

// Terminal reports whether s ends the session.
func (s State) Terminal() bool {
	return s == StateEscaped || s == StateTrapped
}

// PositionFunc resolves a node id to its render position.
type PositionFunc func(graph.NodeID) (x, y float64, ok bool)

// Agent traverses the graph one edge at a time. It is created once per map
// load and reset in place afterwards; subscriptions survive resets.
type Agent struct {
	current graph.NodeID
	path    []graph.NodeID
	// pathIdx is the index of current within path. -1 means the agent is
	// finishing a committed hop toward path[0] after a reversal install.
	pathIdx  int
	progress float64
	state    State
	speed    float64
	posOf    PositionFunc

	x, y float64

	stateChanged signal.Source[State]
}

// New returns an idle agent standing on start.
func New(start graph.NodeID, speed float64, posOf PositionFunc) *Agent {
	a := &Agent{state: StateIdle}
	a.Reset(start, speed, posOf)
	return a
}

// Reset puts the agent back on start with no path, preserving subscribers.
func (a *Agent) Reset(start graph.NodeID, speed float64, posOf PositionFunc) {
	a.current = start
	a.path = nil
	a.pathIdx = 0
	a.progress = 0
	a.speed = speed
	a.posOf = posOf
	a.SetState(StateIdle)
	if posOf != nil {
		if x, y, ok := posOf(start); ok {
			a.x, a.y = x, y
		}
	}
}

// Current returns the node the agent last occupied.
func (a *Agent) Current() graph.NodeID { return a.current }

// State returns the lifecycle state.
func (a *Agent) State() State { return a.state }

// Position returns the interpolated render position.
func (a *Agent) Position() (x, y float64) { return a.x, a.y }

// Speed returns the traversal speed in edges per second.
func (a *Agent) Speed() float64 { return a.speed }

// Progress returns how far the agent is into its current hop, in [0, 1).
// Zero means it is still standing on Current.
func (a *Agent) Progress() float64 { return a.progress }

// StateChanged is emitted on every lifecycle state change.
func (a *Agent) StateChanged() *signal.Source[State] { return &a.stateChanged }

// SetState transitions the lifecycle state, notifying subscribers. Setting
// the current state again is a no-op.
func (a *Agent) SetState(s State) {
	if a.state == s {
		return
	}
	a.state = s
	a.stateChanged.Emit(s)
}

// Path returns a copy of the full installed path.
func (a *Agent) Path() []graph.NodeID {
	if a.path == nil {
		return nil
	}
	out := make([]graph.NodeID, len(a.path))
	copy(out, a.path)
	return out
}

// Remaining returns the path from the agent's current position onward,
// including the in-flight hop target when a reversal is pending.
func (a *Agent) Remaining() []graph.NodeID {
	if len(a.path) == 0 {
		return nil
	}
	start := a.pathIdx
	if start < 0 {
		start = 0
	}
	if start >= len(a.path) {
		return nil
	}
	out := make([]graph.NodeID, len(a.path)-start)
	copy(out, a.path[start:])
	return out
}

// Next returns the node the agent is committed to reach next, if any.
func (a *Agent) Next() (graph.NodeID, bool) {
	t, ok := a.target()
	return t, ok
}

// TransitEdge returns the edge between the current node and the committed
// next node. This is the edge a blocker may never be placed on.
func (a *Agent) TransitEdge() (graph.EdgeID, bool) {
	next, ok := a.target()
	if !ok || next == a.current {
		return graph.EdgeID{}, false
	}
	return graph.NewEdgeID(a.current, next), true
}

func (a *Agent) target() (graph.NodeID, bool) {
	if a.pathIdx < 0 {
		if len(a.path) == 0 {
			return graph.NodeID{}, false
		}
		return a.path[0], true
	}
	if a.pathIdx+1 < len(a.path) {
		return a.path[a.pathIdx+1], true
	}
	return graph.NodeID{}, false
}

// InstallPath replaces the path. With reversed set, path[0] is the node the
// agent was already committed to: the in-flight hop completes (progress is
// kept) and the agent then walks back along the new route. Otherwise
// path[0] must be the current node; progress is kept only when the first
// hop matches the previously committed one.
func (a *Agent) InstallPath(path []graph.NodeID, reversed bool) {
	prevTarget, hadTarget := a.target()

	a.path = path
	if reversed {
		a.pathIdx = -1
		return
	}
	a.pathIdx = 0
	sameHop := hadTarget && len(path) >= 2 && path[1] == prevTarget
	if !sameHop {
		a.progress = 0
	}
}

// ClearPath drops the path and any in-flight hop.
func (a *Agent) ClearPath() {
	a.path = nil
	a.pathIdx = 0
	a.progress = 0
}

// Advance moves the agent by speed*dt edge lengths. It returns the node
// arrived at this tick, if any; the caller decides what arrival means
// (reaching a hole is not the agent's call). Arrivals are reported one per
// tick so the orchestrator can react between hops.
func (a *Agent) Advance(dt float64) (graph.NodeID, bool) {
	if a.state != StateMoving {
		return graph.NodeID{}, false
	}
	if _, ok := a.target(); !ok {
		return graph.NodeID{}, false
	}

	a.progress += a.speed * dt
	arrived := false
	if a.progress >= 1 {
		a.progress -= 1
		a.pathIdx++
		a.current = a.path[a.pathIdx]
		arrived = true
		if _, ok := a.target(); !ok {
			a.progress = 0
		}
	}
	a.updatePosition()
	if arrived {
		return a.current, true
	}
	return graph.NodeID{}, false
}

func (a *Agent) updatePosition() {
	if a.posOf == nil {
		return
	}
	target, ok := a.target()
	if !ok {
		if x, y, found := a.posOf(a.current); found {
			a.x, a.y = x, y
		}
		return
	}
	fx, fy, okFrom := a.posOf(a.current)
	tx, ty, okTo := a.posOf(target)
	if !okFrom || !okTo {
		return
	}
	t := common.Clamp(a.progress, 0, 1)
	a.x = common.Lerp(fx, tx, t)
	a.y = common.Lerp(fy, ty, t)
}
