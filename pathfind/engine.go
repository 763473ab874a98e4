package pathfind

import (
	"log/slog"

	"github.com/milk9111/blockade/agent"
	"github.com/milk9111/blockade/graph"
	"github.com/milk9111/blockade/signal"
)

// Engine owns the agent's route. It computes the initial path and repairs
// it whenever the blocker manager reports a relevant edge change.
type Engine struct {
	view *View
	ag   *agent.Agent
	log  *slog.Logger

	pathUpdated signal.Source[[]graph.NodeID]
}

// NewEngine wires the engine to its graph view and agent.
func NewEngine(view *View, ag *agent.Agent, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{view: view, ag: ag, log: log}
}

// PathUpdated is emitted with the installed path after every plan or
// replan; nil means no route exists.
func (e *Engine) PathUpdated() *signal.Source[[]graph.NodeID] {
	return &e.pathUpdated
}

// Reset points the engine at a freshly built view (map reload).
func (e *Engine) Reset(view *View) {
	e.view = view
}

// View returns the engine's current graph view.
func (e *Engine) View() *View { return e.view }

// Plan computes the route from the agent's current node and installs it.
// It returns the installed path, nil when the agent is trapped. The overlay
// is validated against the graph first; stale entries are dropped and
// logged rather than silently steering the search.
func (e *Engine) Plan() []graph.NodeID {
	e.view.Validate(e.log)
	return e.install(Search(e.view, e.ag.Current(), e.view.Graph().Holes()), false)
}

// Replan reacts to a block or unblock of changed. Edges that touch neither
// the transit edge nor the remaining path cannot invalidate or improve the
// committed route's validity check, so they are skipped; unblocks that
// might shorten the route elsewhere are picked up on the next relevant
// change, matching the original behavior.
func (e *Engine) Replan(changed graph.EdgeID) {
	if e.ag.State().Terminal() {
		return
	}
	if !e.relevant(changed) {
		return
	}
	e.log.Debug("pathfind: replanning", "edge", changed.String(), "from", e.ag.Current().String())

	newPath := Search(e.view, e.ag.Current(), e.view.Graph().Holes())

	reversed := false
	if len(newPath) >= 2 && e.ag.Progress() > 0 {
		if prevNext, ok := e.ag.Next(); ok && prevNext != newPath[1] && prevNext != newPath[0] {
			// The agent is mid-hop toward a different direction. Prepend the
			// committed node so it finishes that hop and visibly walks back
			// instead of teleporting onto the new route. An agent still
			// standing on its node has nothing to finish and simply takes
			// the new route; prepending there would walk an edge that may
			// have just been blocked.
			newPath = append([]graph.NodeID{prevNext}, newPath...)
			reversed = true
		}
	}

	e.install(newPath, reversed)
}

func (e *Engine) install(path []graph.NodeID, reversed bool) []graph.NodeID {
	switch {
	case path == nil:
		e.ag.ClearPath()
		e.ag.SetState(agent.StateTrapped)
	case len(path) == 1:
		// Already standing on a hole.
		e.ag.InstallPath(path, false)
		e.ag.SetState(agent.StateEscaped)
	default:
		e.ag.InstallPath(path, reversed)
	}
	e.pathUpdated.Emit(e.ag.Path())
	return path
}

// relevant reports whether changed touches the agent's transit edge or any
// consecutive pair in the remaining path.
func (e *Engine) relevant(changed graph.EdgeID) bool {
	if transit, ok := e.ag.TransitEdge(); ok && transit == changed {
		return true
	}
	remaining := e.ag.Remaining()
	if len(remaining) == 0 {
		// No committed route yet; any change may matter.
		return true
	}
	for i := 0; i+1 < len(remaining); i++ {
		if graph.NewEdgeID(remaining[i], remaining[i+1]) == changed {
			return true
		}
	}
	return false
}
