package pathfind

import (
	"log/slog"

	"github.com/milk9111/blockade/graph"
)

// View is the graph as one agent sees it: the shared graph store plus a
// small per-agent overlay of edges this agent treats as blocked. The
// overlay replaces the per-agent graph copy the design used to carry; with
// a single agent it stays empty, but the seam is where multi-agent support
// would land.
type View struct {
	g       *graph.Graph
	overlay map[graph.EdgeID]bool
}

// NewView wraps the shared graph with an empty overlay.
func NewView(g *graph.Graph) *View {
	return &View{g: g, overlay: make(map[graph.EdgeID]bool)}
}

// Graph returns the underlying shared graph.
func (v *View) Graph() *graph.Graph { return v.g }

// Neighbors returns the unblocked neighbors of id minus overlay edges.
func (v *View) Neighbors(id graph.NodeID) []graph.NodeID {
	base := v.g.Neighbors(id)
	if len(v.overlay) == 0 {
		return base
	}
	out := make([]graph.NodeID, 0, len(base))
	for _, n := range base {
		if v.overlay[graph.NewEdgeID(id, n)] {
			continue
		}
		out = append(out, n)
	}
	return out
}

// SetOverlay marks or clears an agent-local blocked edge.
func (v *View) SetOverlay(id graph.EdgeID, blocked bool) {
	if blocked {
		v.overlay[id] = true
		return
	}
	delete(v.overlay, id)
}

// ClearOverlay drops all agent-local blocks.
func (v *View) ClearOverlay() {
	clear(v.overlay)
}

// Validate checks the overlay against the shared graph and logs any edge
// the graph no longer knows. The stale entries are dropped; a hit here
// means a collaborator forgot to clear the overlay across a map reload.
func (v *View) Validate(log *slog.Logger) bool {
	ok := true
	for id := range v.overlay {
		if _, exists := v.g.Edge(id); !exists {
			ok = false
			if log != nil {
				log.Warn("pathfind: overlay references unknown edge", "edge", id.String())
			}
			delete(v.overlay, id)
		}
	}
	return ok
}
