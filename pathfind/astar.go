// Package pathfind computes and incrementally repairs the agent's route to
// the nearest reachable hole.
package pathfind

import (
	"container/heap"

	"github.com/milk9111/blockade/graph"
)

// Search runs multi-goal A* from start over the view's adjacency. The
// heuristic is the minimum Manhattan distance to any goal. It returns the
// node sequence from start to the first goal reached, or nil when no goal
// is reachable. Equal f-scores break ties toward the lower node id so the
// same graph always yields the same path.
func Search(v *View, start graph.NodeID, goals []graph.NodeID) []graph.NodeID {
	if len(goals) == 0 {
		return nil
	}
	goalSet := make(map[graph.NodeID]bool, len(goals))
	for _, g := range goals {
		goalSet[g] = true
	}
	if goalSet[start] {
		return []graph.NodeID{start}
	}

	open := &openSet{}
	heap.Init(open)

	gScore := map[graph.NodeID]int{start: 0}
	cameFrom := map[graph.NodeID]graph.NodeID{}
	closed := map[graph.NodeID]bool{}

	heap.Push(open, &openItem{node: start, f: heuristic(start, goals)})

	for open.Len() > 0 {
		current := heap.Pop(open).(*openItem)
		cur := current.node
		if closed[cur] {
			continue
		}
		closed[cur] = true

		if goalSet[cur] {
			return reconstructPath(cameFrom, start, cur)
		}

		for _, n := range v.Neighbors(cur) {
			if closed[n] {
				continue
			}
			tentativeG := gScore[cur] + 1
			if best, seen := gScore[n]; seen && tentativeG >= best {
				continue
			}
			cameFrom[n] = cur
			gScore[n] = tentativeG
			heap.Push(open, &openItem{
				node: n,
				g:    tentativeG,
				f:    tentativeG + heuristic(n, goals),
			})
		}
	}

	return nil
}

func heuristic(n graph.NodeID, goals []graph.NodeID) int {
	best := -1
	for _, g := range goals {
		d := n.Manhattan(g)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func reconstructPath(cameFrom map[graph.NodeID]graph.NodeID, start, goal graph.NodeID) []graph.NodeID {
	path := []graph.NodeID{goal}
	cur := goal
	for cur != start {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type openItem struct {
	node  graph.NodeID
	f     int
	g     int
	index int
}

type openSet []*openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].node.Less(o[j].node)
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
