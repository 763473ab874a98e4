// Package maps loads map specifications and builds graphs from them.
// Specs are YAML documents embedded in the binary; a file with the same
// name on disk under maps/ takes precedence during development.
package maps

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/blockade/graph"
)

// Spec describes one map: a rows x cols grid with 4-neighborhood edges,
// a set of hole (goal) nodes, an agent spawn node, and optionally removed
// nodes that leave gaps in the grid.
type Spec struct {
	Name    string   `yaml:"name"`
	Rows    int      `yaml:"rows"`
	Cols    int      `yaml:"cols"`
	Spacing float64  `yaml:"spacing"`
	Spawn   string   `yaml:"spawn"`
	Holes   []string `yaml:"holes"`
	Removed []string `yaml:"removed,omitempty"`
}

// Parse decodes and validates a map spec.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("maps: parse spec: %w", err)
	}
	if s.Rows < 2 || s.Cols < 2 {
		return nil, fmt.Errorf("maps: %q: grid must be at least 2x2, got %dx%d", s.Name, s.Rows, s.Cols)
	}
	if s.Spacing <= 0 {
		s.Spacing = 48
	}
	if len(s.Holes) == 0 {
		return nil, fmt.Errorf("maps: %q: at least one hole required", s.Name)
	}
	removed, err := s.removedSet()
	if err != nil {
		return nil, err
	}
	spawn, err := s.SpawnNode()
	if err != nil {
		return nil, err
	}
	if removed[spawn] {
		return nil, fmt.Errorf("maps: %q: spawn %s is a removed node", s.Name, spawn)
	}
	for _, h := range s.Holes {
		id, err := s.nodeInRange(h)
		if err != nil {
			return nil, err
		}
		if id == spawn {
			return nil, fmt.Errorf("maps: %q: spawn %s cannot be a hole", s.Name, spawn)
		}
		if removed[id] {
			return nil, fmt.Errorf("maps: %q: hole %s is a removed node", s.Name, id)
		}
	}
	return &s, nil
}

// SpawnNode returns the agent's start node, defaulting to the grid center.
func (s *Spec) SpawnNode() (graph.NodeID, error) {
	if s.Spawn == "" {
		return graph.NodeID{Row: s.Rows / 2, Col: s.Cols / 2}, nil
	}
	return s.nodeInRange(s.Spawn)
}

// Build constructs the graph: nodes in row-major order, edges to the right
// and bottom neighbors of each cell. Hole adjacency is computed here, once.
func (s *Spec) Build() (*graph.Graph, error) {
	removed, err := s.removedSet()
	if err != nil {
		return nil, err
	}
	holes := make(map[graph.NodeID]bool, len(s.Holes))
	for _, h := range s.Holes {
		id, err := s.nodeInRange(h)
		if err != nil {
			return nil, err
		}
		holes[id] = true
	}

	g := graph.New()
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			id := graph.NodeID{Row: r, Col: c}
			if removed[id] {
				continue
			}
			g.AddNode(graph.Node{
				ID:   id,
				Hole: holes[id],
				X:    float64(c) * s.Spacing,
				Y:    float64(r) * s.Spacing,
			})
		}
	}
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			id := graph.NodeID{Row: r, Col: c}
			if removed[id] {
				continue
			}
			right := graph.NodeID{Row: r, Col: c + 1}
			if right.Col < s.Cols && !removed[right] {
				if _, err := g.AddEdge(id, right); err != nil {
					return nil, err
				}
			}
			down := graph.NodeID{Row: r + 1, Col: c}
			if down.Row < s.Rows && !removed[down] {
				if _, err := g.AddEdge(id, down); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

func (s *Spec) nodeInRange(raw string) (graph.NodeID, error) {
	id, err := graph.ParseNodeID(raw)
	if err != nil {
		return graph.NodeID{}, fmt.Errorf("maps: %q: %w", s.Name, err)
	}
	if id.Row < 0 || id.Row >= s.Rows || id.Col < 0 || id.Col >= s.Cols {
		return graph.NodeID{}, fmt.Errorf("maps: %q: node %s outside %dx%d grid", s.Name, id, s.Rows, s.Cols)
	}
	return id, nil
}

func (s *Spec) removedSet() (map[graph.NodeID]bool, error) {
	removed := make(map[graph.NodeID]bool, len(s.Removed))
	for _, raw := range s.Removed {
		id, err := s.nodeInRange(raw)
		if err != nil {
			return nil, err
		}
		removed[id] = true
	}
	return removed, nil
}
