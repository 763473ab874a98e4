// Package script runs tengo controller scripts for headless play: each
// tick the script sees a snapshot of the game and answers with the edges
// it wants toggled. Used by the simulator CLI and scenario tests.
package script

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/blockade/graph"
)

// Snapshot is the game state handed to the script, flattened to tengo
// friendly values ("r,c" node ids, "r,c|r,c" edge ids).
type Snapshot struct {
	Tick    int
	Agent   graph.NodeID
	Path    []graph.NodeID
	Blocked []graph.EdgeID
}

// Scripts must define on_tick as a function of one state argument that
// returns an array of edge id strings to toggle.
const dispatchScript = `
__toggles = on_tick(__state)
`

// Runtime is one compiled controller script.
type Runtime struct {
	compiled *tengo.Compiled
}

// New compiles src together with the dispatch stub.
func New(src []byte) (*Runtime, error) {
	full := append(append([]byte{}, src...), []byte(dispatchScript)...)
	s := tengo.NewScript(full)
	if err := s.Add("__state", map[string]any{}); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	if err := s.Add("__toggles", []any{}); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	return &Runtime{compiled: compiled}, nil
}

// Step runs the script against snap and returns the requested toggles.
func (r *Runtime) Step(snap Snapshot) ([]graph.EdgeID, error) {
	path := make([]any, len(snap.Path))
	for i, n := range snap.Path {
		path[i] = n.String()
	}
	blocked := make([]any, len(snap.Blocked))
	for i, e := range snap.Blocked {
		blocked[i] = e.String()
	}
	state := map[string]any{
		"tick":    snap.Tick,
		"agent":   snap.Agent.String(),
		"path":    path,
		"blocked": blocked,
	}
	if err := r.compiled.Set("__state", state); err != nil {
		return nil, fmt.Errorf("script: set state: %w", err)
	}
	if err := r.compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: run: %w", err)
	}

	raw := r.compiled.Get("__toggles").Array()
	toggles := make([]graph.EdgeID, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		edge, err := graph.ParseEdgeID(s)
		if err != nil {
			return nil, fmt.Errorf("script: bad toggle %q: %w", s, err)
		}
		toggles = append(toggles, edge)
	}
	return toggles, nil
}
