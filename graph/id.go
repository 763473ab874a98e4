package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeID is a grid coordinate. The "r,c" string form matches the map file
// format and is stable across sessions.
type NodeID struct {
	Row int
	Col int
}

func (n NodeID) String() string {
	return strconv.Itoa(n.Row) + "," + strconv.Itoa(n.Col)
}

// Less orders node ids row-major.
func (n NodeID) Less(o NodeID) bool {
	if n.Row != o.Row {
		return n.Row < o.Row
	}
	return n.Col < o.Col
}

// Manhattan returns the grid distance between two node ids.
func (n NodeID) Manhattan(o NodeID) int {
	dr := n.Row - o.Row
	if dr < 0 {
		dr = -dr
	}
	dc := n.Col - o.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// ParseNodeID parses the "r,c" form.
func ParseNodeID(s string) (NodeID, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return NodeID{}, fmt.Errorf("graph: invalid node id %q", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return NodeID{}, fmt.Errorf("graph: invalid node id %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return NodeID{}, fmt.Errorf("graph: invalid node id %q: %w", s, err)
	}
	return NodeID{Row: row, Col: col}, nil
}

// EdgeID names an undirected edge by its two endpoints. A is always the
// lesser endpoint so the same physical edge has exactly one id.
type EdgeID struct {
	A NodeID
	B NodeID
}

// NewEdgeID returns the normalized id for the edge between a and b.
func NewEdgeID(a, b NodeID) EdgeID {
	if b.Less(a) {
		a, b = b, a
	}
	return EdgeID{A: a, B: b}
}

func (e EdgeID) String() string {
	return e.A.String() + "|" + e.B.String()
}

// Other returns the endpoint opposite n, or false if n is not an endpoint.
func (e EdgeID) Other(n NodeID) (NodeID, bool) {
	switch n {
	case e.A:
		return e.B, true
	case e.B:
		return e.A, true
	}
	return NodeID{}, false
}

// ParseEdgeID parses the "r,c|r,c" form and normalizes endpoint order.
func ParseEdgeID(s string) (EdgeID, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "|")
	if !ok {
		return EdgeID{}, fmt.Errorf("graph: invalid edge id %q", s)
	}
	a, err := ParseNodeID(left)
	if err != nil {
		return EdgeID{}, err
	}
	b, err := ParseNodeID(right)
	if err != nil {
		return EdgeID{}, err
	}
	if a == b {
		return EdgeID{}, fmt.Errorf("graph: degenerate edge id %q", s)
	}
	return NewEdgeID(a, b), nil
}
