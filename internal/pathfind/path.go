package pathfind

import "hexfront/server/internal/hexmap"

// Node is one step of a path: the cost of the step that reached the
// position, and the position itself. The origin node carries cost 0.
type Node struct {
	Cost MoveCost   `json:"cost"`
	Pos  hexmap.Pos `json:"pos"`
}

// Path is an ordered sequence of nodes from origin to destination. It is a
// snapshot taken at reconstruction time, never mutated afterwards.
type Path struct {
	nodes     []Node
	totalCost MoveCost
}

// Len reports the number of nodes, origin included.
func (p Path) Len() int {
	return len(p.nodes)
}

// Nodes returns the path nodes in travel order.
func (p Path) Nodes() []Node {
	return p.nodes
}

// Origin returns the first position of the path.
func (p Path) Origin() hexmap.Pos {
	return p.nodes[0].Pos
}

// Destination returns the final position of the path.
func (p Path) Destination() hexmap.Pos {
	return p.nodes[len(p.nodes)-1].Pos
}

// TotalCost reports the accumulated cost of the path.
func (p Path) TotalCost() MoveCost {
	return p.totalCost
}
