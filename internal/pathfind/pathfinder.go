package pathfind

import (
	"errors"
	"fmt"

	"hexfront/server/internal/game"
	"hexfront/server/internal/hexmap"
)

var (
	// ErrOutOfBounds reports a query for a position outside the grid.
	ErrOutOfBounds = errors.New("pathfind: position out of bounds")
	// ErrUnreachable reports a path request for a cell the last fill never
	// reached. Callers should check Reachable before asking for the path.
	ErrUnreachable = errors.New("pathfind: destination unreachable")
	// ErrNotFilled reports a path or cost query before any fill.
	ErrNotFilled = errors.New("pathfind: fill has not run")
)

// Mover is the slice of unit state the fill needs: where the unit stands,
// which cost table applies, and how many move points remain.
type Mover struct {
	Pos        hexmap.Pos
	Class      game.Class
	MovePoints MoveCost
}

// tile is the per-cell scratch record for one fill pass.
type tile struct {
	cost      MoveCost
	parent    hexmap.Dir
	hasParent bool
}

// Pathfinder owns a scratch tile arena sized to the grid and reuses it
// across fills. It caches nothing across calls beyond the last fill, and
// must not be shared between concurrent queries.
type Pathfinder struct {
	width  int
	height int
	tiles  []tile
	queue  []hexmap.Pos
	origin hexmap.Pos
	filled bool
}

// New constructs a pathfinder for a grid of fixed dimensions.
func New(width, height int) *Pathfinder {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Pathfinder{
		width:  width,
		height: height,
		tiles:  make([]tile, width*height),
		queue:  make([]hexmap.Pos, 0, width*height),
	}
}

func (p *Pathfinder) inBounds(pos hexmap.Pos) bool {
	return pos.Q >= 0 && pos.R >= 0 && pos.Q < p.width && pos.R < p.height
}

func (p *Pathfinder) tileAt(pos hexmap.Pos) *tile {
	return &p.tiles[pos.Q+pos.R*p.width]
}

// reset reinitializes every scratch tile. Runs at the top of every fill so
// no stale data leaks between units.
func (p *Pathfinder) reset() {
	for i := range p.tiles {
		p.tiles[i] = tile{cost: CostUnreachable}
	}
	p.queue = p.queue[:0]
	p.filled = false
}

// Fill computes the cost field for the mover over the current grid state.
// A cell is relaxed only when the new cumulative cost strictly improves on
// its recorded cost, the cell is unoccupied, and the cost stays within the
// mover's move points. The FIFO queue re-enqueues improved cells, so a cell
// may be processed more than once; costs only decrease, so the pass
// terminates.
func (p *Pathfinder) Fill(grid hexmap.Index, mover Mover) error {
	p.reset()
	if !p.inBounds(mover.Pos) || !grid.Contains(mover.Pos) {
		return fmt.Errorf("fill from %v: %w", mover.Pos, ErrOutOfBounds)
	}

	start := p.tileAt(mover.Pos)
	start.cost = 0
	start.hasParent = false
	p.origin = mover.Pos
	p.queue = append(p.queue, mover.Pos)

	for len(p.queue) > 0 {
		pos := p.queue[0]
		p.queue = p.queue[1:]
		for dir := hexmap.Dir(0); dir < hexmap.DirCount; dir++ {
			neighbor := pos.Neighbor(dir)
			if !p.inBounds(neighbor) || !grid.Contains(neighbor) {
				continue
			}
			p.relax(grid, mover, pos, neighbor)
		}
	}
	p.filled = true
	return nil
}

func (p *Pathfinder) relax(grid hexmap.Index, mover Mover, from, to hexmap.Pos) {
	newCost := p.tileAt(from).cost + TileCost(mover.Class, grid.TerrainAt(to))
	target := p.tileAt(to)
	if target.cost <= newCost {
		return
	}
	if grid.OccupantsAt(to) > 0 {
		return
	}
	if newCost > mover.MovePoints {
		return
	}
	dirBack, ok := to.DirTo(from)
	if !ok {
		return
	}
	target.cost = newCost
	target.parent = dirBack
	target.hasParent = true
	p.queue = append(p.queue, to)
}

// Cost returns the cumulative cost recorded for pos by the last fill.
func (p *Pathfinder) Cost(pos hexmap.Pos) (MoveCost, error) {
	if !p.filled {
		return CostUnreachable, ErrNotFilled
	}
	if !p.inBounds(pos) {
		return CostUnreachable, fmt.Errorf("cost at %v: %w", pos, ErrOutOfBounds)
	}
	return p.tileAt(pos).cost, nil
}

// Reachable reports whether the last fill reached pos within the mover's
// budget.
func (p *Pathfinder) Reachable(pos hexmap.Pos) bool {
	cost, err := p.Cost(pos)
	return err == nil && cost < CostUnreachable
}

// PathTo reconstructs the cheapest path from the fill origin to the
// destination by walking parent directions back to the zero-cost origin.
// Each node carries the incremental cost of entering its cell; the total
// equals the destination's recorded cost. The walk is capped by the tile
// count so corrupted parent pointers cannot loop forever.
func (p *Pathfinder) PathTo(destination hexmap.Pos) (Path, error) {
	if !p.filled {
		return Path{}, ErrNotFilled
	}
	if !p.inBounds(destination) {
		return Path{}, fmt.Errorf("path to %v: %w", destination, ErrOutOfBounds)
	}
	if p.tileAt(destination).cost >= CostUnreachable {
		return Path{}, fmt.Errorf("path to %v: %w", destination, ErrUnreachable)
	}

	nodes := make([]Node, 0, 8)
	pos := destination
	for steps := 0; ; steps++ {
		if steps > len(p.tiles) {
			return Path{}, fmt.Errorf("path to %v: parent chain exceeds grid size", destination)
		}
		current := p.tileAt(pos)
		if current.cost == 0 {
			if pos != p.origin {
				return Path{}, fmt.Errorf("path to %v: backtrack ended at %v, not the fill origin", destination, pos)
			}
			nodes = append(nodes, Node{Cost: 0, Pos: pos})
			break
		}
		if !current.hasParent {
			return Path{}, fmt.Errorf("path to %v: missing parent at %v", destination, pos)
		}
		parentPos := pos.Neighbor(current.parent)
		if !p.inBounds(parentPos) {
			return Path{}, fmt.Errorf("path to %v: parent %v out of bounds", destination, parentPos)
		}
		nodes = append(nodes, Node{Cost: current.cost - p.tileAt(parentPos).cost, Pos: pos})
		pos = parentPos
	}

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return Path{nodes: nodes, totalCost: p.tileAt(destination).cost}, nil
}
