// Package grid implements the spatial grid partition: a derived index
// mapping planar (XZ) cells to the entities inside them, used for O(1)
// cell lookup and superset radius queries. It has no independent source of
// truth; it is always rebuilt from or maintained alongside a world.
package grid

import (
	"math"

	"worldkernel/internal/kernel/entity"
)

// Coord is a 2D integer cell coordinate in the XZ plane. The Y axis is
// ignored; this is a planar partition.
type Coord struct {
	I, J int32
}

// Partition maps cell coordinates to the set of entity ids inside them,
// plus the reverse index needed for O(1) removal and update.
type Partition struct {
	cellSize float64
	cells    map[Coord]map[entity.ID]struct{}
	index    map[entity.ID]Coord
}

// New creates an empty grid with the given cell size, which must be > 0.
func New(cellSize float64) *Partition {
	if cellSize <= 0 {
		panic("grid: cell_size must be > 0")
	}
	return &Partition{
		cellSize: cellSize,
		cells:    make(map[Coord]map[entity.ID]struct{}),
		index:    make(map[entity.ID]Coord),
	}
}

// CellOf returns the cell coordinate containing a position: floor(x/size),
// floor(z/size). Entities on a cell boundary are deterministically assigned
// by this floor to the cell whose lower edge they lie on (x = size lands in
// cell 1, not cell 0).
func (p *Partition) CellOf(pos entity.Vec3) Coord {
	return Coord{
		I: int32(math.Floor(pos.X / p.cellSize)),
		J: int32(math.Floor(pos.Z / p.cellSize)),
	}
}

// Rebuild clears the grid and reinserts every entity yielded by iter
// (typically World.Iter), keyed by its current transform's position.
// O(n) in entity count.
func (p *Partition) Rebuild(iter func(func(entity.Data))) {
	p.cells = make(map[Coord]map[entity.ID]struct{})
	p.index = make(map[entity.ID]Coord)
	iter(func(d entity.Data) {
		p.Insert(d.ID, d.Transform.Position)
	})
}

// Insert places id into the cell containing pos. If id was already tracked
// it is not automatically removed from its old cell; callers maintaining a
// live index should use Update instead.
func (p *Partition) Insert(id entity.ID, pos entity.Vec3) {
	c := p.CellOf(pos)
	p.insertAt(id, c)
}

func (p *Partition) insertAt(id entity.ID, c Coord) {
	set, ok := p.cells[c]
	if !ok {
		set = make(map[entity.ID]struct{})
		p.cells[c] = set
	}
	set[id] = struct{}{}
	p.index[id] = c
}

// Remove drops id from the grid entirely. A no-op if id is not tracked.
func (p *Partition) Remove(id entity.ID) {
	c, ok := p.index[id]
	if !ok {
		return
	}
	p.removeFrom(id, c)
	delete(p.index, id)
}

func (p *Partition) removeFrom(id entity.ID, c Coord) {
	set, ok := p.cells[c]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(p.cells, c)
	}
}

// Update moves id to the cell containing newPos, a no-op if the cell is
// unchanged. If id is not yet tracked, Update behaves like Insert.
func (p *Partition) Update(id entity.ID, newPos entity.Vec3) {
	next := p.CellOf(newPos)
	prev, tracked := p.index[id]
	if tracked && prev == next {
		return
	}
	if tracked {
		p.removeFrom(id, prev)
	}
	p.insertAt(id, next)
}

// CellCount reports the number of non-empty cells.
func (p *Partition) CellCount() int { return len(p.cells) }

// EntitiesInCell returns the ids tracked in the given cell. The returned
// set is a defensive copy.
func (p *Partition) EntitiesInCell(c Coord) map[entity.ID]struct{} {
	out := make(map[entity.ID]struct{})
	for id := range p.cells[c] {
		out[id] = struct{}{}
	}
	return out
}

// EntitiesInRadius returns the union of entities in every cell intersecting
// the axis-aligned XZ square of side 2r centered on center. This may be a
// superset of the true radius result; callers needing exact filtering must
// re-test distances themselves. r <= 0 returns only the cell containing
// center. The number of cells inspected is at most (2*ceil(r/cell_size)+1)^2.
func (p *Partition) EntitiesInRadius(center entity.Vec3, r float64) map[entity.ID]struct{} {
	out := make(map[entity.ID]struct{})
	centerCell := p.CellOf(center)
	if r <= 0 {
		for id := range p.cells[centerCell] {
			out[id] = struct{}{}
		}
		return out
	}

	reach := int32(math.Ceil(r / p.cellSize))
	for di := -reach; di <= reach; di++ {
		for dj := -reach; dj <= reach; dj++ {
			c := Coord{I: centerCell.I + di, J: centerCell.J + dj}
			for id := range p.cells[c] {
				out[id] = struct{}{}
			}
		}
	}
	return out
}
