// Package systems implements the per-tick passes of the fluid pipeline.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y, Z int
}

// cellOffsets is the fixed 27-cell traversal order used by every query.
var cellOffsets = func() [27]Cell {
	var offs [27]Cell
	i := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				offs[i] = Cell{dx, dy, dz}
				i++
			}
		}
	}
	return offs
}()

// SpatialHashGrid is an unbounded 3D hash grid from cells to particle indices.
// It is rebuilt every tick and never holds particle state.
type SpatialHashGrid struct {
	cellSize float64
	cells    map[Cell][]int
	count    int
}

// NewSpatialHashGrid creates a grid whose cell edge equals the neighbor radius.
func NewSpatialHashGrid(cellSize float64) *SpatialHashGrid {
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[Cell][]int),
	}
}

// CellSize returns the cell edge length.
func (g *SpatialHashGrid) CellSize() float64 {
	return g.cellSize
}

// SetCellSize changes the cell edge length and drops all entries.
func (g *SpatialHashGrid) SetCellSize(cellSize float64) {
	if cellSize == g.cellSize {
		return
	}
	g.cellSize = cellSize
	clear(g.cells)
	g.count = 0
}

// CellOf returns the cell containing pos.
func (g *SpatialHashGrid) CellOf(pos r3.Vec) Cell {
	return Cell{
		X: int(math.Floor(pos.X / g.cellSize)),
		Y: int(math.Floor(pos.Y / g.cellSize)),
		Z: int(math.Floor(pos.Z / g.cellSize)),
	}
}

// Clear removes all indices from the grid, keeping cell capacity for reuse.
func (g *SpatialHashGrid) Clear() {
	for c, idx := range g.cells {
		g.cells[c] = idx[:0]
	}
	g.count = 0
}

// Insert adds a particle index at the given position.
func (g *SpatialHashGrid) Insert(index int, pos r3.Vec) {
	c := g.CellOf(pos)
	g.cells[c] = append(g.cells[c], index)
	g.count++
}

// Len returns the number of stored indices.
func (g *SpatialHashGrid) Len() int {
	return g.count
}

// Visit calls fn for every index stored in the 27 cells around pos.
// Iteration stops early if fn returns false.
func (g *SpatialHashGrid) Visit(pos r3.Vec, fn func(index int) bool) {
	center := g.CellOf(pos)
	for _, off := range cellOffsets {
		c := Cell{center.X + off.X, center.Y + off.Y, center.Z + off.Z}
		for _, idx := range g.cells[c] {
			if !fn(idx) {
				return
			}
		}
	}
}

// QueryInto appends candidate indices from the 27 cells around pos to dst.
// Reuse dst across calls to avoid allocations.
func (g *SpatialHashGrid) QueryInto(dst []int, pos r3.Vec) []int {
	center := g.CellOf(pos)
	for _, off := range cellOffsets {
		c := Cell{center.X + off.X, center.Y + off.Y, center.Z + off.Z}
		dst = append(dst, g.cells[c]...)
	}
	return dst
}

// Query returns candidate indices from the 27 cells around pos.
func (g *SpatialHashGrid) Query(pos r3.Vec) []int {
	return g.QueryInto(nil, pos)
}
