package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSpatialHashGrid_CellOfFloorsNegatives(t *testing.T) {
	g := NewSpatialHashGrid(0.5)

	assert.Equal(t, Cell{0, 0, 0}, g.CellOf(r3.Vec{X: 0.1, Y: 0.49, Z: 0}))
	assert.Equal(t, Cell{-1, 0, -2}, g.CellOf(r3.Vec{X: -0.1, Y: 0.05, Z: -1.0}))
	assert.Equal(t, Cell{2, -3, 1}, g.CellOf(r3.Vec{X: 1.0, Y: -1.2, Z: 0.5}))
}

func TestSpatialHashGrid_Query27Cells(t *testing.T) {
	g := NewSpatialHashGrid(1)

	g.Insert(0, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})   // center cell
	g.Insert(1, r3.Vec{X: -0.5, Y: 1.5, Z: 0.5})  // diagonal neighbor cell
	g.Insert(2, r3.Vec{X: 1.9, Y: -0.9, Z: -0.1}) // corner neighbor cell
	g.Insert(3, r3.Vec{X: 2.5, Y: 0.5, Z: 0.5})   // two cells away
	g.Insert(4, r3.Vec{X: 0.5, Y: 0.5, Z: -1.5})  // two cells away
	g.Insert(5, r3.Vec{X: 100, Y: -100, Z: 1e3})  // far outside any bounds, still hashed
	require.Equal(t, 6, g.Len())

	got := g.Query(r3.Vec{X: 0.2, Y: 0.7, Z: 0.9})
	assert.ElementsMatch(t, []int{0, 1, 2}, got)

	assert.Equal(t, []int{5}, g.Query(r3.Vec{X: 100.5, Y: -99.5, Z: 1000.5}))
}

func TestSpatialHashGrid_DeterministicOrder(t *testing.T) {
	g := NewSpatialHashGrid(0.3)
	particles := randomParticles(200, 1, 7)
	for i := range particles {
		g.Insert(i, particles[i].Position)
	}

	pos := r3.Vec{X: 0.1, Y: -0.2, Z: 0.05}
	first := g.Query(pos)
	second := g.QueryInto(make([]int, 0, 8), pos)
	assert.Equal(t, first, second)

	var visited []int
	g.Visit(pos, func(idx int) bool {
		visited = append(visited, idx)
		return true
	})
	assert.Equal(t, first, visited)
}

func TestSpatialHashGrid_VisitStopsEarly(t *testing.T) {
	g := NewSpatialHashGrid(1)
	for i := 0; i < 10; i++ {
		g.Insert(i, r3.Vec{})
	}

	count := 0
	g.Visit(r3.Vec{}, func(int) bool {
		count++
		return count < 3
	})
	assert.Equal(t, 3, count)
}

func TestSpatialHashGrid_ClearKeepsCapacity(t *testing.T) {
	g := NewSpatialHashGrid(1)
	for i := 0; i < 16; i++ {
		g.Insert(i, r3.Vec{X: 0.5})
	}

	g.Clear()
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Query(r3.Vec{X: 0.5}))

	cell := g.cells[Cell{0, 0, 0}]
	assert.Empty(t, cell)
	assert.GreaterOrEqual(t, cap(cell), 16)

	g.Insert(3, r3.Vec{X: 0.5})
	assert.Equal(t, []int{3}, g.Query(r3.Vec{X: 0.5}))
}

func TestSpatialHashGrid_SetCellSize(t *testing.T) {
	g := NewSpatialHashGrid(1)
	g.Insert(0, r3.Vec{X: 0.5})

	g.SetCellSize(1)
	assert.Equal(t, 1, g.Len(), "same size keeps entries")

	g.SetCellSize(0.25)
	assert.Zero(t, g.Len())
	assert.InDelta(t, 0.25, g.CellSize(), 1e-15)
	assert.Equal(t, Cell{2, 0, 0}, g.CellOf(r3.Vec{X: 0.5}))
	assert.Empty(t, g.Query(r3.Vec{X: 0.5}))
}
