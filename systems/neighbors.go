package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// NeighborLists holds one neighbor index list per particle slot.
// Lists are truncated and refilled each tick, never reallocated.
type NeighborLists [][]int

// NewNeighborLists allocates n empty lists with a small initial capacity.
func NewNeighborLists(n int) NeighborLists {
	lists := make(NeighborLists, n)
	for i := range lists {
		lists[i] = make([]int, 0, 32)
	}
	return lists
}

// Total returns the number of stored neighbor entries.
func (nl NeighborLists) Total() int {
	total := 0
	for _, l := range nl {
		total += len(l)
	}
	return total
}

// RebuildGrid inserts every predicted position into the grid.
// Runs single-threaded since the grid is not safe for concurrent insertion.
func RebuildGrid(grid *SpatialHashGrid, particles []components.Particle, radius float64) {
	grid.SetCellSize(radius)
	grid.Clear()
	for i := range particles {
		grid.Insert(i, particles[i].PredictedPosition)
	}
}

// FindNeighbors fills lists with every j != i strictly closer than radius
// to particle i, in grid traversal order. The grid is read-only here.
func FindNeighbors(pool *Pool, grid *SpatialHashGrid, particles []components.Particle, lists NeighborLists, radius float64) {
	radiusSq := radius * radius
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			pi := particles[i].PredictedPosition
			list := lists[i][:0]
			grid.Visit(pi, func(j int) bool {
				if j != i && r3.Norm2(r3.Sub(pi, particles[j].PredictedPosition)) < radiusSq {
					list = append(list, j)
				}
				return true
			})
			lists[i] = list
		}
	})
}
