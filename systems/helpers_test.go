package systems

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

var unitWater = components.Material{Phase: components.PhaseWater, Mass: 1, RestDensity: 1}
var unitAir = components.Material{Phase: components.PhaseAir, Mass: 1, RestDensity: 1}

// newParticleAt creates a particle with both positions set to pos.
func newParticleAt(m components.Material, pos r3.Vec) components.Particle {
	p := components.NewParticle(m)
	p.Place(pos)
	return p
}

// latticeParticles places k^3 particles of material m with the given spacing,
// centered on the origin.
func latticeParticles(m components.Material, k int, spacing float64) []components.Particle {
	off := spacing * float64(k-1) / 2
	particles := make([]components.Particle, 0, k*k*k)
	for x := 0; x < k; x++ {
		for y := 0; y < k; y++ {
			for z := 0; z < k; z++ {
				pos := r3.Vec{X: float64(x)*spacing - off, Y: float64(y)*spacing - off, Z: float64(z)*spacing - off}
				particles = append(particles, newParticleAt(m, pos))
			}
		}
	}
	return particles
}

// randomParticles scatters n particles uniformly in [-half, half]^3 with a fixed seed.
func randomParticles(n int, half float64, seed uint64) []components.Particle {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	particles := make([]components.Particle, n)
	for i := range particles {
		m := unitAir
		if i%2 == 0 {
			m = unitWater
		}
		pos := r3.Vec{
			X: (rng.Float64()*2 - 1) * half,
			Y: (rng.Float64()*2 - 1) * half,
			Z: (rng.Float64()*2 - 1) * half,
		}
		particles[i] = newParticleAt(m, pos)
	}
	return particles
}

// buildNeighbors rebuilds the grid and neighbor lists for particles.
func buildNeighbors(pool *Pool, particles []components.Particle, h float64) NeighborLists {
	grid := NewSpatialHashGrid(h)
	RebuildGrid(grid, particles, h)
	lists := NewNeighborLists(len(particles))
	FindNeighbors(pool, grid, particles, lists, h)
	return lists
}
