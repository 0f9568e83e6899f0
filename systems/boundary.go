package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// BoundaryMode selects which position the boundary stage clamps.
type BoundaryMode uint8

const (
	// BoundaryPredicted clamps predicted positions after force integration.
	BoundaryPredicted BoundaryMode = iota
	// BoundaryFinal clamps committed positions and reflects velocity.
	BoundaryFinal
)

// BoundaryParams holds the box extents and restitution for one tick.
type BoundaryParams struct {
	HalfBounds  r3.Vec
	Restitution float64
}

// EnforceBoundary clamps every particle into [-half, half] per axis.
// In final mode each clamped axis with outward velocity is reflected:
// v += -(1+e)(v.n)n with n the inward wall normal.
func EnforceBoundary(pool *Pool, particles []components.Particle, params BoundaryParams, mode BoundaryMode) {
	half := [3]float64{params.HalfBounds.X, params.HalfBounds.Y, params.HalfBounds.Z}
	e := params.Restitution
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			pos := &p.PredictedPosition
			if mode == BoundaryFinal {
				pos = &p.Position
			}

			c := [3]float64{pos.X, pos.Y, pos.Z}
			v := [3]float64{p.Velocity.X, p.Velocity.Y, p.Velocity.Z}
			for a := 0; a < 3; a++ {
				var normal float64
				switch {
				case c[a] < -half[a]:
					c[a] = -half[a]
					normal = 1
				case c[a] > half[a]:
					c[a] = half[a]
					normal = -1
				default:
					continue
				}
				// v.n < 0 means moving into the wall
				if mode == BoundaryFinal && v[a]*normal < 0 {
					v[a] += -(1 + e) * v[a]
				}
			}

			*pos = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
			if mode == BoundaryFinal {
				p.Velocity = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
			}
		}
	})
}
