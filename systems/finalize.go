package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// FinalizeParams holds the coefficients applied when committing a tick.
type FinalizeParams struct {
	DT               float64
	SurfaceTension   float64
	InterfaceEpsilon float64
}

// Finalize derives velocity from the position delta, adds the reactive
// surface stress, vorticity confinement and viscosity, then commits the
// predicted position.
func Finalize(pool *Pool, particles []components.Particle, params FinalizeParams) {
	invDT := 1 / params.DT
	eps := params.InterfaceEpsilon
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			v := r3.Scale(invDT, r3.Sub(p.PredictedPosition, p.Position))

			v = r3.Add(v, ReactiveStress(p.MassRatio, p.MassRatioGradient, params.SurfaceTension, eps, params.DT))

			if n := safeUnit(p.VorticityGradient); n != (r3.Vec{}) {
				v = r3.Add(v, r3.Scale(eps*eps*params.DT, r3.Cross(n, p.Vorticity)))
			}

			v = r3.Add(v, r3.Scale(eps, p.VelocityGradient))

			p.Velocity = v
			p.Position = p.PredictedPosition
		}
	})
}

// surfaceStress is Sf(g) = -6 sqrt(2) eps |g| g.
func surfaceStress(g r3.Vec, eps float64) r3.Vec {
	return r3.Scale(-6*math.Sqrt2*eps*r3.Norm(g), g)
}

// ReactiveStress returns the velocity change from interfacial tension:
// sigma/2 (Sf(grad c) - Sf(-grad c)) 5c(1-c) dt. The second term is the
// reaction of the other phase, whose ratio gradient is -grad c.
func ReactiveStress(c float64, gradC r3.Vec, sigma, eps, dt float64) r3.Vec {
	own := surfaceStress(gradC, eps)
	other := surfaceStress(r3.Scale(-1, gradC), eps)
	return r3.Scale(sigma/2*5*c*(1-c)*dt, r3.Sub(own, other))
}
