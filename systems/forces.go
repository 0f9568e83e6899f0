package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// ApplyExternalForces integrates emitter accelerations into velocity and
// writes the predicted position position + v*dt.
func ApplyExternalForces(pool *Pool, particles []components.Particle, emitters []components.Emitter, dt float64) {
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			for _, e := range emitters {
				p.Velocity = r3.Add(p.Velocity, r3.Scale(dt, e.Acceleration(p)))
			}
			p.PredictedPosition = r3.Add(p.Position, r3.Scale(dt, p.Velocity))
		}
	})
}
