package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// ComputeVorticity estimates vorticity, its gradient and the XSPH velocity
// smoothing term from predicted positions and the force-integrated
// velocities of this tick:
//
//	ω_i = Σ ∇W_spiky(p_i−p_j) × (v_j−v_i)
//	u_i = Σ W_poly6(p_i−p_j)·(v_j−v_i)
//	η_i = Σ |ω_i|·∇W_spiky(p_i−p_j)
//
// η is computed in a second pass after every ω is final.
func ComputeVorticity(pool *Pool, particles []components.Particle, lists NeighborLists, h float64) {
	n := len(particles)
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			var omega, smooth r3.Vec
			for _, j := range lists[i] {
				q := &particles[j]
				r := r3.Sub(p.PredictedPosition, q.PredictedPosition)
				dv := r3.Sub(q.Velocity, p.Velocity)
				omega = r3.Add(omega, r3.Cross(SpikyGradient(r, h), dv))
				smooth = r3.Add(smooth, r3.Scale(Poly6(r, h), dv))
			}
			p.Vorticity = omega
			p.VelocityGradient = smooth
		}
	})
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			mag := r3.Norm(p.Vorticity)
			var eta r3.Vec
			if mag > 0 {
				for _, j := range lists[i] {
					g := SpikyGradient(r3.Sub(p.PredictedPosition, particles[j].PredictedPosition), h)
					eta = r3.Add(eta, r3.Scale(mag, g))
				}
			}
			p.VorticityGradient = eta
		}
	})
}
