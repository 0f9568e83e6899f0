package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// SolverParams holds the density constraint solver settings for one tick.
type SolverParams struct {
	Radius     float64
	Iterations int
	Relaxation float64 // epsilon added to the lambda denominator
	Unilateral bool    // clamp C to >= 0 before computing lambda
}

// SweepResidual summarizes the density constraint at the start of a sweep.
type SweepResidual struct {
	MeanAbs float64
	Max     float64
}

// SolveDensity runs params.Iterations Jacobi sweeps and returns the residual
// observed at the start of each sweep. Reuse dst across ticks.
func SolveDensity(pool *Pool, particles []components.Particle, lists NeighborLists, params SolverParams, dst []SweepResidual) []SweepResidual {
	dst = dst[:0]
	for it := 0; it < params.Iterations; it++ {
		dst = append(dst, DensitySweep(pool, particles, lists, params))
	}
	return dst
}

// DensitySweep runs one Jacobi iteration as five barrier-separated passes:
// density, constraint gradients, lambda, position correction, apply.
func DensitySweep(pool *Pool, particles []components.Particle, lists NeighborLists, params SolverParams) SweepResidual {
	ComputeDensity(pool, particles, lists, params.Radius)
	res := Residual(particles, params.Unilateral)
	ComputeConstraintGradients(pool, particles, lists, params.Radius)
	ComputeLambda(pool, particles, params)
	ComputePositionCorrection(pool, particles, lists, params.Radius)
	ApplyPositionCorrection(pool, particles)
	return res
}

// ComputeDensity sets rho_i = m_i W(0) + sum_j m_j W(p_i - p_j).
func ComputeDensity(pool *Pool, particles []components.Particle, lists NeighborLists, h float64) {
	w0 := Poly6Zero(h)
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			rho := p.Mass() * w0
			for _, j := range lists[i] {
				q := &particles[j]
				rho += q.Mass() * Poly6(r3.Sub(p.PredictedPosition, q.PredictedPosition), h)
			}
			p.Density = rho
		}
	})
}

// ComputeConstraintGradients sets the constraint gradient
// sum_j m_j gradW(p_j - p_i) / rho0_i and the lambda denominator
// |sum_j g_ij|^2 + sum_j |g_ij|^2.
func ComputeConstraintGradients(pool *Pool, particles []components.Particle, lists NeighborLists, h float64) {
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			inv := 1 / p.RestDensity()

			var grad, self r3.Vec
			var sumSq float64
			for _, j := range lists[i] {
				q := &particles[j]
				g := SpikyGradient(r3.Sub(p.PredictedPosition, q.PredictedPosition), h)
				g = r3.Scale(q.Mass()*inv, g)
				self = r3.Add(self, g)
				sumSq += r3.Norm2(g)
				grad = r3.Sub(grad, g)
			}
			p.DensityConstraintGradient = grad
			p.DensityConstraintGradientSum = r3.Norm2(self) + sumSq
		}
	})
}

// ComputeLambda sets lambda_i = -C_i / (gradient sum + relaxation).
func ComputeLambda(pool *Pool, particles []components.Particle, params SolverParams) {
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			c := p.DensityConstraint()
			if params.Unilateral && c < 0 {
				c = 0
			}
			p.Lambda = -c / (p.DensityConstraintGradientSum + params.Relaxation)
		}
	})
}

// ComputePositionCorrection sets
// dp_i = sum_j (lambda_i m_j / rho0_i + lambda_j m_i / rho0_j) gradW(p_i - p_j).
// Only neighbors' lambdas are read, never their positions' corrections.
func ComputePositionCorrection(pool *Pool, particles []components.Particle, lists NeighborLists, h float64) {
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			var dp r3.Vec
			for _, j := range lists[i] {
				q := &particles[j]
				s := p.Lambda*q.Mass()/p.RestDensity() + q.Lambda*p.Mass()/q.RestDensity()
				g := SpikyGradient(r3.Sub(p.PredictedPosition, q.PredictedPosition), h)
				dp = r3.Add(dp, r3.Scale(s, g))
			}
			p.PositionCorrection = dp
		}
	})
}

// ApplyPositionCorrection adds the correction to the predicted position.
func ApplyPositionCorrection(pool *Pool, particles []components.Particle) {
	pool.Run(len(particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &particles[i]
			p.PredictedPosition = r3.Add(p.PredictedPosition, p.PositionCorrection)
		}
	})
}

// Residual returns mean and max |C| from the current densities.
// With unilateral set, under-dense particles count as satisfied.
func Residual(particles []components.Particle, unilateral bool) SweepResidual {
	if len(particles) == 0 {
		return SweepResidual{}
	}
	var sum, mx float64
	for i := range particles {
		c := particles[i].DensityConstraint()
		if unilateral && c < 0 {
			c = 0
		}
		c = math.Abs(c)
		sum += c
		mx = max(mx, c)
	}
	return SweepResidual{MeanAbs: sum / float64(len(particles)), Max: mx}
}
