package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// PhaseParams holds the diffuse-interface coefficients for one tick.
type PhaseParams struct {
	Radius                 float64
	DiffusionalCoefficient float64
	InterfaceEpsilon       float64
}

// UpdatePhaseField computes mass ratio, its gradient and the chemical
// potential. The gradient pass reads neighbor ratios, so the two passes
// are separated by a barrier.
func UpdatePhaseField(pool *Pool, particles []components.Particle, lists NeighborLists, params PhaseParams) {
	n := len(particles)
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			computeMassRatio(particles, lists[i], i, params.Radius)
		}
	})
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			computeChemicalPotential(particles, lists[i], i, params)
		}
	})
}

// computeMassRatio sets c_i = own / (own + other) over the neighborhood.
// Isolated particles get zero.
func computeMassRatio(particles []components.Particle, neighbors []int, i int, h float64) {
	p := &particles[i]
	var own, other float64
	for _, j := range neighbors {
		q := &particles[j]
		w := q.Mass() * Poly6(r3.Sub(p.PredictedPosition, q.PredictedPosition), h)
		if q.Phase() == p.Phase() {
			own += w
		} else {
			other += w
		}
	}

	total := own + other
	if total <= 0 {
		p.MassRatio = 0
		return
	}
	p.MassRatio = clamp01(own / total)
}

// computeChemicalPotential evaluates the volume-weighted ratio gradient and
// the double-well potential D*2(c-0.5)(1-c-0.5)(2c) - eps^2 |grad c|^2.
func computeChemicalPotential(particles []components.Particle, neighbors []int, i int, params PhaseParams) {
	p := &particles[i]
	c := p.MassRatio

	var grad r3.Vec
	for _, j := range neighbors {
		q := &particles[j]
		w := Poly6Gradient(r3.Sub(p.PredictedPosition, q.PredictedPosition), params.Radius)
		grad = r3.Add(grad, r3.Scale(q.Volume()*(q.MassRatio-c), w))
	}
	p.MassRatioGradient = grad

	eps := params.InterfaceEpsilon
	p.ChemicalPotential = params.DiffusionalCoefficient*2*(c-0.5)*(1-c-0.5)*(2*c) - eps*eps*r3.Norm2(grad)
}
