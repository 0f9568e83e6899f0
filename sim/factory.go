package sim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

// LayoutParams describes the particle population a layout must produce.
type LayoutParams struct {
	Count      int
	WaterCount int // first WaterCount particles are water, the rest air
	Bounds     r3.Vec
	Air        components.Material
	Water      components.Material
}

// LayoutFunc places the initial particles. It must return exactly
// params.Count particles inside the bounds box.
type LayoutFunc func(params LayoutParams) ([]components.Particle, error)

var errLayoutCount = errors.New("layout returned wrong particle count")

// LatticeLayout fills the box with a regular k*k*k lattice, k = ceil(cbrt(n)),
// starting from the bottom layer. Water particles come first so the heavier
// phase starts underneath.
func LatticeLayout(params LayoutParams) ([]components.Particle, error) {
	n := params.Count
	if n <= 0 {
		return nil, nil
	}

	k := int(math.Ceil(math.Cbrt(float64(n))))
	for k*k*k < n {
		k++
	}
	for k > 1 && (k-1)*(k-1)*(k-1) >= n {
		k--
	}

	spacing := r3.Scale(1/float64(k), params.Bounds)
	half := r3.Scale(0.5, params.Bounds)

	particles := make([]components.Particle, n)
	for i := range particles {
		y := i / (k * k)
		rem := i % (k * k)
		x := rem / k
		z := rem % k

		m := params.Air
		if i < params.WaterCount {
			m = params.Water
		}
		p := components.NewParticle(m)
		p.Place(r3.Vec{
			X: (float64(x)+0.5)*spacing.X - half.X,
			Y: (float64(y)+0.5)*spacing.Y - half.Y,
			Z: (float64(z)+0.5)*spacing.Z - half.Z,
		})
		particles[i] = p
	}
	return particles, nil
}

// checkLayout verifies a generated population before it replaces the current one.
func checkLayout(particles []components.Particle, params LayoutParams) error {
	if len(particles) != params.Count {
		return fmt.Errorf("%w: got %d, want %d", errLayoutCount, len(particles), params.Count)
	}
	half := r3.Scale(0.5, params.Bounds)
	const slack = 1e-9
	for i := range particles {
		p := &particles[i]
		if p.Phase() != components.PhaseAir && p.Phase() != components.PhaseWater {
			return fmt.Errorf("particle %d: %w", i, components.ErrUnknownPhase)
		}
		if !(p.Mass() > 0) {
			return fmt.Errorf("particle %d: %w", i, components.ErrNonPositiveMass)
		}
		if !(p.RestDensity() > 0) {
			return fmt.Errorf("particle %d: %w", i, components.ErrNonPositiveDensity)
		}
		pos := p.Position
		if !(math.Abs(pos.X) <= half.X+slack && math.Abs(pos.Y) <= half.Y+slack && math.Abs(pos.Z) <= half.Z+slack) {
			return fmt.Errorf("particle %d: position %v outside bounds", i, pos)
		}
	}
	return nil
}
