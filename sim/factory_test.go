package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

func layoutParams(n, water int, bounds r3.Vec) LayoutParams {
	return LayoutParams{
		Count:      n,
		WaterCount: water,
		Bounds:     bounds,
		Air:        components.Air,
		Water:      components.Water,
	}
}

func TestLatticeLayout_EightParticles(t *testing.T) {
	ps, err := LatticeLayout(layoutParams(8, 4, r3.Vec{X: 2, Y: 2, Z: 2}))
	require.NoError(t, err)
	require.Len(t, ps, 8)

	for i := range ps {
		p := ps[i].Position
		for _, c := range []float64{p.X, p.Y, p.Z} {
			assert.InDelta(t, 0.5, math.Abs(c), 1e-12, "particle %d", i)
		}
		assert.Equal(t, ps[i].Position, ps[i].PredictedPosition)
		assert.Equal(t, r3.Vec{}, ps[i].Velocity)
	}

	// Water fills the bottom layer
	for i := 0; i < 4; i++ {
		assert.Equal(t, components.PhaseWater, ps[i].Phase())
		assert.InDelta(t, -0.5, ps[i].Position.Y, 1e-12)
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, components.PhaseAir, ps[i].Phase())
		assert.InDelta(t, 0.5, ps[i].Position.Y, 1e-12)
	}
}

func TestLatticeLayout_PartialLattice(t *testing.T) {
	bounds := r3.Vec{X: 3, Y: 1, Z: 2}
	params := layoutParams(30, 14, bounds)
	ps, err := LatticeLayout(params)
	require.NoError(t, err)
	require.NoError(t, checkLayout(ps, params))

	seen := make(map[r3.Vec]bool, len(ps))
	maxWaterY, minAirY := -1e9, 1e9
	for i := range ps {
		pos := ps[i].Position
		assert.False(t, seen[pos], "duplicate position %v", pos)
		seen[pos] = true

		if ps[i].Phase() == components.PhaseWater {
			maxWaterY = max(maxWaterY, pos.Y)
		} else {
			minAirY = min(minAirY, pos.Y)
		}
	}
	assert.LessOrEqual(t, maxWaterY, minAirY)
}

func TestLatticeLayout_SingleParticleAtOrigin(t *testing.T) {
	ps, err := LatticeLayout(layoutParams(1, 0, r3.Vec{X: 2, Y: 2, Z: 2}))
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, r3.Vec{}, ps[0].Position)
	assert.Equal(t, components.PhaseAir, ps[0].Phase())
}

func TestLatticeLayout_Empty(t *testing.T) {
	ps, err := LatticeLayout(layoutParams(0, 0, r3.Vec{X: 1, Y: 1, Z: 1}))
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestCheckLayout(t *testing.T) {
	params := layoutParams(8, 4, r3.Vec{X: 2, Y: 2, Z: 2})

	ps, err := LatticeLayout(params)
	require.NoError(t, err)
	assert.NoError(t, checkLayout(ps, params))

	assert.ErrorIs(t, checkLayout(ps[:7], params), errLayoutCount)

	zero := make([]components.Particle, 8)
	copy(zero, ps)
	zero[3] = components.Particle{}
	assert.ErrorIs(t, checkLayout(zero, params), components.ErrNonPositiveMass)

	ps[2].Place(r3.Vec{Z: 1.5})
	assert.ErrorContains(t, checkLayout(ps, params), "outside bounds")
}
