package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
)

func TestApplyExternalForces_Gravity(t *testing.T) {
	gravity, err := components.NewGravity(r3.Vec{Y: -1}, 9.81)
	require.NoError(t, err)

	particles := []components.Particle{newParticleAt(components.Water, r3.Vec{Y: 0.5})}
	ApplyExternalForces(nil, particles, []components.Emitter{gravity}, 0.1)

	p := particles[0]
	assert.InDelta(t, -0.981, p.Velocity.Y, 1e-12)
	assert.InDelta(t, 0.5-0.0981, p.PredictedPosition.Y, 1e-12)
	assert.InDelta(t, 0.5, p.Position.Y, 1e-15, "position is not committed")
}

func TestApplyExternalForces_SumsEmitters(t *testing.T) {
	gravity, err := components.NewGravity(r3.Vec{Y: -1}, 10)
	require.NoError(t, err)
	wind, err := components.NewDirectional(r3.Vec{X: 1}, 2)
	require.NoError(t, err)

	m := components.Material{Phase: components.PhaseAir, Mass: 0.5, RestDensity: 1}
	particles := []components.Particle{newParticleAt(m, r3.Vec{})}
	particles[0].Velocity = r3.Vec{Z: 1}

	ApplyExternalForces(nil, particles, []components.Emitter{gravity, wind}, 0.5)

	p := particles[0]
	assert.InDelta(t, 2, p.Velocity.X, 1e-12) // 2/0.5 * 0.5
	assert.InDelta(t, -5, p.Velocity.Y, 1e-12)
	assert.InDelta(t, 1, p.Velocity.Z, 1e-12)
	assert.InDelta(t, 1, p.PredictedPosition.X, 1e-12)
	assert.InDelta(t, -2.5, p.PredictedPosition.Y, 1e-12)
	assert.InDelta(t, 0.5, p.PredictedPosition.Z, 1e-12)
}

func TestApplyExternalForces_NoEmitters(t *testing.T) {
	particles := []components.Particle{newParticleAt(unitWater, r3.Vec{X: 1})}
	particles[0].Velocity = r3.Vec{X: 2}

	ApplyExternalForces(nil, particles, nil, 0.25)
	assert.Equal(t, r3.Vec{X: 1.5}, particles[0].PredictedPosition)
}
