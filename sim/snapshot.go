package sim

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
	"github.com/pthm-cable/phasefluid/systems"
)

// ParticleState is the read-only view of one particle handed to hosts.
type ParticleState struct {
	Position  r3.Vec
	Velocity  r3.Vec
	Phase     components.Phase
	Density   float64
	MassRatio float64
}

func stateOf(p *components.Particle) ParticleState {
	return ParticleState{
		Position:  p.Position,
		Velocity:  p.Velocity,
		Phase:     p.Phase(),
		Density:   p.Density,
		MassRatio: p.MassRatio,
	}
}

// Len returns the particle count, zero outside Ready.
func (s *Simulation) Len() int {
	if s.state != StateReady {
		return 0
	}
	return len(s.particles)
}

// Particle returns the state of particle i.
func (s *Simulation) Particle(i int) (ParticleState, error) {
	if s.state != StateReady {
		return ParticleState{}, &InvalidStateError{Op: "read particle", State: s.state}
	}
	if i < 0 || i >= len(s.particles) {
		return ParticleState{}, fmt.Errorf("particle %d of %d: %w", i, len(s.particles), ErrIndexOutOfRange)
	}
	return stateOf(&s.particles[i]), nil
}

// Snapshot appends the state of every particle to dst and returns it.
func (s *Simulation) Snapshot(dst []ParticleState) ([]ParticleState, error) {
	if s.state != StateReady {
		return dst, &InvalidStateError{Op: "snapshot", State: s.state}
	}
	dst = slices.Grow(dst, len(s.particles))
	for i := range s.particles {
		dst = append(dst, stateOf(&s.particles[i]))
	}
	return dst, nil
}

// Particles exposes the live particle store for telemetry. Callers must not
// modify it and must not hold it across Step, Reset or Dispose.
func (s *Simulation) Particles() ([]components.Particle, error) {
	if s.state != StateReady {
		return nil, &InvalidStateError{Op: "read particles", State: s.state}
	}
	return s.particles, nil
}

// Neighbors returns a copy of the neighbor indices of particle i found in the
// last step.
func (s *Simulation) Neighbors(i int) ([]int, error) {
	if s.state != StateReady {
		return nil, &InvalidStateError{Op: "read neighbors", State: s.state}
	}
	if i < 0 || i >= len(s.lists) {
		return nil, fmt.Errorf("particle %d of %d: %w", i, len(s.lists), ErrIndexOutOfRange)
	}
	return slices.Clone(s.lists[i]), nil
}

// NeighborTotal returns the number of neighbor pairs found in the last step.
func (s *Simulation) NeighborTotal() int {
	if s.state != StateReady {
		return 0
	}
	return s.lists.Total()
}

// LastResiduals returns the per-sweep solver residuals of the last step.
func (s *Simulation) LastResiduals() []systems.SweepResidual {
	return slices.Clone(s.residuals)
}
