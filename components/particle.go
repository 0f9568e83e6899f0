// Package components defines the plain data types shared by the simulation systems.
package components

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Phase identifies which fluid a particle belongs to.
type Phase uint8

const (
	PhaseAir Phase = iota
	PhaseWater
)

func (p Phase) String() string {
	switch p {
	case PhaseAir:
		return "air"
	case PhaseWater:
		return "water"
	default:
		return "unknown"
	}
}

// Other returns the opposite phase.
func (p Phase) Other() Phase {
	if p == PhaseWater {
		return PhaseAir
	}
	return PhaseWater
}

// Particle is one fluid sample. Phase, mass and rest density are fixed
// at construction; every other field is rewritten by the systems each tick.
type Particle struct {
	phase       Phase
	mass        float64
	restDensity float64

	Position          r3.Vec
	PredictedPosition r3.Vec
	Velocity          r3.Vec

	Density float64

	// Phase field
	MassRatio         float64 // own-phase fraction in [0, 1]
	MassRatioGradient r3.Vec
	ChemicalPotential float64

	// Density constraint solver scratch
	DensityConstraintGradient    r3.Vec
	DensityConstraintGradientSum float64
	Lambda                       float64
	PositionCorrection           r3.Vec

	// Vorticity and viscosity
	Vorticity         r3.Vec
	VorticityGradient r3.Vec
	VelocityGradient  r3.Vec
}

// NewParticle creates a particle of the given material at rest at the origin.
func NewParticle(m Material) Particle {
	return Particle{
		phase:       m.Phase,
		mass:        m.Mass,
		restDensity: m.RestDensity,
	}
}

// Phase returns the particle's fluid phase.
func (p *Particle) Phase() Phase { return p.phase }

// Mass returns the particle's mass.
func (p *Particle) Mass() float64 { return p.mass }

// RestDensity returns the target density of the particle's material.
func (p *Particle) RestDensity() float64 { return p.restDensity }

// Volume returns mass / rest density, the SPH sampling volume.
func (p *Particle) Volume() float64 { return p.mass / p.restDensity }

// DensityConstraint returns C = density/restDensity - 1.
func (p *Particle) DensityConstraint() float64 {
	return p.Density/p.restDensity - 1
}

// Place sets position and predicted position and zeroes velocity.
func (p *Particle) Place(pos r3.Vec) {
	p.Position = pos
	p.PredictedPosition = pos
	p.Velocity = r3.Vec{}
}
