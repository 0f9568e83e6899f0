package components

import (
	"errors"
	"fmt"
	"math"
)

// Material holds the immutable per-phase particle parameters.
type Material struct {
	Phase       Phase
	Mass        float64
	RestDensity float64
}

// Presets matching the default config.
var (
	Air   = Material{Phase: PhaseAir, Mass: 0.005, RestDensity: 1}
	Water = Material{Phase: PhaseWater, Mass: 0.01, RestDensity: 2}
)

var (
	ErrNonPositiveMass    = errors.New("mass must be positive")
	ErrNonPositiveDensity = errors.New("rest density must be positive")
	ErrUnknownPhase       = errors.New("unknown phase")
)

// Validate reports whether the material can be used to create particles.
func (m Material) Validate() error {
	if !(m.Mass > 0) || math.IsInf(m.Mass, 1) {
		return fmt.Errorf("%s: %w", m.Phase, ErrNonPositiveMass)
	}
	if !(m.RestDensity > 0) || math.IsInf(m.RestDensity, 1) {
		return fmt.Errorf("%s: %w", m.Phase, ErrNonPositiveDensity)
	}
	if m.Phase != PhaseAir && m.Phase != PhaseWater {
		return fmt.Errorf("phase %d: %w", m.Phase, ErrUnknownPhase)
	}
	return nil
}
