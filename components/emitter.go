package components

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EmitterKind selects how an Emitter produces acceleration.
type EmitterKind uint8

const (
	EmitterGravity     EmitterKind = iota // direction * magnitude, mass independent
	EmitterDirectional                    // direction * magnitude / mass
	EmitterRadial                         // away from Position, magnitude / mass
)

func (k EmitterKind) String() string {
	switch k {
	case EmitterGravity:
		return "gravity"
	case EmitterDirectional:
		return "directional"
	case EmitterRadial:
		return "radial"
	default:
		return "unknown"
	}
}

// ErrZeroDirection is returned when an emitter direction cannot be normalized.
var ErrZeroDirection = errors.New("emitter direction must be non-zero and finite")

// Emitter is an external force source. Direction is unit length.
type Emitter struct {
	Kind      EmitterKind
	Direction r3.Vec
	Position  r3.Vec
	Magnitude float64
}

// NewGravity creates a mass-independent uniform acceleration.
func NewGravity(dir r3.Vec, magnitude float64) (Emitter, error) {
	unit, err := unitDirection(dir)
	if err != nil {
		return Emitter{}, err
	}
	return Emitter{Kind: EmitterGravity, Direction: unit, Magnitude: magnitude}, nil
}

// NewDirectional creates a uniform force along dir.
func NewDirectional(dir r3.Vec, magnitude float64) (Emitter, error) {
	unit, err := unitDirection(dir)
	if err != nil {
		return Emitter{}, err
	}
	return Emitter{Kind: EmitterDirectional, Direction: unit, Magnitude: magnitude}, nil
}

// NewRadial creates a force pushing away from pos (negative magnitude attracts).
func NewRadial(pos r3.Vec, magnitude float64) Emitter {
	return Emitter{Kind: EmitterRadial, Position: pos, Magnitude: magnitude}
}

func unitDirection(dir r3.Vec) (r3.Vec, error) {
	n := r3.Norm(dir)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}, ErrZeroDirection
	}
	return r3.Scale(1/n, dir), nil
}

// Acceleration returns the acceleration the emitter applies to p.
func (e Emitter) Acceleration(p *Particle) r3.Vec {
	switch e.Kind {
	case EmitterGravity:
		return r3.Scale(e.Magnitude, e.Direction)
	case EmitterDirectional:
		return r3.Scale(e.Magnitude/p.Mass(), e.Direction)
	case EmitterRadial:
		d := r3.Sub(p.Position, e.Position)
		n := r3.Norm(d)
		if n == 0 {
			return r3.Vec{}
		}
		return r3.Scale(e.Magnitude/(p.Mass()*n), d)
	default:
		return r3.Vec{}
	}
}
