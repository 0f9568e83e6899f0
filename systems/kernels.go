package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SPH smoothing kernels. Every kernel and gradient is exactly zero for |r| >= h.

// Poly6 evaluates the poly6 density kernel.
func Poly6(r r3.Vec, h float64) float64 {
	r2 := r3.Norm2(r)
	h2 := h * h
	if r2 >= h2 {
		return 0
	}
	d := h2 - r2
	return 315 / (64 * math.Pi * math.Pow(h, 9)) * d * d * d
}

// Poly6Zero is Poly6 at r = 0, the self contribution to density.
func Poly6Zero(h float64) float64 {
	return 315 / (64 * math.Pi * h * h * h)
}

// Poly6Gradient evaluates the gradient of Poly6 with respect to r.
func Poly6Gradient(r r3.Vec, h float64) r3.Vec {
	r2 := r3.Norm2(r)
	h2 := h * h
	if r2 >= h2 {
		return r3.Vec{}
	}
	d := h2 - r2
	return r3.Scale(-945/(32*math.Pi*math.Pow(h, 9))*d*d, r)
}

// Spiky evaluates the spiky pressure kernel.
func Spiky(r r3.Vec, h float64) float64 {
	l := r3.Norm(r)
	if l >= h {
		return 0
	}
	d := h - l
	return 15 / (math.Pi * math.Pow(h, 6)) * d * d * d
}

// SpikyGradient evaluates the spiky gradient -45/(pi h^6 |r|) (h-|r|)^2 r/|r|.
// Coincident points (|r| = 0) have no direction and yield zero.
func SpikyGradient(r r3.Vec, h float64) r3.Vec {
	l := r3.Norm(r)
	if l >= h || l == 0 {
		return r3.Vec{}
	}
	d := h - l
	return r3.Scale(-45/(math.Pi*math.Pow(h, 6)*l)*d*d/l, r)
}
