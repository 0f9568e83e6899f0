package main

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
	"github.com/pthm-cable/phasefluid/systems"
)

// Search range for h in lattice spacings.
const (
	minRadiusFactor = 0.5
	maxRadiusFactor = 4.0
	scanSteps       = 64
)

var errNoSpacing = errors.New("spacing must be positive")

// LatticeDensity returns the SPH density at a site of an infinite cubic
// lattice of identical particles, self contribution included.
func LatticeDensity(h, spacing, mass float64) float64 {
	if h <= 0 || spacing <= 0 {
		return 0
	}
	n := int(math.Ceil(h / spacing))
	var rho float64
	for i := -n; i <= n; i++ {
		for j := -n; j <= n; j++ {
			for k := -n; k <= n; k++ {
				r := r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}
				rho += mass * systems.Poly6(r3.Scale(spacing, r), h)
			}
		}
	}
	return rho
}

// Result is the outcome of one calibration.
type Result struct {
	Radius      float64
	Density     float64
	Error       float64 // density/rest - 1
	Evaluations int
}

// Calibrate finds the kernel radius h for which a lattice of material m at the
// given spacing sits exactly at rest density. A coarse scan over
// [0.5, 4] spacings seeds a Nelder-Mead refinement.
func Calibrate(m components.Material, spacing float64) (Result, error) {
	if !(spacing > 0) {
		return Result{}, errNoSpacing
	}
	if err := m.Validate(); err != nil {
		return Result{}, err
	}

	lo, hi := minRadiusFactor*spacing, maxRadiusFactor*spacing
	objective := func(h float64) float64 {
		if h < lo || h > hi {
			return 1e12
		}
		e := LatticeDensity(h, spacing, m.Mass)/m.RestDensity - 1
		return e * e
	}

	best, bestVal := lo, math.Inf(1)
	for i := 0; i <= scanSteps; i++ {
		h := lo + (hi-lo)*float64(i)/scanSteps
		if v := objective(h); v < bestVal {
			best, bestVal = h, v
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return objective(x[0]) },
	}
	method := &optimize.NelderMead{
		SimplexSize: (hi - lo) / scanSteps,
	}
	result, err := optimize.Minimize(problem, []float64{best}, nil, method)
	if err != nil && result == nil {
		return Result{}, fmt.Errorf("minimize: %w", err)
	}

	h := best
	evals := scanSteps + 1
	if result != nil {
		evals += result.Stats.FuncEvaluations
		if result.F < bestVal {
			h = result.X[0]
		}
	}
	rho := LatticeDensity(h, spacing, m.Mass)
	return Result{
		Radius:      h,
		Density:     rho,
		Error:       rho/m.RestDensity - 1,
		Evaluations: evals,
	}, nil
}

// LayoutSpacing is the mean lattice spacing of n particles in a box.
func LayoutSpacing(bounds [3]float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Cbrt(bounds[0] * bounds[1] * bounds[2] / float64(n))
}
