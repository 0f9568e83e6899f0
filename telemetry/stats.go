// Package telemetry collects step timings and fluid statistics and writes run output.
package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/phasefluid/components"
	"github.com/pthm-cable/phasefluid/systems"
)

// TickStats holds aggregate fluid statistics sampled after a tick.
type TickStats struct {
	WindowStartTick int64   `csv:"-"`
	Tick            int64   `csv:"tick"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population
	Particles int     `csv:"particles"`
	Water     int     `csv:"water"`
	Air       int     `csv:"air"`
	TotalMass float64 `csv:"total_mass"`

	// Motion
	KineticEnergy float64 `csv:"kinetic_energy"`
	MeanSpeed     float64 `csv:"mean_speed"`
	MaxSpeed      float64 `csv:"max_speed"`

	// Density constraint
	DensityMean   float64 `csv:"density_mean"`
	DensityStd    float64 `csv:"density_std"`
	DensityP50    float64 `csv:"density_p50"`
	ConstraintAbs float64 `csv:"constraint_abs_mean"` // mean |C| over all particles
	ConstraintMax float64 `csv:"constraint_abs_max"`

	// Phase field
	MassRatioMin  float64 `csv:"mass_ratio_min"`
	MassRatioMax  float64 `csv:"mass_ratio_max"`
	MassRatioMean float64 `csv:"mass_ratio_mean"`

	MeanNeighbors float64 `csv:"mean_neighbors"`

	// Last solver sweep of the tick
	ResidualMean float64 `csv:"residual_mean"`
	ResidualMax  float64 `csv:"residual_max"`

	// Final sweep residuals aggregated over the window (set by Collector)
	WindowTicks        int     `csv:"window_ticks"`
	WindowResidualMean float64 `csv:"window_residual_mean"`
	WindowResidualMax  float64 `csv:"window_residual_max"`
}

// CollectStats summarizes the particle store. residuals are the per-sweep
// solver residuals of the tick; only the last one is reported.
func CollectStats(particles []components.Particle, neighborTotal int, tick int64, simTime float64, residuals []systems.SweepResidual) TickStats {
	s := TickStats{
		Tick:       tick,
		SimTimeSec: simTime,
		Particles:  len(particles),
	}
	if len(residuals) > 0 {
		last := residuals[len(residuals)-1]
		s.ResidualMean = last.MeanAbs
		s.ResidualMax = last.Max
	}

	n := len(particles)
	if n == 0 {
		return s
	}

	masses := make([]float64, n)
	speeds := make([]float64, n)
	densities := make([]float64, n)
	constraints := make([]float64, n)
	ratios := make([]float64, n)

	for i := range particles {
		p := &particles[i]
		if p.Phase() == components.PhaseWater {
			s.Water++
		} else {
			s.Air++
		}
		masses[i] = p.Mass()
		speeds[i] = r3.Norm(p.Velocity)
		densities[i] = p.Density
		constraints[i] = math.Abs(p.DensityConstraint())
		ratios[i] = p.MassRatio
		s.KineticEnergy += 0.5 * p.Mass() * r3.Norm2(p.Velocity)
	}

	s.TotalMass = floats.Sum(masses)
	s.MeanSpeed = stat.Mean(speeds, nil)
	s.MaxSpeed = floats.Max(speeds)

	s.DensityMean, s.DensityStd = stat.MeanStdDev(densities, nil)
	if n == 1 {
		s.DensityStd = 0
	}
	sorted := slices.Clone(densities)
	slices.Sort(sorted)
	s.DensityP50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	s.ConstraintAbs = stat.Mean(constraints, nil)
	s.ConstraintMax = floats.Max(constraints)

	s.MassRatioMin = floats.Min(ratios)
	s.MassRatioMax = floats.Max(ratios)
	s.MassRatioMean = stat.Mean(ratios, nil)

	s.MeanNeighbors = float64(neighborTotal) / float64(n)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("water", s.Water),
		slog.Int("air", s.Air),
		slog.Float64("total_mass", s.TotalMass),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("constraint_abs_mean", s.ConstraintAbs),
		slog.Float64("constraint_abs_max", s.ConstraintMax),
		slog.Float64("mass_ratio_min", s.MassRatioMin),
		slog.Float64("mass_ratio_max", s.MassRatioMax),
		slog.Float64("mass_ratio_mean", s.MassRatioMean),
		slog.Float64("mean_neighbors", s.MeanNeighbors),
		slog.Float64("residual_mean", s.ResidualMean),
		slog.Float64("residual_max", s.ResidualMax),
		slog.Int("window_ticks", s.WindowTicks),
		slog.Float64("window_residual_mean", s.WindowResidualMean),
		slog.Float64("window_residual_max", s.WindowResidualMax),
	)
}

// LogStats logs the headline numbers using slog.
func (s TickStats) LogStats() {
	slog.Info("stats",
		"tick", s.Tick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"kinetic_energy", s.KineticEnergy,
		"max_speed", s.MaxSpeed,
		"density_mean", s.DensityMean,
		"constraint_abs_max", s.ConstraintMax,
		"mass_ratio_mean", s.MassRatioMean,
		"mean_neighbors", s.MeanNeighbors,
		"residual_mean", s.ResidualMean,
		"window_residual_max", s.WindowResidualMax,
	)
}
