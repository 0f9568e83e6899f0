package telemetry

import (
	"github.com/pthm-cable/phasefluid/components"
	"github.com/pthm-cable/phasefluid/systems"
)

// Collector accumulates solver residuals within tick windows and produces TickStats.
type Collector struct {
	windowTicks int64
	dt          float64

	// Current window tracking
	windowStartTick int64
	ticks           int
	residualSum     float64
	residualMax     float64
}

// NewCollector creates a new stats collector.
// windowTicks: ticks per window (log_interval)
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: int64(windowTicks),
		dt:          dt,
	}
}

// RecordTick folds the final sweep residual of a tick into the window.
func (c *Collector) RecordTick(residuals []systems.SweepResidual) {
	c.ticks++
	if len(residuals) == 0 {
		return
	}
	last := residuals[len(residuals)-1]
	c.residualSum += last.MeanAbs
	c.residualMax = max(c.residualMax, last.Max)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces TickStats for the current particle store and resets the
// window counters.
func (c *Collector) Flush(
	currentTick int64,
	particles []components.Particle,
	neighborTotal int,
	residuals []systems.SweepResidual,
) TickStats {
	stats := CollectStats(particles, neighborTotal, currentTick, float64(currentTick)*c.dt, residuals)
	stats.WindowStartTick = c.windowStartTick
	stats.WindowTicks = c.ticks
	if c.ticks > 0 {
		stats.WindowResidualMean = c.residualSum / float64(c.ticks)
	}
	stats.WindowResidualMax = c.residualMax

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.residualSum = 0
	c.residualMax = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
