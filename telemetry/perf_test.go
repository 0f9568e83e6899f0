package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialGrid)
		time.Sleep(time.Millisecond)
		pc.StartPhase(PhaseDensitySolver)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.GreaterOrEqual(t, stats.AvgTickDuration, 3*time.Millisecond)
	assert.GreaterOrEqual(t, stats.MaxTickDuration, stats.P95TickDuration)
	assert.GreaterOrEqual(t, stats.P95TickDuration, stats.MinTickDuration)
	assert.GreaterOrEqual(t, stats.PhaseAvg[PhaseSpatialGrid], time.Millisecond)
	assert.GreaterOrEqual(t, stats.PhaseAvg[PhaseDensitySolver], 2*time.Millisecond)
	assert.NotContains(t, stats.PhaseAvg, PhaseVorticity)
}

func TestPerfCollector_RepeatedStageAccumulates(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartTick()
	pc.StartPhase(PhaseBoundary)
	time.Sleep(time.Millisecond)
	pc.StartPhase(PhaseFinalize)
	pc.StartPhase(PhaseBoundary)
	time.Sleep(time.Millisecond)
	pc.EndTick()

	assert.GreaterOrEqual(t, pc.Stats().PhaseAvg[PhaseBoundary], 2*time.Millisecond)
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 12; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialGrid)
		pc.EndTick()
	}

	assert.Equal(t, 5, pc.filled)
	assert.Equal(t, 2, pc.next)

	stats := pc.Stats()
	assert.Positive(t, stats.AvgTickDuration)
	assert.Positive(t, stats.TicksPerSecond)
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(time.Millisecond)
		pc.StartPhase("slow")
		time.Sleep(20 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.Greater(t, stats.PhasePct["slow"], stats.PhasePct["fast"])
	assert.Greater(t, stats.PhasePct["slow"], 50.0)
	assert.LessOrEqual(t, stats.PhasePct["slow"]+stats.PhasePct["fast"], 100.0+1e-9)
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(0).Stats()

	assert.Zero(t, stats.AvgTickDuration)
	assert.Zero(t, stats.TicksPerSecond)
	assert.NotNil(t, stats.PhaseAvg)
	assert.NotNil(t, stats.PhasePct)
}

func TestPerfCollector_NilSafe(t *testing.T) {
	var pc *PerfCollector

	require.NotPanics(t, func() {
		pc.StartTick()
		pc.StartPhase(PhaseForces)
		pc.EndTick()
	})

	stats := pc.Stats()
	assert.Zero(t, stats.AvgTickDuration)
	assert.NotNil(t, stats.PhaseAvg)
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		P95TickDuration: 3 * time.Millisecond,
		PhasePct: map[string]float64{
			PhaseDensitySolver: 60,
			PhaseNeighbors:     25,
		},
	}

	row := stats.ToCSV(120)
	assert.Equal(t, int64(120), row.WindowEnd)
	assert.Equal(t, int64(2000), row.AvgTickUS)
	assert.Equal(t, int64(3000), row.P95TickUS)
	assert.Equal(t, 60.0, row.DensitySolverPct)
	assert.Equal(t, 25.0, row.NeighborsPct)
	assert.Zero(t, row.VorticityPct)
}
