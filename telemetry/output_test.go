package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/phasefluid/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// Every method is a no-op on nil
	assert.NoError(t, om.WriteStats(TickStats{}))
	assert.NoError(t, om.WritePerf(PerfStats{}, 1))
	assert.NoError(t, om.WriteSnapshot(1, sampleParticles()))
	assert.NoError(t, om.WriteConfig(config.MustDefaults()))
	assert.NoError(t, om.WriteRunMeta(RunMeta{}))
	assert.NoError(t, om.Close())
	assert.Empty(t, om.Dir())
	assert.Empty(t, om.RunID())
}

func TestOutputManager_StatsCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	require.NoError(t, om.WriteStats(TickStats{Tick: 60, Particles: 8}))
	require.NoError(t, om.WriteStats(TickStats{Tick: 120, Particles: 8}))
	require.NoError(t, om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, 120))
	require.NoError(t, om.Close())
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "one header and two rows")
	assert.True(t, strings.HasPrefix(lines[0], "tick,sim_time,particles"))

	var rows []TickStats
	require.NoError(t, gocsv.UnmarshalBytes(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(120), rows[1].Tick)

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(perf), "density_solver_pct")
	assert.Contains(t, string(perf), "120,1000,")
}

func TestOutputManager_Snapshot(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	defer om.Close()

	require.NoError(t, om.WriteSnapshot(42, sampleParticles()))

	f, err := os.Open(filepath.Join(dir, "particles_000042.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []ParticleRecord
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "water", rows[0].Phase)
	assert.Equal(t, "air", rows[1].Phase)
	assert.InDelta(t, 4, rows[0].VY, 1e-12)
	assert.Equal(t, 1, rows[1].Index)
}

func TestOutputManager_RunMetaAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	defer om.Close()

	_, err = uuid.Parse(om.RunID())
	require.NoError(t, err)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, om.WriteRunMeta(RunMeta{StartedAt: started, Particles: 1000, MaxTicks: 600}))

	data, err := os.ReadFile(filepath.Join(dir, "run.yaml"))
	require.NoError(t, err)
	var meta RunMeta
	require.NoError(t, yaml.Unmarshal(data, &meta))
	assert.Equal(t, om.RunID(), meta.RunID)
	assert.True(t, started.Equal(meta.StartedAt))
	assert.Equal(t, 1000, meta.Particles)

	cfg := config.MustDefaults()
	cfg.Simulation.ParticleCount = 64
	require.NoError(t, om.WriteConfig(cfg))
	loaded, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 64, loaded.Simulation.ParticleCount)
}
