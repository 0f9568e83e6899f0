package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Step stage names, in the order Simulation.Step enters them.
const (
	PhaseForces        = "forces"
	PhaseBoundary      = "boundary"
	PhaseSpatialGrid   = "spatial_grid"
	PhaseNeighbors     = "neighbors"
	PhasePhaseField    = "phase_field"
	PhaseDensitySolver = "density_solver"
	PhaseVorticity     = "vorticity"
	PhaseFinalize      = "finalize"
)

// Phases lists the step stages in pipeline order.
var Phases = []string{
	PhaseForces, PhaseBoundary, PhaseSpatialGrid, PhaseNeighbors,
	PhasePhaseField, PhaseDensitySolver, PhaseVorticity, PhaseFinalize,
}

// stepTiming is one recorded step. A stage entered more than once in a step
// (the boundary clamp runs twice) accumulates.
type stepTiming struct {
	total  time.Duration
	stages map[string]time.Duration
}

// PerfCollector keeps the last N step timings in a ring.
// A nil *PerfCollector is valid and records nothing.
type PerfCollector struct {
	ring   []stepTiming
	next   int
	filled int

	open    stepTiming
	began   time.Time
	mark    time.Time
	inStage string
}

// NewPerfCollector keeps timings for the last window steps (60 if window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]stepTiming, window)}
}

// StartTick opens a new step.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.began = time.Now()
	p.open = stepTiming{stages: make(map[string]time.Duration, len(Phases))}
	p.inStage = ""
}

// StartPhase closes the running stage, if any, and starts timing stage.
func (p *PerfCollector) StartPhase(stage string) {
	if p == nil {
		return
	}
	p.closeStage(time.Now())
	p.inStage = stage
}

// EndTick closes the step and stores it, evicting the oldest once full.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	now := time.Now()
	p.closeStage(now)
	p.open.total = now.Sub(p.began)

	p.ring[p.next] = p.open
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
	p.inStage = ""
}

func (p *PerfCollector) closeStage(now time.Time) {
	if p.inStage != "" {
		p.open.stages[p.inStage] += now.Sub(p.mark)
	}
	p.mark = now
}

// PerfStats summarizes the step timings in the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	PhaseAvg map[string]time.Duration // mean time per step
	PhasePct map[string]float64       // share of the mean step, 0..100

	TicksPerSecond float64
}

// Stats aggregates the window. Stage shares are relative to the mean step
// duration, so they need not sum to exactly 100.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p == nil || p.filled == 0 {
		return out
	}

	steps := p.ring[:p.filled]
	totals := make([]float64, len(steps))
	perStage := make(map[string][]float64)
	for i, s := range steps {
		totals[i] = float64(s.total)
		for name, d := range s.stages {
			if perStage[name] == nil {
				perStage[name] = make([]float64, len(steps))
			}
			perStage[name][i] = float64(d)
		}
	}

	mean := stat.Mean(totals, nil)
	out.AvgTickDuration = time.Duration(mean)
	out.MinTickDuration = time.Duration(floats.Min(totals))
	out.MaxTickDuration = time.Duration(floats.Max(totals))
	sorted := slices.Clone(totals)
	slices.Sort(sorted)
	out.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, sorted, nil))

	for name, ds := range perStage {
		avg := stat.Mean(ds, nil)
		out.PhaseAvg[name] = time.Duration(avg)
		if mean > 0 {
			out.PhasePct[name] = avg / mean * 100
		}
	}
	if mean > 0 {
		out.TicksPerSecond = float64(time.Second) / mean
	}
	return out
}

// LogStats logs step timings and the share of every stage above 0.1%.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, stage := range Phases {
		if pct := s.PhasePct[stage]; pct > 0.1 {
			attrs = append(attrs, stage+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for _, stage := range Phases {
		if pct, ok := s.PhasePct[stage]; ok {
			attrs = append(attrs, slog.Float64(stage+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd        int64   `csv:"window_end"`
	AvgTickUS        int64   `csv:"avg_tick_us"`
	MinTickUS        int64   `csv:"min_tick_us"`
	MaxTickUS        int64   `csv:"max_tick_us"`
	P95TickUS        int64   `csv:"p95_tick_us"`
	TicksPerSec      float64 `csv:"ticks_per_sec"`
	ForcesPct        float64 `csv:"forces_pct"`
	BoundaryPct      float64 `csv:"boundary_pct"`
	SpatialGridPct   float64 `csv:"spatial_grid_pct"`
	NeighborsPct     float64 `csv:"neighbors_pct"`
	PhaseFieldPct    float64 `csv:"phase_field_pct"`
	DensitySolverPct float64 `csv:"density_solver_pct"`
	VorticityPct     float64 `csv:"vorticity_pct"`
	FinalizePct      float64 `csv:"finalize_pct"`
}

// ToCSV flattens s into a perf.csv row ending at tick windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:        windowEnd,
		AvgTickUS:        s.AvgTickDuration.Microseconds(),
		MinTickUS:        s.MinTickDuration.Microseconds(),
		MaxTickUS:        s.MaxTickDuration.Microseconds(),
		P95TickUS:        s.P95TickDuration.Microseconds(),
		TicksPerSec:      s.TicksPerSecond,
		ForcesPct:        s.PhasePct[PhaseForces],
		BoundaryPct:      s.PhasePct[PhaseBoundary],
		SpatialGridPct:   s.PhasePct[PhaseSpatialGrid],
		NeighborsPct:     s.PhasePct[PhaseNeighbors],
		PhaseFieldPct:    s.PhasePct[PhasePhaseField],
		DensitySolverPct: s.PhasePct[PhaseDensitySolver],
		VorticityPct:     s.PhasePct[PhaseVorticity],
		FinalizePct:      s.PhasePct[PhaseFinalize],
	}
}
