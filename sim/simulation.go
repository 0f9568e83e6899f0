// Package sim sequences the fluid pipeline stages and owns the particle store.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phasefluid/components"
	"github.com/pthm-cable/phasefluid/config"
	"github.com/pthm-cable/phasefluid/systems"
	"github.com/pthm-cable/phasefluid/telemetry"
)

// State is the lifecycle state of a Simulation.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

var (
	errNilConfig     = errors.New("no configuration supplied")
	errNonPositiveDT = errors.New("dt must be positive and finite")
)

// Simulation owns the particle store and runs one pipeline pass per Step.
// It is not safe for concurrent use; the host drives it from one goroutine.
type Simulation struct {
	state State

	cfg        *config.Config // active snapshot, replaced never mutated
	pending    *config.Config // tunables staged by Configure
	configured *config.Config // latest full config, used by Reset(nil)

	particles []components.Particle
	lists     systems.NeighborLists
	grid      *systems.SpatialHashGrid
	emitters  []components.Emitter
	pool      *systems.Pool

	tick      int64
	residuals []systems.SweepResidual

	// Options
	layout  LayoutFunc
	logger  *slog.Logger
	perf    *telemetry.PerfCollector
	workers int
}

// Option configures a Simulation at construction.
type Option func(*Simulation)

// WithLayout replaces the default lattice layout generator.
func WithLayout(fn LayoutFunc) Option {
	return func(s *Simulation) { s.layout = fn }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithPerfCollector records per-phase step timings into pc.
func WithPerfCollector(pc *telemetry.PerfCollector) Option {
	return func(s *Simulation) { s.perf = pc }
}

// WithWorkers overrides simulation.workers from the config.
func WithWorkers(n int) Option {
	return func(s *Simulation) { s.workers = n }
}

// New creates an uninitialized simulation. Call Reset before Step.
func New(opts ...Option) *Simulation {
	s := &Simulation{
		layout: LatticeLayout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.layout == nil {
		s.layout = LatticeLayout
	}
	return s
}

// State returns the lifecycle state.
func (s *Simulation) State() State { return s.state }

// Tick returns the number of completed steps since the last reset.
func (s *Simulation) Tick() int64 { return s.tick }

// Workers returns the size of the worker pool, or 0 before Reset and after Dispose.
func (s *Simulation) Workers() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.Workers()
}

// Reset validates cfg, builds a fresh particle population and moves to Ready.
// A nil cfg reuses the most recent configuration. On error nothing changes.
func (s *Simulation) Reset(cfg *config.Config) error {
	if cfg == nil {
		cfg = s.configured
	}
	if cfg == nil {
		return &ConfigurationError{Field: "config", Err: errNilConfig}
	}
	cfg = cfg.Clone()
	cfg.Refresh()
	if err := validate(cfg); err != nil {
		return err
	}

	emitters, err := buildEmitters(cfg)
	if err != nil {
		return err
	}

	air := material(components.PhaseAir, cfg.Materials.Air)
	water := material(components.PhaseWater, cfg.Materials.Water)
	params := LayoutParams{
		Count:      cfg.Simulation.ParticleCount,
		WaterCount: cfg.Derived.WaterCount,
		Bounds:     vec(cfg.Simulation.Bounds),
		Air:        air,
		Water:      water,
	}
	particles, err := s.layout(params)
	if err != nil {
		return &ConfigurationError{Field: "layout", Err: err}
	}
	if err := checkLayout(particles, params); err != nil {
		return &ConfigurationError{Field: "layout", Err: err}
	}

	// Commit
	workers := cfg.Simulation.Workers
	if s.workers > 0 {
		workers = s.workers
	}
	if s.pool == nil || (workers > 0 && s.pool.Workers() != workers) {
		s.pool.Close()
		s.pool = systems.NewPool(workers)
	}

	s.particles = particles
	s.lists = systems.NewNeighborLists(len(particles))
	s.grid = systems.NewSpatialHashGrid(cfg.Simulation.NeighborRadius)
	s.emitters = emitters
	s.cfg = cfg
	s.configured = cfg
	s.pending = nil
	s.tick = 0
	s.residuals = s.residuals[:0]
	s.state = StateReady

	s.logger.Info("simulation reset",
		"particles", len(particles),
		"water", cfg.Derived.WaterCount,
		"air", cfg.Derived.AirCount,
		"neighbor_radius", cfg.Simulation.NeighborRadius,
		"iterations", cfg.Solver.Iterations,
		"workers", s.pool.Workers(),
	)
	return nil
}

// Configure validates cfg and stages it. Tunables (radius, iterations,
// coefficients, bounds, restitution, emitter magnitudes) apply at the next
// Step; particle count, materials, water ratio and the emitter list apply
// at the next Reset.
func (s *Simulation) Configure(cfg *config.Config) error {
	if cfg == nil {
		return &ConfigurationError{Field: "config", Err: errNilConfig}
	}
	cfg = cfg.Clone()
	cfg.Refresh()
	if err := validate(cfg); err != nil {
		return err
	}
	if _, err := buildEmitters(cfg); err != nil {
		return err
	}
	s.pending = cfg
	s.configured = cfg
	return nil
}

// Config returns a copy of the active configuration, or nil before Reset.
func (s *Simulation) Config() *config.Config {
	if s.cfg == nil {
		return nil
	}
	return s.cfg.Clone()
}

// Step advances the simulation by one tick of length dt.
func (s *Simulation) Step(dt float64) error {
	if s.state != StateReady {
		return &InvalidStateError{Op: "step", State: s.state}
	}
	if !(dt > 0) || math.IsInf(dt, 1) {
		return &ConfigurationError{Field: "dt", Err: errNonPositiveDT}
	}
	if s.pending != nil {
		s.applyPending()
	}

	cfg := s.cfg
	h := cfg.Simulation.NeighborRadius
	ps := s.particles
	pool := s.pool
	perf := s.perf

	boundary := systems.BoundaryParams{
		HalfBounds:  vec(cfg.Derived.HalfBounds),
		Restitution: cfg.Boundary.Restitution,
	}

	perf.StartTick()

	perf.StartPhase(telemetry.PhaseForces)
	systems.ApplyExternalForces(pool, ps, s.emitters, dt)

	perf.StartPhase(telemetry.PhaseBoundary)
	systems.EnforceBoundary(pool, ps, boundary, systems.BoundaryPredicted)

	perf.StartPhase(telemetry.PhaseSpatialGrid)
	systems.RebuildGrid(s.grid, ps, h)

	perf.StartPhase(telemetry.PhaseNeighbors)
	systems.FindNeighbors(pool, s.grid, ps, s.lists, h)

	perf.StartPhase(telemetry.PhasePhaseField)
	systems.UpdatePhaseField(pool, ps, s.lists, systems.PhaseParams{
		Radius:                 h,
		DiffusionalCoefficient: cfg.Phase.DiffusionalCoefficient,
		InterfaceEpsilon:       cfg.Phase.InterfaceEpsilon,
	})

	perf.StartPhase(telemetry.PhaseDensitySolver)
	s.residuals = systems.SolveDensity(pool, ps, s.lists, systems.SolverParams{
		Radius:     h,
		Iterations: cfg.Solver.Iterations,
		Relaxation: cfg.Solver.Relaxation,
		Unilateral: cfg.Solver.Unilateral,
	}, s.residuals)

	perf.StartPhase(telemetry.PhaseVorticity)
	systems.ComputeVorticity(pool, ps, s.lists, h)

	perf.StartPhase(telemetry.PhaseFinalize)
	systems.Finalize(pool, ps, systems.FinalizeParams{
		DT:               dt,
		SurfaceTension:   cfg.Phase.SurfaceTension,
		InterfaceEpsilon: cfg.Phase.InterfaceEpsilon,
	})

	perf.StartPhase(telemetry.PhaseBoundary)
	systems.EnforceBoundary(pool, ps, boundary, systems.BoundaryFinal)

	perf.EndTick()

	s.tick++
	if len(s.residuals) > 0 && s.logger.Enabled(context.Background(), slog.LevelDebug) {
		last := s.residuals[len(s.residuals)-1]
		s.logger.Debug("tick",
			"tick", s.tick,
			"residual_mean", last.MeanAbs,
			"residual_max", last.Max,
		)
	}
	return nil
}

// applyPending swaps in staged tunables, keeping structural fields of the
// active config until the next Reset.
func (s *Simulation) applyPending() {
	next := s.pending.Clone()
	active := s.cfg

	next.Simulation.ParticleCount = active.Simulation.ParticleCount
	next.Simulation.WaterRatio = active.Simulation.WaterRatio
	next.Simulation.Workers = active.Simulation.Workers
	next.Materials = active.Materials

	forces := slices.Clone(active.Forces)
	if len(next.Forces) == len(forces) {
		for i := range forces {
			forces[i].Magnitude = next.Forces[i].Magnitude
		}
	}
	next.Forces = forces
	next.Refresh()

	s.emitters[0].Magnitude = next.Simulation.Gravity
	for i, f := range next.Forces {
		s.emitters[i+1].Magnitude = f.Magnitude
	}

	s.cfg = next
	s.pending = nil
	s.logger.Debug("applied staged config", "tick", s.tick)
}

// Dispose releases all buffers and stops the workers. Safe to call repeatedly.
func (s *Simulation) Dispose() {
	if s.state == StateDisposed {
		return
	}
	s.pool.Close()
	s.pool = nil
	s.particles = nil
	s.lists = nil
	s.grid = nil
	s.emitters = nil
	s.residuals = nil
	s.state = StateDisposed
	s.logger.Info("simulation disposed", "ticks", s.tick)
}

// validate wraps config validation failures as ConfigurationError.
func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		var fe *config.FieldError
		if errors.As(err, &fe) {
			return &ConfigurationError{Field: fe.Field, Err: fe}
		}
		return &ConfigurationError{Field: "config", Err: err}
	}
	return nil
}

// buildEmitters creates the built-in gravity emitter followed by cfg.Forces.
func buildEmitters(cfg *config.Config) ([]components.Emitter, error) {
	gravity, err := components.NewGravity(r3.Vec{Y: -1}, cfg.Simulation.Gravity)
	if err != nil {
		return nil, &ConfigurationError{Field: "simulation.gravity", Err: err}
	}
	emitters := make([]components.Emitter, 0, len(cfg.Forces)+1)
	emitters = append(emitters, gravity)

	for i, f := range cfg.Forces {
		var e components.Emitter
		switch f.Type {
		case config.ForceGravity:
			e, err = components.NewGravity(vec(f.Direction), f.Magnitude)
		case config.ForceDirectional:
			e, err = components.NewDirectional(vec(f.Direction), f.Magnitude)
		case config.ForceRadial:
			e = components.NewRadial(vec(f.Position), f.Magnitude)
		}
		if err != nil {
			return nil, &ConfigurationError{Field: fmt.Sprintf("forces[%d].direction", i), Err: err}
		}
		emitters = append(emitters, e)
	}
	return emitters, nil
}

func material(phase components.Phase, m config.MaterialConfig) components.Material {
	return components.Material{Phase: phase, Mass: m.Mass, RestDensity: m.RestDensity}
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
