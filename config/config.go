// Package config provides configuration loading and validation for the fluid simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Solver     SolverConfig     `yaml:"solver"`
	Phase      PhaseConfig      `yaml:"phase"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Materials  MaterialsConfig  `yaml:"materials"`
	Forces     []ForceConfig    `yaml:"forces"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the particle population and domain parameters.
type SimulationConfig struct {
	ParticleCount  int        `yaml:"particle_count"`  // Particles created at reset
	Bounds         [3]float64 `yaml:"bounds"`          // Box extents, centered on the origin
	DT             float64    `yaml:"dt"`              // Fixed tick used by the headless runner
	NeighborRadius float64    `yaml:"neighbor_radius"` // Kernel support h, also the grid cell size
	Gravity        float64    `yaml:"gravity"`         // Magnitude of the built-in (0,-1,0) emitter
	WaterRatio     float64    `yaml:"water_ratio"`     // Fraction of particles created as water
	Workers        int        `yaml:"workers"`         // Worker goroutines (0 = GOMAXPROCS)
}

// SolverConfig holds density constraint solver parameters.
type SolverConfig struct {
	Iterations int     `yaml:"iterations"` // Jacobi sweeps per tick
	Relaxation float64 `yaml:"relaxation"` // Added to the lambda denominator
	Unilateral bool    `yaml:"unilateral"` // Only correct over-dense particles
}

// PhaseConfig holds the diffuse-interface coefficients.
type PhaseConfig struct {
	DiffusionalCoefficient float64 `yaml:"diffusional_coefficient"` // D in the double-well potential
	InterfaceEpsilon       float64 `yaml:"interface_epsilon"`       // Interface width, also confinement/viscosity scale
	SurfaceTension         float64 `yaml:"surface_tension"`         // Reactive stress strength
}

// BoundaryConfig holds box collision parameters.
type BoundaryConfig struct {
	Restitution float64 `yaml:"restitution"` // 0 = inelastic, 1 = elastic
}

// MaterialConfig describes one fluid phase.
type MaterialConfig struct {
	Mass        float64 `yaml:"mass"`
	RestDensity float64 `yaml:"rest_density"`
}

// MaterialsConfig holds both phase materials.
type MaterialsConfig struct {
	Air   MaterialConfig `yaml:"air"`
	Water MaterialConfig `yaml:"water"`
}

// Force types accepted in ForceConfig.Type.
const (
	ForceGravity     = "gravity"
	ForceDirectional = "directional"
	ForceRadial      = "radial"
)

// ForceConfig describes an additional force emitter.
// Direction is used by gravity and directional emitters, Position by radial ones.
type ForceConfig struct {
	Type      string     `yaml:"type"`
	Direction [3]float64 `yaml:"direction"`
	Position  [3]float64 `yaml:"position"`
	Magnitude float64    `yaml:"magnitude"`
}

// TelemetryConfig holds headless runner output parameters.
type TelemetryConfig struct {
	LogInterval      int `yaml:"log_interval"`      // Ticks between stats records
	PerfWindow       int `yaml:"perf_window"`       // Rolling window for perf timing
	SnapshotInterval int `yaml:"snapshot_interval"` // Ticks between particle CSV dumps (0 = off)
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	HalfBounds [3]float64
	WaterCount int
	AirCount   int
}

// FieldError reports a config field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// MaxIterations caps the solver sweeps per tick.
const MaxIterations = 100

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// Defaults returns the embedded default configuration.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// MustDefaults is like Defaults but panics on error.
func MustDefaults() *Config {
	cfg, err := Defaults()
	if err != nil {
		panic(fmt.Sprintf("config: failed to load defaults: %v", err))
	}
	return cfg
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	for a := range c.Simulation.Bounds {
		c.Derived.HalfBounds[a] = c.Simulation.Bounds[a] / 2
	}

	n := max(c.Simulation.ParticleCount, 0)
	ratio := min(max(c.Simulation.WaterRatio, 0), 1)
	c.Derived.WaterCount = int(math.Round(ratio * float64(n)))
	c.Derived.AirCount = n - c.Derived.WaterCount
}

// Refresh recomputes derived values after fields were changed in code.
func (c *Config) Refresh() {
	c.computeDerived()
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Forces = slices.Clone(c.Forces)
	return &cp
}

// Validate checks every parameter and returns a *FieldError for the first bad one.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.ParticleCount <= 0 {
		return &FieldError{Field: "simulation.particle_count", Reason: "must be positive"}
	}
	for a, b := range s.Bounds {
		if !positive(b) {
			return &FieldError{Field: fmt.Sprintf("simulation.bounds[%d]", a), Reason: "must be positive"}
		}
	}
	if !positive(s.DT) {
		return &FieldError{Field: "simulation.dt", Reason: "must be positive"}
	}
	if !positive(s.NeighborRadius) {
		return &FieldError{Field: "simulation.neighbor_radius", Reason: "must be positive"}
	}
	if !nonNegative(s.Gravity) {
		return &FieldError{Field: "simulation.gravity", Reason: "must be non-negative"}
	}
	if !(s.WaterRatio >= 0 && s.WaterRatio <= 1) {
		return &FieldError{Field: "simulation.water_ratio", Reason: "must be within [0, 1]"}
	}
	if s.Workers < 0 {
		return &FieldError{Field: "simulation.workers", Reason: "must be non-negative"}
	}

	if c.Solver.Iterations < 1 || c.Solver.Iterations > MaxIterations {
		return &FieldError{Field: "solver.iterations", Reason: fmt.Sprintf("must be within [1, %d]", MaxIterations)}
	}
	if !positive(c.Solver.Relaxation) {
		return &FieldError{Field: "solver.relaxation", Reason: "must be positive"}
	}

	if !nonNegative(c.Phase.DiffusionalCoefficient) {
		return &FieldError{Field: "phase.diffusional_coefficient", Reason: "must be non-negative"}
	}
	if !nonNegative(c.Phase.InterfaceEpsilon) {
		return &FieldError{Field: "phase.interface_epsilon", Reason: "must be non-negative"}
	}
	if !nonNegative(c.Phase.SurfaceTension) {
		return &FieldError{Field: "phase.surface_tension", Reason: "must be non-negative"}
	}

	if !(c.Boundary.Restitution >= 0 && c.Boundary.Restitution <= 1) {
		return &FieldError{Field: "boundary.restitution", Reason: "must be within [0, 1]"}
	}

	materials := []struct {
		name string
		m    MaterialConfig
	}{{"air", c.Materials.Air}, {"water", c.Materials.Water}}
	for _, mat := range materials {
		if !positive(mat.m.Mass) {
			return &FieldError{Field: "materials." + mat.name + ".mass", Reason: "must be positive"}
		}
		if !positive(mat.m.RestDensity) {
			return &FieldError{Field: "materials." + mat.name + ".rest_density", Reason: "must be positive"}
		}
	}

	for i, f := range c.Forces {
		field := fmt.Sprintf("forces[%d]", i)
		switch f.Type {
		case ForceGravity, ForceDirectional, ForceRadial:
		default:
			return &FieldError{Field: field + ".type", Reason: fmt.Sprintf("unknown force type %q", f.Type)}
		}
		if math.IsNaN(f.Magnitude) || math.IsInf(f.Magnitude, 0) {
			return &FieldError{Field: field + ".magnitude", Reason: "must be finite"}
		}
	}

	if c.Telemetry.LogInterval < 0 || c.Telemetry.PerfWindow < 0 || c.Telemetry.SnapshotInterval < 0 {
		return &FieldError{Field: "telemetry", Reason: "intervals must be non-negative"}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
