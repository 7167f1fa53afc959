// Package config provides configuration loading and access for the solver.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all solver configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Solver    SolverConfig    `yaml:"solver"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the bounding volume and grid resolution.
// The uniform grid spans exactly [min, max] subdivided into cells_x*cells_y*cells_z.
type WorldConfig struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MinZ float64 `yaml:"min_z"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
	MaxZ float64 `yaml:"max_z"`

	CellsX int `yaml:"cells_x"`
	CellsY int `yaml:"cells_y"`
	CellsZ int `yaml:"cells_z"`
}

// SolverConfig holds the physical parameter set and timestep.
// All values are immutable within a frame; reload between frames to change them.
type SolverConfig struct {
	DT         float64 `yaml:"dt"`         // Seconds per frame
	Iterations int     `yaml:"iterations"` // Constraint projection iterations per frame (K)
	Gravity    float64 `yaml:"gravity"`    // Downward acceleration magnitude

	RestDensity         float64 `yaml:"rest_density"`
	ParticleRadius      float64 `yaml:"particle_radius"`
	SmoothingRadius     float64 `yaml:"smoothing_radius"`
	RelaxationEpsilon   float64 `yaml:"relaxation_epsilon"`
	ArtificialPressureK float64 `yaml:"artificial_pressure_k"`
	ArtificialPressureN float64 `yaml:"artificial_pressure_n"`
	VorticityEpsilon    float64 `yaml:"vorticity_epsilon"`
	ViscosityCoeff      float64 `yaml:"viscosity_coeff"`
}

// SimConfig holds run settings for the headless runner.
type SimConfig struct {
	Particles int   `yaml:"particles"`
	Seed      int64 `yaml:"seed"` // 0 = time-based

	// Spawn region for the initial dam-break lattice, as fractions of the
	// world extent per axis.
	SpawnFracX float64 `yaml:"spawn_frac_x"`
	SpawnFracY float64 `yaml:"spawn_frac_y"`
	SpawnFracZ float64 `yaml:"spawn_frac_z"`
	Jitter     float64 `yaml:"jitter"` // Lattice jitter as a fraction of particle spacing
}

// TelemetryConfig holds stats collection settings.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Frames per stats window
	PerfWindow  int `yaml:"perf_window"`  // Frames averaged for perf stats
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Solver.DT as float32
	InvDT32   float32 // 1/DT as float32
	Gravity32 float32
	Cells     int // CellsX * CellsY * CellsZ
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects malformed configuration before it reaches the solver core.
// The core assumes legal grid dimensions and radii; this is the host-side gate.
func (c *Config) Validate() error {
	w := &c.World
	if w.CellsX < 1 || w.CellsY < 1 || w.CellsZ < 1 {
		return fmt.Errorf("config: grid dimensions must be >= 1 per axis, got %dx%dx%d",
			w.CellsX, w.CellsY, w.CellsZ)
	}
	if w.MaxX <= w.MinX || w.MaxY <= w.MinY || w.MaxZ <= w.MinZ {
		return fmt.Errorf("config: world max extent must exceed min extent on every axis")
	}

	s := &c.Solver
	if s.DT <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", s.DT)
	}
	if s.Iterations < 1 {
		return fmt.Errorf("config: iterations must be >= 1, got %d", s.Iterations)
	}
	if s.SmoothingRadius <= 0 {
		return fmt.Errorf("config: smoothing_radius must be positive, got %g", s.SmoothingRadius)
	}
	if s.ParticleRadius <= 0 {
		return fmt.Errorf("config: particle_radius must be positive, got %g", s.ParticleRadius)
	}
	if s.RestDensity <= 0 {
		return fmt.Errorf("config: rest_density must be positive, got %g", s.RestDensity)
	}

	if c.Sim.Particles < 0 {
		return fmt.Errorf("config: particles must be >= 0, got %d", c.Sim.Particles)
	}

	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Solver.DT)
	c.Derived.InvDT32 = float32(1.0 / c.Solver.DT)
	c.Derived.Gravity32 = float32(c.Solver.Gravity)
	c.Derived.Cells = c.World.CellsX * c.World.CellsY * c.World.CellsZ
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
