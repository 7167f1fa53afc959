package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/brine/config"
	"github.com/pthm-cable/brine/dispatch"
	"github.com/pthm-cable/brine/solver"
	"github.com/pthm-cable/brine/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in frames (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed for initial jitter (0 = config, then time-based)")
	particles := flag.Int("particles", 0, "Particle count (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	n := cfg.Sim.Particles
	if *particles > 0 {
		n = *particles
	}

	rngSeed := cfg.Sim.Seed
	if *seed != 0 {
		rngSeed = *seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	windowFrames := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		windowFrames = *statsWindow
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer om.Close()

	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	pool := dispatch.NewPool()
	defer pool.Stop()

	s := newSolver(cfg, n, rngSeed, pool)

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	s.SetTracer(perf)

	slog.Info("starting simulation",
		"particles", n,
		"seed", rngSeed,
		"iterations", cfg.Solver.Iterations,
		"grid", cfg.Derived.Cells,
		"workers", pool.Workers(),
		"max_frames", *maxFrames,
	)

	for frame := 1; ; frame++ {
		perf.StartFrame()
		s.Step()
		perf.EndFrame()

		if windowFrames > 0 && frame%windowFrames == 0 {
			stats := telemetry.CollectFrame(frame, s)
			perfStats := perf.Stats()

			if *logStats {
				stats.LogStats()
				perfStats.LogStats()
			}
			if err := om.WriteFrameStats(stats); err != nil {
				slog.Error("failed to write frame stats", "error", err)
			}
			if err := om.WritePerf(perfStats, frame); err != nil {
				slog.Error("failed to write perf", "error", err)
			}

			if stats.BadValues > 0 {
				slog.Warn("non-finite particle state detected",
					"frame", frame, "bad_values", stats.BadValues)
			}
		}

		if *maxFrames > 0 && frame >= *maxFrames {
			slog.Info("max frames reached", "frame", frame)
			return
		}
	}
}

// newSolver builds a solver and seeds the dam-break start state from config.
func newSolver(cfg *config.Config, n int, rngSeed int64, pool *dispatch.Pool) *solver.Solver {
	params := solverParams(cfg)

	min := solver.V3(float32(cfg.World.MinX), float32(cfg.World.MinY), float32(cfg.World.MinZ))
	max := solver.V3(float32(cfg.World.MaxX), float32(cfg.World.MaxY), float32(cfg.World.MaxZ))
	dims := [3]int{cfg.World.CellsX, cfg.World.CellsY, cfg.World.CellsZ}

	pt := solver.NewParticles(n)
	rng := rand.New(rand.NewSource(rngSeed))
	solver.SeedLattice(pt, min, max,
		[3]float32{
			float32(cfg.Sim.SpawnFracX),
			float32(cfg.Sim.SpawnFracY),
			float32(cfg.Sim.SpawnFracZ),
		},
		2*params.ParticleRadius,
		float32(cfg.Sim.Jitter),
		rng,
	)

	return solver.New(params, pt, min, max, dims, cfg.Solver.Iterations, pool)
}

// solverParams maps the loaded config onto the solver's parameter set.
func solverParams(cfg *config.Config) solver.Params {
	return solver.Params{
		DT:                  cfg.Derived.DT32,
		Gravity:             cfg.Derived.Gravity32,
		RestDensity:         float32(cfg.Solver.RestDensity),
		ParticleRadius:      float32(cfg.Solver.ParticleRadius),
		SmoothingRadius:     float32(cfg.Solver.SmoothingRadius),
		RelaxationEpsilon:   float32(cfg.Solver.RelaxationEpsilon),
		ArtificialPressureK: float32(cfg.Solver.ArtificialPressureK),
		ArtificialPressureN: float32(cfg.Solver.ArtificialPressureN),
		VorticityEpsilon:    float32(cfg.Solver.VorticityEpsilon),
		ViscosityCoeff:      float32(cfg.Solver.ViscosityCoeff),
	}
}
