// gridcheck builds the spatial index once for a configuration and dumps its
// state: per-cell histogram/ranges and the sorted assignment array, plus an
// occupancy summary. Useful when tuning grid resolution against particle
// counts.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pthm-cable/brine/config"
	"github.com/pthm-cable/brine/dispatch"
	"github.com/pthm-cable/brine/solver"
	"github.com/pthm-cable/brine/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "gridcheck-out", "Directory for dump CSVs")
	seed := flag.Int64("seed", 1, "RNG seed for initial jitter")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	min := solver.V3(float32(cfg.World.MinX), float32(cfg.World.MinY), float32(cfg.World.MinZ))
	max := solver.V3(float32(cfg.World.MaxX), float32(cfg.World.MaxY), float32(cfg.World.MaxZ))
	dims := [3]int{cfg.World.CellsX, cfg.World.CellsY, cfg.World.CellsZ}

	n := cfg.Sim.Particles
	pt := solver.NewParticles(n)
	spacing := 2 * float32(cfg.Solver.ParticleRadius)
	solver.SeedLattice(pt, min, max,
		[3]float32{
			float32(cfg.Sim.SpawnFracX),
			float32(cfg.Sim.SpawnFracY),
			float32(cfg.Sim.SpawnFracZ),
		},
		spacing,
		float32(cfg.Sim.Jitter),
		rand.New(rand.NewSource(*seed)),
	)

	pool := dispatch.NewPool()
	defer pool.Stop()

	grid := solver.NewGrid(min, max, dims, n)
	grid.Build(pool, pt.Pred)

	summary := telemetry.Summarize(grid)
	slog.Info("grid built",
		"particles", n,
		"cells", summary.Cells,
		"occupied_cells", summary.OccupiedCells,
		"assigned", summary.Assigned,
		"max_per_cell", summary.MaxPerCell,
	)

	if summary.Assigned != n {
		slog.Error("assignment count does not match particle count",
			"assigned", summary.Assigned, "particles", n)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	cellsPath := filepath.Join(*outputDir, "cells.csv")
	assignmentsPath := filepath.Join(*outputDir, "assignments.csv")
	if err := telemetry.WriteGridDump(grid, cellsPath, assignmentsPath); err != nil {
		slog.Error("failed to write grid dump", "error", err)
		os.Exit(1)
	}

	slog.Info("dump written", "cells", cellsPath, "assignments", assignmentsPath)
}
