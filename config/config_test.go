package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}

	if cfg.Solver.DT <= 0 {
		t.Errorf("default dt %g", cfg.Solver.DT)
	}
	if cfg.Solver.Iterations < 1 {
		t.Errorf("default iterations %d", cfg.Solver.Iterations)
	}
	if cfg.Solver.SmoothingRadius <= cfg.Solver.ParticleRadius {
		t.Errorf("smoothing radius %g not above particle radius %g",
			cfg.Solver.SmoothingRadius, cfg.Solver.ParticleRadius)
	}
	if cfg.Derived.Cells != cfg.World.CellsX*cfg.World.CellsY*cfg.World.CellsZ {
		t.Errorf("derived cells %d", cfg.Derived.Cells)
	}
	if cfg.Derived.DT32 == 0 || cfg.Derived.InvDT32 == 0 {
		t.Error("derived timestep values not computed")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	body := "solver:\n  iterations: 7\nsim:\n  particles: 123\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading override: %v", err)
	}

	if cfg.Solver.Iterations != 7 {
		t.Errorf("iterations = %d, want 7", cfg.Solver.Iterations)
	}
	if cfg.Sim.Particles != 123 {
		t.Errorf("particles = %d, want 123", cfg.Sim.Particles)
	}

	// Fields absent from the file keep their defaults.
	def, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.DT != def.Solver.DT {
		t.Errorf("dt %g changed by unrelated override, default %g",
			cfg.Solver.DT, def.Solver.DT)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero cells", "world:\n  cells_x: 0\n"},
		{"inverted extent", "world:\n  max_x: -5\n"},
		{"zero dt", "solver:\n  dt: 0\n"},
		{"zero iterations", "solver:\n  iterations: 0\n"},
		{"negative smoothing radius", "solver:\n  smoothing_radius: -1\n"},
		{"zero particle radius", "solver:\n  particle_radius: 0\n"},
		{"zero rest density", "solver:\n  rest_density: 0\n"},
		{"negative particles", "sim:\n  particles: -1\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Solver.Iterations = 9

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if back.Solver.Iterations != 9 {
		t.Errorf("iterations = %d after round trip, want 9", back.Solver.Iterations)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	prev := global
	global = nil
	defer func() {
		global = prev
		if recover() == nil {
			t.Error("Cfg did not panic before Init")
		}
	}()
	Cfg()
}
