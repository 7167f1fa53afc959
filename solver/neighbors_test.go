package solver

import (
	"testing"

	"github.com/pthm-cable/brine/dispatch"
)

func testParams() Params {
	return Params{
		DT:                  1.0 / 120.0,
		Gravity:             9.8,
		RestDensity:         6378,
		ParticleRadius:      0.05,
		SmoothingRadius:     0.1,
		RelaxationEpsilon:   600,
		ArtificialPressureK: 0.0001,
		ArtificialPressureN: 4,
		VorticityEpsilon:    0.0005,
		ViscosityCoeff:      0.01,
	}
}

// newTestSolver builds a solver over explicit positions with the index built.
func newTestSolver(t *testing.T, pos []Vec, params Params, iterations int) (*Solver, *dispatch.Pool) {
	t.Helper()

	pt := NewParticles(len(pos))
	copy(pt.Pos, pos)
	copy(pt.Pred, pos)

	pool := dispatch.NewPoolSize(4)
	t.Cleanup(pool.Stop)

	s := New(params, pt, V3(0, 0, 0), V3(2, 2, 2), [3]int{10, 10, 10}, iterations, pool)
	s.grid.Build(pool, pt.Pred)
	return s, pool
}

// countCombine tallies visited neighbor ids.
func countCombine(ps *Params, i, j int, visited map[int]int, acc *int) {
	visited[j]++
	*acc++
}

func TestForEachNeighborFindsQualifyingParticles(t *testing.T) {
	// 0 at origin-ish, 1 within reach, 2 well outside
	pos := []Vec{
		V3(1.0, 1.0, 1.0),
		V3(1.06, 1.0, 1.0),  // distance 0.06 < reach 0.1
		V3(1.95, 1.95, 1.95), // far corner
	}
	s, _ := newTestSolver(t, pos, testParams(), 1)

	visited := map[int]int{}
	n := ForEachNeighbor(s, 0, s.params.ParticleRadius, visited, countCombine, 0)

	if n != 1 {
		t.Fatalf("combine invoked %d times, want 1", n)
	}
	if visited[1] != 1 {
		t.Errorf("neighbor 1 visited %d times, want 1", visited[1])
	}
	if visited[0] != 0 {
		t.Error("querying particle must be excluded from its own neighborhood")
	}
	if visited[2] != 0 {
		t.Error("far particle must not qualify")
	}
}

func TestForEachNeighborRadiusBoundary(t *testing.T) {
	params := testParams()
	reach := params.ParticleRadius + params.ParticleRadius

	pos := []Vec{
		V3(1.0, 1.0, 1.0),
		V3(1.0+reach*0.99, 1.0, 1.0), // just inside
		V3(1.0+reach*1.2, 1.0, 1.0),  // just outside but in an adjacent cell
	}
	s, _ := newTestSolver(t, pos, params, 1)

	visited := map[int]int{}
	ForEachNeighbor(s, 0, params.ParticleRadius, visited, countCombine, 0)

	if visited[1] != 1 {
		t.Error("particle just inside the search radius must qualify")
	}
	if visited[2] != 0 {
		t.Error("particle outside the search radius must not qualify")
	}
}

func TestForEachNeighborAcrossCells(t *testing.T) {
	// Neighbors in adjacent cells are found: cell size is 0.2 here, so a
	// 0.15 separation spans a cell boundary while staying within reach of a
	// widened search radius.
	params := testParams()
	pos := []Vec{
		V3(0.99, 1.0, 1.0),
		V3(1.14, 1.0, 1.0),
	}
	s, _ := newTestSolver(t, pos, params, 1)

	visited := map[int]int{}
	n := ForEachNeighbor(s, 0, 0.12, visited, countCombine, 0)
	if n != 1 || visited[1] != 1 {
		t.Errorf("cross-cell neighbor not found: n=%d visited=%v", n, visited)
	}
}

func TestForEachNeighborOutOfRangeID(t *testing.T) {
	pos := []Vec{V3(1, 1, 1)}
	s, _ := newTestSolver(t, pos, testParams(), 1)

	seed := 42
	if got := ForEachNeighbor(s, -1, 0.1, map[int]int{}, countCombine, seed); got != seed {
		t.Errorf("negative id: got %d, want seed %d", got, seed)
	}
	if got := ForEachNeighbor(s, 1, 0.1, map[int]int{}, countCombine, seed); got != seed {
		t.Errorf("past-end id: got %d, want seed %d", got, seed)
	}
}

func TestForEachNeighborIsolated(t *testing.T) {
	pos := []Vec{V3(1, 1, 1), V3(1.9, 1.9, 1.9)}
	s, _ := newTestSolver(t, pos, testParams(), 1)

	if n := ForEachNeighbor(s, 0, s.params.ParticleRadius, map[int]int{}, countCombine, 0); n != 0 {
		t.Errorf("isolated particle folded %d neighbors, want 0", n)
	}
}
