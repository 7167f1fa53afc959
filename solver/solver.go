package solver

import (
	"github.com/pthm-cable/brine/dispatch"
)

// Phase names for the frame step, as reported to the tracer.
const (
	PhasePredict    = "predict"
	PhaseGridBuild  = "grid_build"
	PhaseConstraint = "constraint"
	PhaseCurl       = "curl"
	PhaseFinalize   = "finalize"
)

// Tracer receives phase boundaries during a frame step. telemetry's
// PerfCollector satisfies it; a nil tracer costs nothing.
type Tracer interface {
	StartPhase(name string)
}

// Solver owns the per-frame pipeline and its scratch state. Positions and
// velocities live in the particle store across frames; everything else is
// recomputed from scratch each Step.
type Solver struct {
	params Params
	pt     *Particles
	grid   *Grid
	pool   *dispatch.Pool

	iterations int // constraint projection passes per frame (K)

	// Per-frame scratch, one slot per particle.
	density []float32
	lambda  []float32
	delta   []Vec
	curl    []Vec
	viscSum []Vec

	tracer Tracer
}

// New creates a solver over an existing particle store. min/max and dims
// define the uniform grid; iterations is the constraint pass count K. The
// caller keeps ownership of the store and the pool.
func New(params Params, pt *Particles, min, max Vec, dims [3]int, iterations int, pool *dispatch.Pool) *Solver {
	n := pt.Count()
	return &Solver{
		params:     params,
		pt:         pt,
		grid:       NewGrid(min, max, dims, n),
		pool:       pool,
		iterations: iterations,
		density:    make([]float32, n),
		lambda:     make([]float32, n),
		delta:      make([]Vec, n),
		curl:       make([]Vec, n),
		viscSum:    make([]Vec, n),
	}
}

// SetTracer installs a phase tracer. Pass nil to disable.
func (s *Solver) SetTracer(t Tracer) {
	s.tracer = t
}

// SetParams replaces the parameter set. Only legal between frames.
func (s *Solver) SetParams(p Params) {
	s.params = p
}

// Params returns the current parameter set.
func (s *Solver) Params() Params {
	return s.params
}

// Particles returns the particle store.
func (s *Solver) Particles() *Particles {
	return s.pt
}

// Grid returns the spatial index. Its contents are valid for the frame that
// last called Step.
func (s *Solver) Grid() *Grid {
	return s.grid
}

// Densities returns the density scratch from the last constraint iteration.
func (s *Solver) Densities() []float32 {
	return s.density
}

// Lambdas returns the lambda scratch from the last constraint iteration.
func (s *Solver) Lambdas() []float32 {
	return s.lambda
}

func (s *Solver) phase(name string) {
	if s.tracer != nil {
		s.tracer.StartPhase(name)
	}
}

// Step advances the simulation one frame:
//
//	predict -> build index -> K x {density -> lambda -> delta -> apply}
//	        -> curl -> finalize
//
// Every stage is a full pass over the particles with a barrier before the
// next stage, so no stage reads a buffer a concurrent stage is writing.
func (s *Solver) Step() {
	n := s.pt.Count()
	if n == 0 {
		return
	}

	s.phase(PhasePredict)
	s.pool.ForEach(n, s.predict)

	s.phase(PhaseGridBuild)
	s.grid.Build(s.pool, s.pt.Pred)

	s.phase(PhaseConstraint)
	for it := 0; it < s.iterations; it++ {
		s.pool.ForEach(n, s.estimateDensity)
		s.pool.ForEach(n, s.computeLambda)
		s.pool.ForEach(n, s.computePositionDelta)
		s.pool.ForEach(n, s.applyPositionDelta)
		s.pool.ForEach(n, s.ResolveCollisions)
	}

	s.phase(PhaseCurl)
	s.pool.ForEach(n, s.computeCurl)

	s.phase(PhaseFinalize)
	s.pool.ForEach(n, s.finalizeVelocity)
	s.pool.ForEach(n, s.accumulateViscosity)
	s.pool.ForEach(n, func(lo, hi int) {
		s.applyViscosity(lo, hi)
		s.finalizeCommit(lo, hi)
	})
}
