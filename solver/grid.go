package solver

import (
	"sync/atomic"

	"github.com/pthm-cable/brine/dispatch"
)

// Unassigned marks every field of a cleared CellAssignment and the start of
// an empty CellRange.
const Unassigned = -1

// CellAssignment maps one particle to its grid cell for the current frame.
type CellAssignment struct {
	Particle int32
	I, J, K  int32 // cell subscript
	Key      int32 // linear key = I + J*W + K*W*H
}

// rangeUnset is the packed form of an empty cell: start and count both -1.
// A CellRange is published as one atomic word so concurrent redundant writers
// in the bin-finding stage can never expose a half-written pair.
const rangeUnset = ^uint64(0)

func packRange(start, count int32) uint64 {
	return uint64(uint32(start))<<32 | uint64(uint32(count))
}

func unpackRange(p uint64) (start, count int32) {
	return int32(uint32(p >> 32)), int32(uint32(p))
}

// Grid is the uniform spatial index over the bounding volume. Build produces
// a particle-to-cell assignment array, its counting-sorted permutation, and a
// [start, start+count) range per occupied cell. All of it is rebuilt from
// scratch every frame; ranges are meaningful only after Build returns.
type Grid struct {
	min, max Vec
	dims     [3]int32
	cells    int

	histogram []atomic.Int32  // per-key particle count, built by discretize
	cursors   []atomic.Int32  // per-key write cursor, built by the prefix sum
	ranges    []atomic.Uint64 // per-key packed CellRange

	assignments []CellAssignment // indexed by particle
	sorted      []CellAssignment // permutation of assignments, partitioned by key
}

// NewGrid creates a grid spanning [min, max] with the given cell resolution
// and particle capacity. Dimensions must be >= 1 per axis; the config layer
// validates that before the solver is constructed.
func NewGrid(min, max Vec, dims [3]int, particles int) *Grid {
	g := &Grid{
		min:   min,
		max:   max,
		dims:  [3]int32{int32(dims[0]), int32(dims[1]), int32(dims[2])},
		cells: dims[0] * dims[1] * dims[2],
	}
	g.histogram = make([]atomic.Int32, g.cells)
	g.cursors = make([]atomic.Int32, g.cells)
	g.ranges = make([]atomic.Uint64, g.cells)
	g.assignments = make([]CellAssignment, particles)
	g.sorted = make([]CellAssignment, particles)
	return g
}

// Dims returns the cell resolution per axis.
func (g *Grid) Dims() [3]int32 {
	return g.dims
}

// Cells returns the total cell count.
func (g *Grid) Cells() int {
	return g.cells
}

// Bounds returns the world extent the grid spans.
func (g *Grid) Bounds() (min, max Vec) {
	return g.min, g.max
}

// Key returns the linear cell key for a subscript, or Unassigned when the
// subscript lies outside the grid.
func (g *Grid) Key(i, j, k int32) int32 {
	if i < 0 || j < 0 || k < 0 || i >= g.dims[0] || j >= g.dims[1] || k >= g.dims[2] {
		return Unassigned
	}
	return i + j*g.dims[0] + k*g.dims[0]*g.dims[1]
}

// Cell returns the cell subscript assigned to a particle this frame.
func (g *Grid) Cell(particle int) (i, j, k int32) {
	a := &g.assignments[particle]
	return a.I, a.J, a.K
}

// Range returns the [start, start+count) window of the sorted assignment
// array holding a cell's particles. start == Unassigned means the cell is
// empty this frame.
func (g *Grid) Range(key int32) (start, count int32) {
	return unpackRange(g.ranges[key].Load())
}

// Sorted returns the counting-sorted assignment array. Valid between a Build
// and the next Build; callers must not retain it across frames.
func (g *Grid) Sorted() []CellAssignment {
	return g.sorted
}

// HistogramCounts copies the per-cell particle counts, for diagnostics.
func (g *Grid) HistogramCounts() []int32 {
	out := make([]int32, g.cells)
	for i := range out {
		out[i] = g.histogram[i].Load()
	}
	return out
}

// subscript rescales one position component into [0, dim-1] and rounds to the
// nearest cell, clamping so bounding-box-edge positions land in range.
func (g *Grid) subscript(p, lo, hi float32, dim int32) int32 {
	span := hi - lo
	if span < Epsilon {
		return 0
	}
	s := roundf((p - lo) / span * float32(dim-1))
	if s < 0 {
		return 0
	}
	if s >= dim {
		return dim - 1
	}
	return s
}

// Build runs the four index stages over the predicted positions, each stage a
// full data-parallel pass with a barrier before the next:
//
//	discretize -> prefix sum -> counting sort -> bin finding
//
// The histogram increments and sort-cursor fetches are atomic; everything
// else writes disjoint slots. The sort is not stable across runs (slot order
// within a cell depends on atomic contention) but always a complete
// permutation partitioned by key.
func (g *Grid) Build(pool *dispatch.Pool, pred []Vec) {
	n := len(pred)

	g.reset(pool, n)

	pool.ForEach(n, func(lo, hi int) {
		g.discretize(pred, lo, hi)
	})

	g.prefixSum()

	pool.ForEach(n, func(lo, hi int) {
		g.countSort(lo, hi)
	})

	pool.ForEach(n, func(lo, hi int) {
		g.findBins(lo, hi)
	})
}

// reset clears all per-frame index state back to sentinels.
func (g *Grid) reset(pool *dispatch.Pool, n int) {
	pool.ForEach(g.cells, func(lo, hi int) {
		for c := lo; c < hi; c++ {
			g.histogram[c].Store(0)
			g.cursors[c].Store(0)
			g.ranges[c].Store(rangeUnset)
		}
	})

	cleared := CellAssignment{
		Particle: Unassigned,
		I:        Unassigned, J: Unassigned, K: Unassigned,
		Key: Unassigned,
	}
	pool.ForEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			g.assignments[i] = cleared
			g.sorted[i] = cleared
		}
	})
}

// discretize maps each particle to a cell subscript and key and counts it in
// the per-key histogram.
func (g *Grid) discretize(pred []Vec, lo, hi int) {
	for p := lo; p < hi; p++ {
		pos := pred[p]
		i := g.subscript(pos[0], g.min[0], g.max[0], g.dims[0])
		j := g.subscript(pos[1], g.min[1], g.max[1], g.dims[1])
		k := g.subscript(pos[2], g.min[2], g.max[2], g.dims[2])
		key := g.Key(i, j, k)

		g.assignments[p] = CellAssignment{
			Particle: int32(p),
			I:        i, J: j, K: k,
			Key: key,
		}
		g.histogram[key].Add(1)
	}
}

// prefixSum converts the histogram into per-key write cursors via an
// exclusive scan. Serial: it runs between two parallel stages and is O(cells).
func (g *Grid) prefixSum() {
	var sum int32
	for c := 0; c < g.cells; c++ {
		g.cursors[c].Store(sum)
		sum += g.histogram[c].Load()
	}
}

// countSort scatters each assignment to its cell's next slot.
func (g *Grid) countSort(lo, hi int) {
	for p := lo; p < hi; p++ {
		a := g.assignments[p]
		slot := g.cursors[a.Key].Add(1) - 1
		g.sorted[slot] = a
	}
}

// findBins locates, for each sorted slot whose cell range is still unset, the
// run of adjacent slots sharing its key, and publishes [start, count) for
// that key. Slots of one cell redundantly compute an identical pair; the
// single-word store keeps that race benign.
func (g *Grid) findBins(lo, hi int) {
	n := len(g.sorted)
	for s := lo; s < hi; s++ {
		key := g.sorted[s].Key
		if key == Unassigned {
			continue
		}
		if g.ranges[key].Load() != rangeUnset {
			continue
		}

		start := s
		for start > 0 && g.sorted[start-1].Key == key {
			start--
		}
		end := s
		for end+1 < n && g.sorted[end+1].Key == key {
			end++
		}

		g.ranges[key].Store(packRange(int32(start), int32(end-start+1)))
	}
}
