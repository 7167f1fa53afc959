package solver

// CubeWidth is the side, in cells, of the cube of candidate cells searched
// around a particle's home cell. 3 gives 27 candidates; 5 gives 125.
const CubeWidth = 3

// cubeCells sizes the fixed candidate buffer from the same constant.
const cubeCells = CubeWidth * CubeWidth * CubeWidth

// Combine folds one qualifying neighbor j of particle i into acc, in place.
// Every combine in this solver is additive, so the reducer's lack of visit
// ordering cannot change the result.
type Combine[D, A any] func(ps *Params, i, j int, aux D, acc *A)

// ForEachNeighbor is the single reduction point for all n-body interactions:
// it folds combine over every particle within particleRadius+searchRadius of
// particle i, found via the spatial index. Candidate cells are collected into
// a fixed-capacity stack buffer (no allocation per call); cells outside the
// grid or empty this frame are skipped, as is particle i itself. An
// out-of-range i is a defensive no-op returning the seed accumulator.
func ForEachNeighbor[D, A any](s *Solver, i int, searchRadius float32, aux D, combine Combine[D, A], acc A) A {
	if i < 0 || i >= s.pt.Count() {
		return acc
	}

	ci, cj, ck := s.grid.Cell(i)

	var cube [cubeCells][3]int32
	nCand := 0
	const half = int32(CubeWidth / 2)
	for dk := -half; dk <= half; dk++ {
		for dj := -half; dj <= half; dj++ {
			for di := -half; di <= half; di++ {
				cube[nCand] = [3]int32{ci + di, cj + dj, ck + dk}
				nCand++
			}
		}
	}

	pred := s.pt.Pred
	sorted := s.grid.Sorted()
	reach := s.params.ParticleRadius + searchRadius

	for c := 0; c < nCand; c++ {
		key := s.grid.Key(cube[c][0], cube[c][1], cube[c][2])
		if key == Unassigned {
			continue
		}
		start, count := s.grid.Range(key)
		if start == Unassigned {
			continue
		}

		for t := start; t < start+count; t++ {
			j := int(sorted[t].Particle)
			if j == i {
				continue
			}
			if pred[i].Sub(pred[j]).Len()-reach <= 0 {
				combine(&s.params, i, j, aux, &acc)
			}
		}
	}

	return acc
}
