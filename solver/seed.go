package solver

import "math/rand"

// SeedLattice arranges all particles in a jittered cubic lattice filling a
// corner region of the bounding volume (the usual dam-break start). frac is
// the region size per axis as a fraction of the world extent; spacing is the
// lattice step; jitter displaces each particle by up to jitter*spacing per
// axis. Velocities are zeroed and predicted positions start at the lattice
// positions.
func SeedLattice(pt *Particles, min, max Vec, frac [3]float32, spacing, jitter float32, rng *rand.Rand) {
	if spacing <= 0 {
		spacing = 1
	}

	nx := latticeCount(max[0]-min[0], frac[0], spacing)
	nz := latticeCount(max[2]-min[2], frac[2], spacing)

	for i := 0; i < pt.Count(); i++ {
		layer := i / (nx * nz)
		rem := i % (nx * nz)
		row := rem / nx
		col := rem % nx

		p := V3(
			min[0]+spacing*(float32(col)+0.5),
			min[1]+spacing*(float32(layer)+0.5),
			min[2]+spacing*(float32(row)+0.5),
		)
		if rng != nil && jitter > 0 {
			p[0] += (rng.Float32()*2 - 1) * jitter * spacing
			p[1] += (rng.Float32()*2 - 1) * jitter * spacing
			p[2] += (rng.Float32()*2 - 1) * jitter * spacing
		}
		p = p.Clamp(min, max)

		pt.Pos[i] = p
		pt.Pred[i] = p
		pt.Vel[i] = Vec{}
	}
}

// latticeCount returns how many lattice steps fit in the spawn region along
// one axis, at least 1.
func latticeCount(extent, frac, spacing float32) int {
	n := int(extent * frac / spacing)
	if n < 1 {
		n = 1
	}
	return n
}
