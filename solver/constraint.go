package solver

// One constraint projection iteration: density estimate -> lambda ->
// position delta -> apply. The host repeats the four stages K times per
// frame (config solver.iterations); each stage is a full parallel pass with
// a barrier before the next, and deltas are always computed from one
// consistent snapshot of the predicted positions.

// densityCombine accumulates the poly6-weighted unit-mass contribution of
// neighbor j.
func densityCombine(ps *Params, i, j int, pred []Vec, acc *float32) {
	*acc += Poly6(pred[i].Sub(pred[j]), ps.SmoothingRadius)
}

// estimateDensity computes rho_i for a range of particles. An isolated
// particle gets density 0, never an error.
func (s *Solver) estimateDensity(lo, hi int) {
	for i := lo; i < hi; i++ {
		s.density[i] = ForEachNeighbor(s, i, s.params.ParticleRadius,
			s.pt.Pred, densityCombine, float32(0))
	}
}

// lambdaAcc accumulates both gradient cases of the constraint denominator:
// the summed gradient for k=i and the per-neighbor squared norms for k=j.
type lambdaAcc struct {
	Grad  Vec
	SumSq float32
}

func gradientCombine(ps *Params, i, j int, pred []Vec, acc *lambdaAcc) {
	grad := SpikyGradient(pred[i].Sub(pred[j]), ps.SmoothingRadius).
		Scale(1 / ps.RestDensity)
	acc.Grad = acc.Grad.Add(grad)

	// k=j case: the gradient seen from the neighbor, negated and scaled.
	neg := grad.Scale(-1)
	acc.SumSq += neg.LenSq()
}

// computeLambda evaluates the constraint C_i = rho_i/rho0 - 1 and its scaled
// Lagrange multiplier for a range of particles.
func (s *Solver) computeLambda(lo, hi int) {
	for i := lo; i < hi; i++ {
		c := s.density[i]/s.params.RestDensity - 1

		acc := ForEachNeighbor(s, i, s.params.ParticleRadius,
			s.pt.Pred, gradientCombine, lambdaAcc{})

		sum := acc.Grad.LenSq() + acc.SumSq
		if sum == 0 {
			sum = Epsilon
		}

		s.lambda[i] = -c / (sum + s.params.RelaxationEpsilon)
	}
}

// deltaAux carries the snapshot arrays the position-delta fold reads.
type deltaAux struct {
	Pred   []Vec
	Lambda []float32
}

// deltaCombine accumulates (lambda_i + lambda_j + scorr) * gradW for
// neighbor j. scorr is the artificial pressure term keeping particles from
// clustering under the attractive kernel.
func deltaCombine(ps *Params, i, j int, aux deltaAux, acc *Vec) {
	h := ps.SmoothingRadius
	r := aux.Pred[i].Sub(aux.Pred[j])

	// Denominator kernel is evaluated at a fixed offset from the querying
	// particle's own predicted position, not neighbor-relative.
	q := aux.Pred[i].Add(V3(0.3*h, 0.3*h, 0.3*h))
	den := Poly6(q, h)

	var ratio float32
	if absf(den) > Epsilon {
		ratio = powf(Poly6(r, h)/den, ps.ArtificialPressureN)
	}
	scorr := -ps.ArtificialPressureK * ratio

	term := SpikyGradient(r, h).Scale(aux.Lambda[i] + aux.Lambda[j] + scorr)
	*acc = acc.Add(term)
}

// computePositionDelta accumulates each particle's correction from the
// current snapshot and folds the bounding-volume clamp into it: the stored
// delta moves x* to clamp(x*) + sum, identical to clamping x* in place after
// accumulation, without this stage writing positions other workers read.
func (s *Solver) computePositionDelta(lo, hi int) {
	r := s.params.ParticleRadius
	min, max := s.grid.Bounds()
	lim0 := V3(min[0]+r, min[1]+r, min[2]+r)
	lim1 := V3(max[0]-r, max[1]-r, max[2]-r)

	aux := deltaAux{Pred: s.pt.Pred, Lambda: s.lambda}

	for i := lo; i < hi; i++ {
		acc := ForEachNeighbor(s, i, s.params.ParticleRadius,
			aux, deltaCombine, Vec{})
		delta := acc.Scale(1 / s.params.RestDensity)

		clamped := s.pt.Pred[i].Clamp(lim0, lim1)
		s.delta[i] = delta.Add(clamped.Sub(s.pt.Pred[i]))
	}
}

// applyPositionDelta commits the deltas computed by the previous stage. Runs
// only after the delta stage's barrier, so every correction came from the
// same position snapshot.
func (s *Solver) applyPositionDelta(lo, hi int) {
	for i := lo; i < hi; i++ {
		s.pt.Pred[i] = s.pt.Pred[i].Add(s.delta[i])
	}
}

// ResolveCollisions is the extension point for static-geometry collision
// response. No static geometry is defined yet, so it does nothing.
func (s *Solver) ResolveCollisions(lo, hi int) {
	_ = lo
	_ = hi
}
