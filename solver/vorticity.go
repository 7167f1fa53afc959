package solver

// Vorticity confinement and XSPH-style viscosity. Confinement re-injects
// rotational motion the position projection damps out; viscosity smooths
// velocities over the neighborhood for stability.

// curlAux carries the snapshot arrays the curl fold reads.
type curlAux struct {
	Pred []Vec
	Vel  []Vec
}

func curlCombine(ps *Params, i, j int, aux curlAux, acc *Vec) {
	vd := aux.Vel[i].Sub(aux.Vel[j])
	grad := SpikyGradient(aux.Pred[i].Sub(aux.Pred[j]), ps.SmoothingRadius)
	*acc = acc.Add(vd.Cross(grad))
}

// computeCurl estimates omega_i for a range of particles.
func (s *Solver) computeCurl(lo, hi int) {
	aux := curlAux{Pred: s.pt.Pred, Vel: s.pt.Vel}
	for i := lo; i < hi; i++ {
		s.curl[i] = ForEachNeighbor(s, i, s.params.ParticleRadius,
			aux, curlCombine, Vec{})
	}
}

// etaAux carries the snapshot arrays the vorticity-gradient fold reads.
type etaAux struct {
	Pred []Vec
	Curl []Vec
}

// etaCombine accumulates the curl-magnitude gradient estimate. The division
// is by the individual components of the position delta, not its magnitude;
// near-axis-aligned pairs can blow a component up. Kept exactly as the
// reference formulation has it.
func etaCombine(ps *Params, i, j int, aux etaAux, acc *Vec) {
	d := aux.Pred[i].Sub(aux.Pred[j])
	w := aux.Curl[i].Sub(aux.Curl[j])
	acc[0] += absf(w[0]) / d[0]
	acc[1] += absf(w[1]) / d[1]
	acc[2] += absf(w[2]) / d[2]
}

// vorticityForce applies the confinement impulse to particle i's velocity:
// f = vorticityEpsilon * (N x omega_i), N the unit curl-magnitude gradient.
// A vanishing gradient means no force, never a fault.
func (s *Solver) vorticityForce(i int) {
	eta := ForEachNeighbor(s, i, s.params.ParticleRadius,
		etaAux{Pred: s.pt.Pred, Curl: s.curl}, etaCombine, Vec{})

	if eta.Len() <= Epsilon {
		return
	}

	f := eta.Normalized().Cross(s.curl[i]).Scale(s.params.VorticityEpsilon)
	s.pt.Vel[i] = s.pt.Vel[i].Add(f.Scale(s.params.DT))
}

// viscAux carries the snapshot arrays the viscosity fold reads.
type viscAux struct {
	Pred []Vec
	Vel  []Vec
}

// viscCombine accumulates the kernel-weighted velocity difference. Note the
// accumulated term is +(v_i - v_j), the literal reference combination, not
// the textbook XSPH subtraction.
func viscCombine(ps *Params, i, j int, aux viscAux, acc *Vec) {
	w := Poly6(aux.Pred[i].Sub(aux.Pred[j]), ps.SmoothingRadius)
	*acc = acc.Add(aux.Vel[i].Sub(aux.Vel[j]).Scale(w))
}

// accumulateViscosity computes each particle's smoothing sum against a fixed
// velocity snapshot; applyViscosity commits it after the barrier.
func (s *Solver) accumulateViscosity(lo, hi int) {
	aux := viscAux{Pred: s.pt.Pred, Vel: s.pt.Vel}
	for i := lo; i < hi; i++ {
		s.viscSum[i] = ForEachNeighbor(s, i, s.params.ParticleRadius,
			aux, viscCombine, Vec{})
	}
}

func (s *Solver) applyViscosity(lo, hi int) {
	for i := lo; i < hi; i++ {
		s.pt.Vel[i] = s.pt.Vel[i].Add(s.viscSum[i].Scale(s.params.ViscosityCoeff))
	}
}
