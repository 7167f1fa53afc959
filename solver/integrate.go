package solver

// predict applies gravity and advances the predicted positions at frame
// start. Gravity is the only external force; further forces are a host-side
// extension point.
func (s *Solver) predict(lo, hi int) {
	dt := s.params.DT
	for i := lo; i < hi; i++ {
		s.pt.Vel[i][1] += dt * -s.params.Gravity
		s.pt.Pred[i] = s.pt.Pos[i].Add(s.pt.Vel[i].Scale(dt))
	}
}

// finalizeVelocity derives each velocity from the corrected positions and
// applies the vorticity confinement impulse. Reads curl and positions only,
// writes each particle's own velocity slot.
func (s *Solver) finalizeVelocity(lo, hi int) {
	invDT := 1 / s.params.DT
	for i := lo; i < hi; i++ {
		s.pt.Vel[i] = s.pt.Pred[i].Sub(s.pt.Pos[i]).Scale(invDT)
		s.vorticityForce(i)
	}
}

// finalizeCommit commits positions and emits the render position with the
// homogeneous component forced to 1. Runs after the viscosity sum is applied.
func (s *Solver) finalizeCommit(lo, hi int) {
	for i := lo; i < hi; i++ {
		s.pt.Pos[i] = s.pt.Pred[i]
		s.pt.Render[i] = Vec{s.pt.Pos[i][0], s.pt.Pos[i][1], s.pt.Pos[i][2], 1}
	}
}
