package solver

// Particles is the particle store: parallel arrays of padded vectors, one
// slot per particle. Slots are mutated in place every frame and never
// removed during a run; the index is the particle identity.
type Particles struct {
	Pos    []Vec // committed position x
	Pred   []Vec // predicted position x*, corrected by the constraint solver
	Vel    []Vec // velocity
	Render []Vec // render output, homogeneous w forced to 1 on finalize
}

// NewParticles allocates a store for n particles, all state zeroed.
func NewParticles(n int) *Particles {
	return &Particles{
		Pos:    make([]Vec, n),
		Pred:   make([]Vec, n),
		Vel:    make([]Vec, n),
		Render: make([]Vec, n),
	}
}

// Count returns the number of particles.
func (pt *Particles) Count() int {
	return len(pt.Pos)
}

// Params is the per-frame parameter set. Immutable within a frame;
// reconfigure between frames only.
type Params struct {
	DT                  float32
	Gravity             float32 // downward acceleration magnitude
	RestDensity         float32
	ParticleRadius      float32
	SmoothingRadius     float32
	RelaxationEpsilon   float32
	ArtificialPressureK float32
	ArtificialPressureN float32
	VorticityEpsilon    float32
	ViscosityCoeff      float32
}
