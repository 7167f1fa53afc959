package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/brine/solver"
)

// FrameStats holds aggregated fluid statistics sampled at one frame.
type FrameStats struct {
	Frame     int `csv:"frame"`
	Particles int `csv:"particles"`

	// Density distribution from the last constraint iteration
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	// Velocity field
	MaxSpeed      float64 `csv:"max_speed"`
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Health: NaN or Inf components anywhere in the particle state.
	// Expected to stay 0; numerical degeneracy softens, it must not explode.
	BadValues int `csv:"bad_values"`
}

// CollectFrame samples frame statistics from the solver state.
func CollectFrame(frame int, s *solver.Solver) FrameStats {
	pt := s.Particles()
	n := pt.Count()

	fs := FrameStats{Frame: frame, Particles: n}
	if n == 0 {
		return fs
	}

	dens := make([]float64, n)
	for i, d := range s.Densities() {
		dens[i] = float64(d)
	}
	sort.Float64s(dens)

	fs.DensityMean = stat.Mean(dens, nil)
	fs.DensityStd = stat.StdDev(dens, nil)
	fs.DensityP10 = stat.Quantile(0.1, stat.Empirical, dens, nil)
	fs.DensityP50 = stat.Quantile(0.5, stat.Empirical, dens, nil)
	fs.DensityP90 = stat.Quantile(0.9, stat.Empirical, dens, nil)

	for i := 0; i < n; i++ {
		speedSq := float64(pt.Vel[i].LenSq())
		if speedSq > fs.MaxSpeed*fs.MaxSpeed {
			fs.MaxSpeed = math.Sqrt(speedSq)
		}
		fs.KineticEnergy += 0.5 * speedSq // unit mass

		fs.BadValues += badComponents(pt.Pos[i])
		fs.BadValues += badComponents(pt.Vel[i])
	}

	return fs
}

// badComponents counts NaN/Inf lanes in the xyz part of a vector.
func badComponents(v solver.Vec) int {
	bad := 0
	for lane := 0; lane < 3; lane++ {
		f := float64(v[lane])
		if math.IsNaN(f) || math.IsInf(f, 0) {
			bad++
		}
	}
	return bad
}

// LogStats logs frame statistics.
func (fs FrameStats) LogStats() {
	slog.Info("frame_stats",
		"frame", fs.Frame,
		"particles", fs.Particles,
		"density_mean", fs.DensityMean,
		"density_p50", fs.DensityP50,
		"max_speed", fs.MaxSpeed,
		"kinetic_energy", fs.KineticEnergy,
		"bad_values", fs.BadValues,
	)
}
