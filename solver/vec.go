// Package solver implements the per-frame Position-Based Fluids pipeline:
// spatial index construction, neighbor reduction, the density constraint
// projection, vorticity confinement, XSPH viscosity and integration.
package solver

import "math"

// Epsilon guards degenerate denominators throughout the solver. Degeneracy
// softens the response to zero instead of faulting.
const Epsilon = 1e-7

// Vec is a 3-component float32 vector padded to 4 lanes. The layout matches
// GPU-style 16-byte records; the 4th lane carries no meaning except in the
// render output, where it is forced to 1.
type Vec [4]float32

// V3 builds a padded vector from 3 components, lane 3 zero.
func V3(x, y, z float32) Vec {
	return Vec{x, y, z, 0}
}

func (v Vec) Add(u Vec) Vec {
	return Vec{v[0] + u[0], v[1] + u[1], v[2] + u[2], v[3] + u[3]}
}

func (v Vec) Sub(u Vec) Vec {
	return Vec{v[0] - u[0], v[1] - u[1], v[2] - u[2], v[3] - u[3]}
}

func (v Vec) Scale(s float32) Vec {
	return Vec{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Dot ignores the padding lane.
func (v Vec) Dot(u Vec) float32 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Cross returns the 3D cross product, lane 3 zero.
func (v Vec) Cross(u Vec) Vec {
	return Vec{
		v[1]*u[2] - v[2]*u[1],
		v[2]*u[0] - v[0]*u[2],
		v[0]*u[1] - v[1]*u[0],
		0,
	}
}

func (v Vec) LenSq() float32 {
	return v.Dot(v)
}

func (v Vec) Len() float32 {
	return sqrtf(v.LenSq())
}

// Normalized returns the unit vector, or zero when the length is within
// Epsilon of zero.
func (v Vec) Normalized() Vec {
	l := v.Len()
	if l <= Epsilon {
		return Vec{}
	}
	return v.Scale(1 / l)
}

// Clamp limits each of the first 3 lanes to [lo, hi] per axis.
func (v Vec) Clamp(lo, hi Vec) Vec {
	return Vec{
		clampf(v[0], lo[0], hi[0]),
		clampf(v[1], lo[1], hi[1]),
		clampf(v[2], lo[2], hi[2]),
		v[3],
	}
}

// float32 math helpers for the hot path.

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func powf(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundf(x float32) int32 {
	return int32(math.Round(float64(x)))
}
