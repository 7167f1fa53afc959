package solver

import "math"

// SPH smoothing kernels. Both are pure and stateless: weight depends only on
// the offset vector r and the smoothing radius h. Outside the support radius
// (and inside the Epsilon core, where the poly6 weight would dominate the
// estimate) the weight is exactly zero.

const (
	poly6Const = 315.0 / (64.0 * math.Pi)
	spikyConst = 45.0 / math.Pi
)

// Poly6 is the standard density estimation kernel,
// (315/(64*pi*h^9)) * (h^2 - |r|^2)^3. Symmetric in r. A degenerate radius
// (h within Epsilon of zero) softens the weight to zero; the guard is on h
// itself, not h^9, so working radii well below 1 keep their full weight.
func Poly6(r Vec, h float32) float32 {
	if h < Epsilon {
		return 0
	}

	dist := r.Len()
	if dist < Epsilon || dist > h {
		return 0
	}

	h3 := h * h * h
	h9 := h3 * h3 * h3
	d := h*h - dist*dist
	return poly6Const / h9 * d * d * d
}

// SpikyGradient is the gradient of the spiky kernel,
// (45/(pi*h^6)) * (h - |r|)^2 * r/|r|, used wherever the constraint needs a
// direction. Antisymmetric: SpikyGradient(-r, h) == -SpikyGradient(r, h).
// The padding lane of the result is always zero.
func SpikyGradient(r Vec, h float32) Vec {
	dist := r.Len()
	if dist <= Epsilon || dist > h {
		return Vec{}
	}

	h6 := h * h * h
	h6 *= h6

	d := h - dist
	mag := spikyConst / h6 * d * d
	out := r.Scale(mag / (dist + Epsilon))
	out[3] = 0
	return out
}
