package domain

import "math"

// NormEpsilon is the divisor clamp for L2 normalization. Norms below it are
// treated as zero; dividing by the clamped value keeps degenerate vectors
// finite instead of producing NaN/Inf.
const NormEpsilon = 1e-8

// Dot returns the dot product of two equal-length vectors, accumulated in float64.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the Euclidean (L2) norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a copy of v divided by its L2 norm. The divisor is clamped
// at NormEpsilon, so an all-zero vector normalizes to all-zero rather than NaN.
func Normalize(v []float32) []float32 {
	norm := Norm(v)
	if norm < NormEpsilon {
		norm = NormEpsilon
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Mean returns the unweighted arithmetic mean of the given vectors.
// Repeated vectors add repeated weight. Returns nil on empty input.
// All vectors must share the length of the first one.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	dim := len(vecs[0])
	sums := make([]float64, dim)
	for _, v := range vecs {
		for i := range v {
			sums[i] += float64(v[i])
		}
	}
	out := make([]float32, dim)
	n := float64(len(vecs))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}
