package smooth

import "math"

// Kernel1D returns a normalised Gaussian kernel of the given odd size.
func Kernel1D(size int, sigma float64) []float64 {
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		x := float64(i - half)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Table blurs a sampled curve with a Gaussian of sigma = strength and a
// kernel of max(3, round(5*strength)) taps rounded up to odd, padding with
// the edge values. The blurred table is mixed with the input by
// min(strength, 1). The first and last entries are never changed.
func Table(vals []float64, strength float64) []float64 {
	out := append([]float64(nil), vals...)
	if strength <= 0 || len(vals) < 3 {
		return out
	}

	size := max(3, int(math.Round(strength*5)))
	if size%2 == 0 {
		size++
	}
	kernel := Kernel1D(size, strength)
	half := size / 2
	mix := min(strength, 1)

	last := len(vals) - 1
	for i := 1; i < last; i++ {
		var acc float64
		for k, w := range kernel {
			j := min(max(i+k-half, 0), last)
			acc += vals[j] * w
		}
		out[i] = vals[i]*(1-mix) + acc*mix
	}
	return out
}
