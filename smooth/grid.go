package smooth

import (
	"sync"

	"lutgrade/parallel"
)

// Gaussian3D blurs each channel of an n×n×n grid of interleaved values in
// place with an isotropic Gaussian. The kernel is truncated at four sigma
// and borders are mirrored (d c b a | a b c d). Channels are filtered
// concurrently; inside a channel lines along the current axis are split
// across workers.
func Gaussian3D(data []float64, n, channels int, sigma float64, workers int) {
	if sigma <= 0 || n < 2 {
		return
	}
	radius := int(4*sigma + 0.5)
	kernel := Kernel1D(2*radius+1, sigma)

	var wg sync.WaitGroup
	for c := range channels {
		wg.Go(func() {
			vol := make([]float64, n*n*n)
			for i := range vol {
				vol[i] = data[i*channels+c]
			}
			// b, g then r: strides 1, n, n*n
			for _, stride := range []int{1, n, n * n} {
				blurAxis(vol, n, stride, kernel, workers)
			}
			for i, v := range vol {
				data[i*channels+c] = v
			}
		})
	}
	wg.Wait()
}

// blurAxis convolves every line of vol running along stride.
func blurAxis(vol []float64, n, stride int, kernel []float64, workers int) {
	radius := len(kernel) / 2
	lines := n * n
	parallel.Rows(lines, workers, func(start, end int) {
		line := make([]float64, n)
		for l := start; l < end; l++ {
			base := lineStart(l, n, stride)
			for i := range line {
				line[i] = vol[base+i*stride]
			}
			for i := range n {
				var acc float64
				for k, w := range kernel {
					acc += line[reflect(i+k-radius, n)] * w
				}
				vol[base+i*stride] = acc
			}
		}
	})
}

// lineStart maps a line number to the offset of its first element for a
// cube with n entries per side.
func lineStart(l, n, stride int) int {
	switch stride {
	case 1:
		return l * n
	case n:
		return (l/n)*n*n + l%n
	default:
		return l
	}
}

func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
