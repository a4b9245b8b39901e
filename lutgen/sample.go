package lutgen

import (
	"math"
	"math/rand/v2"

	"lutgrade/raster"
)

// samplesPerRegion is the number of draws stratified sampling aims for in
// each region of the image.
const samplesPerRegion = 10

// pixelIndices picks count pixel indices of a width×height image. When count
// covers the whole image every pixel is returned in order.
func pixelIndices(width, height, count int, rng *rand.Rand) []int {
	total := width * height
	if count >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	return stratified(width, height, count, rng)
}

// stratified splits the image into a square grid of regions, draws random
// pixels inside each one and tops up with draws from the whole image.
func stratified(width, height, count int, rng *rand.Rand) []int {
	grid := max(1, int(math.Sqrt(float64(count)/samplesPerRegion)))
	stepH := max(1, height/grid)
	stepW := max(1, width/grid)
	perRegion := count / (grid * grid)

	idx := make([]int, 0, count)
	for y := 0; y < height; y += stepH {
		for x := 0; x < width; x += stepW {
			regionH := min(stepH, height-y)
			regionW := min(stepW, width-x)
			for range min(perRegion, regionH*regionW) {
				idx = append(idx, (y+rng.IntN(regionH))*width+x+rng.IntN(regionW))
			}
		}
	}
	for len(idx) < count {
		idx = append(idx, rng.IntN(width*height))
	}
	return idx[:count]
}

// collect reads the before and after colours of the chosen pixels.
func collect(before, after *raster.Image, idx []int) []sample {
	width := before.Width()
	pts := make([]sample, len(idx))
	for i, p := range idx {
		x, y := p%width, p/width
		s := &pts[i]
		s.pos[0], s.pos[1], s.pos[2] = before.RGB(before.Rect.Min.X+x, before.Rect.Min.Y+y)
		s.out[0], s.out[1], s.out[2] = after.RGB(after.Rect.Min.X+x, after.Rect.Min.Y+y)
	}
	return pts
}
