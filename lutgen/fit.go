package lutgen

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/image/draw"

	"lutgrade/lut3d"
	"lutgrade/raster"
	"lutgrade/smooth"
)

// dedupTolerance is the distance under which two source colours count as
// the same sample.
const dedupTolerance = 1e-6

// Fit builds a table mapping the colours of before onto those of after.
// Grid points the chosen method cannot reach, outside the hull of the
// sampled colours, take the colour of the nearest sample. Images with no
// colour variance give a near-constant table rather than an error.
func Fit(before, after *raster.Image, opts Options) (*lut3d.Table, error) {
	if err := raster.CheckShape(before, after); err != nil {
		return nil, err
	}
	if opts.Size < 2 {
		return nil, fmt.Errorf("could not fit LUT: size %d is below 2", opts.Size)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("size", opts.Size, "method", opts.Method.String())

	if opts.Scale > 0 && opts.Scale < 1 {
		before = raster.Scale(before, opts.Scale, draw.BiLinear)
		after = raster.Scale(after, opts.Scale, draw.BiLinear)
		logger.Debug("scaled for processing", "width", before.Width(), "height", before.Height())
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	idx := pixelIndices(before.Width(), before.Height(), opts.SampleCount, rng)
	pts := collect(before, after, idx)
	logger.Info("sampled pixels", "samples", len(pts))
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrRegression)
	}

	pts = dedup(pts, dedupTolerance)
	logger.Info("collapsed duplicates", "unique", len(pts), "samples", len(idx))
	tree := newTree(pts)

	t := lut3d.New(opts.Size)
	method := opts.Method
	if method != Nearest && flat(pts) {
		logger.Warn("sampled colours span no volume, using nearest", "unique", len(pts))
		method = Nearest
	}
	regress(tree, method, opts.Size, t.Data, opts.Workers)
	if filled := backfill(tree, opts.Size, t.Data); filled > 0 {
		logger.Info("filled points outside the sample hull", "points", filled)
	}

	if opts.Smoothing > 0 {
		sigma := opts.Smoothing * 2
		logger.Debug("smoothing grid", "sigma", sigma)
		smooth.Gaussian3D(t.Data, opts.Size, 3, sigma, opts.Workers)
	}
	return t.Clamp(), nil
}

// Preview renders a size×size gradient through t: red grows to the right,
// green downwards and blue along the diagonal.
func Preview(t *lut3d.Table, size int) *raster.Image {
	if size < 1 {
		size = 256
	}
	img := raster.NewSize(size, size)
	span := float64(max(size-1, 1))
	for y := range size {
		for x := range size {
			r, g := float64(x)/span, float64(y)/span
			b := float64(x+y) / (2 * span)
			img.SetRGB(x, y, r, g, b)
		}
	}
	return lut3d.Apply(img, t, lut3d.DefaultApplyOptions())
}
