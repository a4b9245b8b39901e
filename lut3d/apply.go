package lut3d

import (
	"errors"
	"fmt"
	"strings"

	"lutgrade/parallel"
	"lutgrade/raster"
)

var ErrUnknownOrder = errors.New("unknown channel order")

// Order is the channel order of pixel data or of stored triples.
type Order int

const (
	RGB Order = iota
	BGR
)

func (o Order) String() string {
	if o == BGR {
		return "BGR"
	}
	return "RGB"
}

func ParseOrder(s string) (Order, error) {
	switch strings.ToUpper(s) {
	case "", "RGB":
		return RGB, nil
	case "BGR":
		return BGR, nil
	}
	return RGB, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
}

type ApplyOptions struct {
	Interpolation Interpolation
	// Intensity mixes the mapped colour with the input: 0 keeps the input, 1
	// is the plain table output, up to 2 exaggerates it.
	Intensity float64
	// DataOrder is the channel order of the image pixels. The order of the
	// table triples is fixed when the table is loaded.
	DataOrder Order
	Workers   int
}

func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{Interpolation: Trilinear, Intensity: 1}
}

// Apply maps every pixel of img through t and returns a new clamped image.
func Apply(img *raster.Image, t *Table, opts ApplyOptions) *raster.Image {
	out := raster.New(img.Rect)
	intensity := min(max(opts.Intensity, 0), 2)
	r, b := 0, 2
	if opts.DataOrder == BGR {
		r, b = 2, 0
	}

	parallel.Rows(img.Height(), opts.Workers, func(start, end int) {
		for i := start * img.Stride; i < end*img.Stride; i += 3 {
			src := img.Pix[i : i+3 : i+3]
			dst := out.Pix[i : i+3 : i+3]
			c := t.Sample(opts.Interpolation, src[r], src[1], src[b])
			if intensity != 1 {
				c[0] = src[r]*(1-intensity) + c[0]*intensity
				c[1] = src[1]*(1-intensity) + c[1]*intensity
				c[2] = src[b]*(1-intensity) + c[2]*intensity
			}
			dst[r] = raster.Clamp01(c[0])
			dst[1] = raster.Clamp01(c[1])
			dst[b] = raster.Clamp01(c[2])
		}
	})
	return out
}
