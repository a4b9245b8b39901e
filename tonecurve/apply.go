package tonecurve

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"lutgrade/parallel"
	"lutgrade/raster"
)

var ErrUnknownLuminosity = errors.New("unknown luminosity mode")

// Luminosity selects how the original lightness is restored after the
// curves are applied.
type Luminosity int

const (
	LuminosityOff Luminosity = iota
	// LuminosityHSV keeps the HSV value of the original pixel.
	LuminosityHSV
	// LuminosityOKLab keeps the OKLab lightness of the original pixel.
	LuminosityOKLab
)

func ParseLuminosity(s string) (Luminosity, error) {
	switch strings.ToLower(s) {
	case "", "off", "none", "false":
		return LuminosityOff, nil
	case "hsv", "true":
		return LuminosityHSV, nil
	case "oklab":
		return LuminosityOKLab, nil
	}
	return LuminosityOff, fmt.Errorf("%w: %q", ErrUnknownLuminosity, s)
}

// ApplyMultiChannel runs each channel through its own table and then all
// three through the global one. Identity tables are skipped. The input is
// not modified.
func ApplyMultiChannel(img *raster.Image, t Tables, lum Luminosity, workers int) *raster.Image {
	out := img.Clone()

	var channel [3]*LUT
	for c, l := range []*LUT{&t.Red, &t.Green, &t.Blue} {
		if !l.IsIdentity() {
			channel[c] = l
		}
	}
	var global *LUT
	if !t.RGB.IsIdentity() {
		global = &t.RGB
	}
	if global == nil && channel == [3]*LUT{} {
		return out
	}

	parallel.Rows(img.Height(), workers, func(start, end int) {
		for i := start * img.Stride; i < end*img.Stride; i += 3 {
			px := out.Pix[i : i+3 : i+3]
			for c := range px {
				if channel[c] != nil {
					px[c] = channel[c].Lookup(px[c])
				}
				if global != nil {
					px[c] = global.Lookup(px[c])
				}
			}
			if lum != LuminosityOff {
				src := img.Pix[i : i+3 : i+3]
				px[0], px[1], px[2] = keepLightness(lum, src, px)
			}
		}
	})
	return out
}

func keepLightness(lum Luminosity, orig, graded []float64) (r, g, b float64) {
	o := colorful.Color{R: orig[0], G: orig[1], B: orig[2]}
	res := colorful.Color{R: graded[0], G: graded[1], B: graded[2]}

	var c colorful.Color
	switch lum {
	case LuminosityOKLab:
		l, _, _ := o.OkLab()
		_, a, bb := res.OkLab()
		c = colorful.OkLab(l, a, bb).Clamped()
	default:
		_, _, v := o.Hsv()
		h, s, _ := res.Hsv()
		c = colorful.Hsv(h, s, v)
	}
	return c.R, c.G, c.B
}
