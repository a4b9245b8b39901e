// Package tonecurve builds 256-entry tone tables from control points and
// applies them to images.
package tonecurve

import (
	"math"

	"lutgrade/smooth"
	"lutgrade/spline"
)

// Size is the number of entries in a tone table.
const Size = 256

// LUT maps an 8-bit input level to an output level.
type LUT [Size]uint8

func IdentityLUT() LUT {
	var l LUT
	for i := range l {
		l[i] = uint8(i)
	}
	return l
}

func (l *LUT) IsIdentity() bool {
	for i, v := range l {
		if int(v) != i {
			return false
		}
	}
	return true
}

// Lookup maps a normalised value through the table at the nearest level.
func (l *LUT) Lookup(v float64) float64 {
	i := int(math.Round(min(max(v, 0), 1) * (Size - 1)))
	return float64(l[i]) / (Size - 1)
}

type SmoothingOptions struct {
	Enabled      bool
	Strength     float64
	Iterations   int
	AntiClipping bool
}

type Options struct {
	Kind spline.Kind
	// Strength is applied as y^(1/Strength). Values above 1 lift the curve,
	// below 1 deepen it. Non-positive values are treated as 1.
	Strength  float64
	Gamma     float64
	Smoothing SmoothingOptions
}

func DefaultOptions() Options {
	return Options{
		Kind:     spline.CatmullRom,
		Strength: 1,
		Gamma:    1,
		Smoothing: SmoothingOptions{
			Strength:     0.5,
			Iterations:   3,
			AntiClipping: true,
		},
	}
}

// Build samples the curve through pts at every level and shapes it.
//
// When smoothing is enabled the control points are relaxed first (only with
// more than two of them) and the finished table is blurred with half the
// smoothing strength.
func Build(pts []spline.Point, opts Options) LUT {
	pts = spline.Normalize(pts)
	sm := opts.Smoothing
	if sm.Enabled && len(pts) > 2 {
		pts = smooth.Points(pts, smooth.PointOptions{
			Iterations:   sm.Iterations,
			Strength:     sm.Strength,
			AntiClipping: sm.AntiClipping,
		})
	}

	strength := opts.Strength
	if strength <= 0 {
		strength = 1
	}
	gamma := opts.Gamma
	if gamma <= 0 {
		gamma = 1
	}

	curve := spline.New(pts, opts.Kind)
	vals := make([]float64, Size)
	for i := range vals {
		y := curve.Eval(float64(i) / (Size - 1))
		if strength != 1 {
			y = math.Pow(y, 1/strength)
		}
		if gamma != 1 {
			y = math.Pow(y, gamma)
		}
		vals[i] = min(max(y*(Size-1), 0), Size-1)
	}

	if sm.Enabled {
		vals = smooth.Table(vals, sm.Strength*0.5)
	}

	var l LUT
	for i, v := range vals {
		l[i] = uint8(min(max(math.Round(v), 0), Size-1))
	}
	return l
}

// Curves holds the control points of the global curve and the three
// per-channel curves. Nil entries mean identity.
type Curves struct {
	RGB, Red, Green, Blue []spline.Point
}

type Tables struct {
	RGB, Red, Green, Blue LUT
}

func IdentityTables() Tables {
	id := IdentityLUT()
	return Tables{id, id, id, id}
}

// BuildCurves builds all four tables with the same options.
func BuildCurves(c Curves, opts Options) Tables {
	return Tables{
		RGB:   Build(c.RGB, opts),
		Red:   Build(c.Red, opts),
		Green: Build(c.Green, opts),
		Blue:  Build(c.Blue, opts),
	}
}
