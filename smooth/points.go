// Package smooth removes clipping and oscillation from tone curves, either on
// their control points or on the sampled table, and blurs 3D grids.
package smooth

import (
	"math"

	"lutgrade/spline"
)

const (
	centerWeight   = 0.5
	neighborWeight = (1 - centerWeight) / 2
	blendScale     = 0.3
	maxStep        = 0.1
	inversionKeep  = 0.7
)

type PointOptions struct {
	Iterations int
	// Strength in (0,2]; each pass moves a point strength*0.3 of the way
	// towards its neighbourhood average.
	Strength     float64
	AntiClipping bool
}

// Points relaxes the y of every interior control point towards a 3-tap
// average of its neighbours. End points and all x values are left alone.
//
// With AntiClipping each pass moves a point by at most 0.1, keeps it inside
// [0,1], and only applies 30% of the move where the slope changes sign, so
// that deliberate inflections survive. The neighbours of the end points are
// exempt from that damping.
func Points(pts []spline.Point, opts PointOptions) []spline.Point {
	out := append([]spline.Point(nil), pts...)
	if len(pts) < 3 || opts.Iterations <= 0 || opts.Strength <= 0 {
		return out
	}

	blend := opts.Strength * blendScale
	next := make([]spline.Point, len(out))
	for range opts.Iterations {
		copy(next, out)
		for i := 1; i < len(out)-1; i++ {
			prev, curr, succ := out[i-1].Y, out[i].Y, out[i+1].Y
			avg := prev*neighborWeight + curr*centerWeight + succ*neighborWeight
			y := curr*(1-blend) + avg*blend

			if opts.AntiClipping {
				if d := y - curr; math.Abs(d) > maxStep {
					y = curr + math.Copysign(maxStep, d)
				}
				y = min(max(y, 0), 1)
				if i > 1 && i < len(out)-2 && (curr-prev)*(succ-curr) < 0 {
					y = curr*inversionKeep + y*(1-inversionKeep)
				}
			}
			next[i].Y = y
		}
		out, next = next, out
	}
	return out
}
