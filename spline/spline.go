// Package spline turns sparse control points into dense tone curves.
//
// All curves are defined on [0,1] and clamp flat to the end points outside
// the range covered by the control points. Higher order bases need at least
// four points; with fewer the curve is piecewise linear.
package spline

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/combin"
)

// MinHigherOrder is the fewest points for which a non-linear basis is used.
const MinHigherOrder = 4

// maxBezierDegree bounds the Bernstein blend; beyond it the coefficients
// lose precision and Catmull-Rom is used instead.
const maxBezierDegree = 30

type Point struct {
	X, Y float64
}

// HermitePoint is a control point with an explicit slope dy/dx.
type HermitePoint struct {
	X, Y    float64
	Tangent float64
}

// Identity is the control set of the unmodified curve.
func Identity() []Point {
	return []Point{{0, 0}, {1, 1}}
}

// Normalize clamps points to [0,1]², sorts them by x and drops duplicate x
// values, keeping the y that came last in the input. Fewer than two distinct
// points yield Identity.
func Normalize(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{clamp01(p.X), clamp01(p.Y)}
	}
	slices.SortStableFunc(out, func(a, b Point) int { return cmp.Compare(a.X, b.X) })

	uniq := out[:0]
	for _, p := range out {
		if n := len(uniq); n > 0 && uniq[n-1].X == p.X {
			uniq[n-1] = p
			continue
		}
		uniq = append(uniq, p)
	}
	if len(uniq) < 2 {
		return Identity()
	}
	return uniq
}

// Curve is an evaluable curve through a normalised point set.
type Curve struct {
	xs, ys []float64
	kind   Kind
	eval   func(x float64) float64
}

// New builds a curve of the requested kind through pts. The points are
// normalised first. Hermite curves built here get finite difference
// tangents; use NewHermite for explicit ones.
func New(pts []Point, kind Kind) *Curve {
	pts = Normalize(pts)
	c := &Curve{
		xs: make([]float64, len(pts)),
		ys: make([]float64, len(pts)),
	}
	for i, p := range pts {
		c.xs[i], c.ys[i] = p.X, p.Y
	}

	if len(pts) < MinHigherOrder {
		kind = Linear
	}
	if kind == Bezier && len(pts)-1 > maxBezierDegree {
		kind = CatmullRom
	}

	switch kind {
	case CatmullRom:
		c.eval = c.catmullRom
	case CubicSpline:
		var ns interp.NaturalCubic
		if err := ns.Fit(c.xs, c.ys); err != nil {
			kind = Linear
			break
		}
		c.eval = ns.Predict
	case Bezier:
		c.eval = c.bezier
	case Hermite:
		c.eval = hermite(c.xs, c.ys, finiteDifferences(c.xs, c.ys))
	case Monotonic:
		var fb interp.FritschButland
		if err := fb.Fit(c.xs, c.ys); err != nil {
			kind = Linear
			break
		}
		c.eval = fb.Predict
	}
	if c.eval == nil {
		kind = Linear
		c.eval = c.linear
	}
	c.kind = kind
	return c
}

// NewHermite builds a cubic Hermite curve with per-point tangents.
func NewHermite(pts []HermitePoint) *Curve {
	plain := make([]Point, len(pts))
	for i, p := range pts {
		plain[i] = Point{p.X, p.Y}
	}
	c := New(plain, Linear)
	if len(c.xs) < MinHigherOrder {
		return c
	}

	// Normalize kept the last point for every x.
	tangents := make(map[float64]float64, len(pts))
	for _, p := range pts {
		tangents[clamp01(p.X)] = p.Tangent
	}
	dydx := make([]float64, len(c.xs))
	for i, x := range c.xs {
		dydx[i] = tangents[x]
	}

	c.kind = Hermite
	c.eval = hermite(c.xs, c.ys, dydx)
	return c
}

// Kind is the basis actually in use, which is Linear when too few points
// were given.
func (c *Curve) Kind() Kind { return c.kind }

func (c *Curve) Points() []Point {
	pts := make([]Point, len(c.xs))
	for i := range pts {
		pts[i] = Point{c.xs[i], c.ys[i]}
	}
	return pts
}

// Eval returns the curve value at x, clamped to [0,1].
func (c *Curve) Eval(x float64) float64 {
	last := len(c.xs) - 1
	switch {
	case math.IsNaN(x):
		return c.ys[0]
	case x <= c.xs[0]:
		return c.ys[0]
	case x >= c.xs[last]:
		return c.ys[last]
	}
	return clamp01(c.eval(x))
}

// Sample evaluates the curve at n evenly spaced positions over [0,1].
func (c *Curve) Sample(n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = c.Eval(0)
		return out
	}
	for i := range out {
		out[i] = c.Eval(float64(i) / float64(n-1))
	}
	return out
}

// Fit samples the curve of the given kind through pts at n evenly spaced
// positions over [0,1].
func Fit(pts []Point, kind Kind, n int) []float64 {
	return New(pts, kind).Sample(n)
}

// segment returns i such that xs[i] <= x < xs[i+1]. A query that lands on a
// knot uses the segment starting at that knot.
func (c *Curve) segment(x float64) int {
	i := sort.Search(len(c.xs), func(i int) bool { return c.xs[i] > x }) - 1
	return max(0, min(i, len(c.xs)-2))
}

func (c *Curve) linear(x float64) float64 {
	i := c.segment(x)
	t := (x - c.xs[i]) / (c.xs[i+1] - c.xs[i])
	return c.ys[i] + t*(c.ys[i+1]-c.ys[i])
}

func (c *Curve) catmullRom(x float64) float64 {
	i := c.segment(x)
	last := len(c.ys) - 1
	p0 := c.ys[max(i-1, 0)]
	p1 := c.ys[i]
	p2 := c.ys[i+1]
	p3 := c.ys[min(i+2, last)]

	t := (x - c.xs[i]) / (c.xs[i+1] - c.xs[i])
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*p1 +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// bezier treats the points as the control polygon of a single Bézier curve.
// Since the x coordinates increase, x(t) is monotonic and t is found by
// bisection.
func (c *Curve) bezier(x float64) float64 {
	lo, hi := 0.0, 1.0
	for range 60 {
		mid := (lo + hi) / 2
		if bernstein(c.xs, mid) < x {
			lo = mid
		} else {
			hi = mid
		}
	}
	return bernstein(c.ys, (lo+hi)/2)
}

func bernstein(coeffs []float64, t float64) float64 {
	n := len(coeffs) - 1
	var sum float64
	for j, p := range coeffs {
		b := float64(combin.Binomial(n, j)) * math.Pow(t, float64(j)) * math.Pow(1-t, float64(n-j))
		sum += b * p
	}
	return sum
}

func hermite(xs, ys, dydx []float64) func(float64) float64 {
	var pc interp.PiecewiseCubic
	pc.FitWithDerivatives(xs, ys, dydx)
	return pc.Predict
}

// finiteDifferences estimates slopes from the neighbouring points, one sided
// at the ends.
func finiteDifferences(xs, ys []float64) []float64 {
	n := len(xs)
	d := make([]float64, n)
	d[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
	d[n-1] = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	for i := 1; i < n-1; i++ {
		d[i] = (ys[i+1] - ys[i-1]) / (xs[i+1] - xs[i-1])
	}
	return d
}

func clamp01(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v >= 0:
		return v
	default:
		return 0
	}
}
