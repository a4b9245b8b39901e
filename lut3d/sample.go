package lut3d

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownInterpolation = errors.New("unknown interpolation")

type Interpolation int

const (
	Trilinear Interpolation = iota
	// Tetrahedral resolves only the dr≥db≥dg and dr≥dg≥db tetrahedra; the
	// rest of the cell is sampled trilinearly. Existing grades rely on the
	// exact output, so do not add the other four.
	Tetrahedral
)

func (i Interpolation) String() string {
	if i == Tetrahedral {
		return "tetrahedral"
	}
	return "trilinear"
}

func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(s) {
	case "", "trilinear", "linear":
		return Trilinear, nil
	case "tetrahedral":
		return Tetrahedral, nil
	}
	return Trilinear, fmt.Errorf("%w: %q", ErrUnknownInterpolation, s)
}

// knotEpsilon snaps scaled coordinates that are a rounding error away from a
// grid index onto it, so sampling at i/(N-1) returns the entry exactly.
const knotEpsilon = 1e-9

type cell struct {
	r0, g0, b0 int
	r1, g1, b1 int
	dr, dg, db float64
}

func (t *Table) locate(r, g, b float64) cell {
	var c cell
	c.r0, c.r1, c.dr = t.axis(r)
	c.g0, c.g1, c.dg = t.axis(g)
	c.b0, c.b1, c.db = t.axis(b)
	return c
}

func (t *Table) axis(v float64) (lo, hi int, frac float64) {
	last := t.Size - 1
	if !(v > 0) {
		v = 0
	} else if v > 1 {
		v = 1
	}
	x := v * float64(last)
	if k := math.Round(x); math.Abs(x-k) < knotEpsilon {
		x = k
	}
	lo = int(x)
	hi = min(lo+1, last)
	return lo, hi, x - float64(lo)
}

// Sample maps one colour through the table. Inputs are clamped to [0,1].
func (t *Table) Sample(interp Interpolation, r, g, b float64) [3]float64 {
	if interp == Tetrahedral {
		return t.Tetrahedral(r, g, b)
	}
	return t.Trilinear(r, g, b)
}

// Trilinear blends the eight corners of the enclosing cell, along b first,
// then g, then r.
func (t *Table) Trilinear(r, g, b float64) [3]float64 {
	return t.trilinear(t.locate(r, g, b))
}

func (t *Table) trilinear(c cell) [3]float64 {
	d := t.Data
	i000, i001 := t.Offset(c.r0, c.g0, c.b0), t.Offset(c.r0, c.g0, c.b1)
	i010, i011 := t.Offset(c.r0, c.g1, c.b0), t.Offset(c.r0, c.g1, c.b1)
	i100, i101 := t.Offset(c.r1, c.g0, c.b0), t.Offset(c.r1, c.g0, c.b1)
	i110, i111 := t.Offset(c.r1, c.g1, c.b0), t.Offset(c.r1, c.g1, c.b1)

	var out [3]float64
	for k := range out {
		c00 := lerp(d[i000+k], d[i001+k], c.db)
		c01 := lerp(d[i010+k], d[i011+k], c.db)
		c10 := lerp(d[i100+k], d[i101+k], c.db)
		c11 := lerp(d[i110+k], d[i111+k], c.db)
		c0 := lerp(c00, c01, c.dg)
		c1 := lerp(c10, c11, c.dg)
		out[k] = lerp(c0, c1, c.dr)
	}
	return out
}

func (t *Table) Tetrahedral(r, g, b float64) [3]float64 {
	c := t.locate(r, g, b)
	d := t.Data
	var out [3]float64

	switch {
	case c.dr >= c.db && c.db >= c.dg:
		i000 := t.Offset(c.r0, c.g0, c.b0)
		i100 := t.Offset(c.r1, c.g0, c.b0)
		i101 := t.Offset(c.r1, c.g0, c.b1)
		i111 := t.Offset(c.r1, c.g1, c.b1)
		for k := range out {
			out[k] = d[i000+k]*(1-c.dr) +
				d[i100+k]*(c.dr-c.db) +
				d[i101+k]*(c.db-c.dg) +
				d[i111+k]*c.dg
		}
	case c.dr >= c.dg && c.dg >= c.db:
		i000 := t.Offset(c.r0, c.g0, c.b0)
		i100 := t.Offset(c.r1, c.g0, c.b0)
		i110 := t.Offset(c.r1, c.g1, c.b0)
		i111 := t.Offset(c.r1, c.g1, c.b1)
		for k := range out {
			out[k] = d[i000+k]*(1-c.dr) +
				d[i100+k]*(c.dr-c.dg) +
				d[i110+k]*(c.dg-c.db) +
				d[i111+k]*c.db
		}
	default:
		out = t.trilinear(c)
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
