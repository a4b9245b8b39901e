// Package lut3d holds cubic colour look-up tables and samples them.
package lut3d

import (
	"fmt"
	"math"
	"slices"
)

// Table is an N×N×N grid of RGB triples in [0,1]. Entries are stored with r
// as the slowest axis and b as the fastest: the triple for grid point
// (r, g, b) starts at Data[((r*N+g)*N+b)*3].
type Table struct {
	Size int
	Data []float64
}

func New(size int) *Table {
	return &Table{
		Size: size,
		Data: make([]float64, size*size*size*3),
	}
}

// Identity maps every colour to itself.
func Identity(size int) *Table {
	t := New(size)
	scale := 1 / float64(size-1)
	for r := range size {
		for g := range size {
			for b := range size {
				t.Set(r, g, b, [3]float64{float64(r) * scale, float64(g) * scale, float64(b) * scale})
			}
		}
	}
	return t
}

func (t *Table) Offset(r, g, b int) int {
	return ((r*t.Size+g)*t.Size + b) * 3
}

func (t *Table) At(r, g, b int) [3]float64 {
	i := t.Offset(r, g, b)
	return [3]float64{t.Data[i], t.Data[i+1], t.Data[i+2]}
}

func (t *Table) Set(r, g, b int, c [3]float64) {
	i := t.Offset(r, g, b)
	copy(t.Data[i:i+3], c[:])
}

// Points is the number of grid points.
func (t *Table) Points() int {
	return t.Size * t.Size * t.Size
}

func (t *Table) Clone() *Table {
	return &Table{Size: t.Size, Data: slices.Clone(t.Data)}
}

// Clamp limits every entry to [0,1] in place. NaN becomes 0.
func (t *Table) Clamp() *Table {
	for i, v := range t.Data {
		switch {
		case v > 1:
			t.Data[i] = 1
		case v >= 0:
		default:
			t.Data[i] = 0
		}
	}
	return t
}

// SwapRB exchanges the first and last component of every triple in place,
// for tables whose triples are stored as BGR.
func (t *Table) SwapRB() *Table {
	for i := 0; i+2 < len(t.Data); i += 3 {
		t.Data[i], t.Data[i+2] = t.Data[i+2], t.Data[i]
	}
	return t
}

// Report lists everything wrong with a table. An empty Issues means Valid.
type Report struct {
	Valid       bool
	Issues      []string
	Size        int
	TotalPoints int
}

// Validate checks the table shape and that every value is finite and within
// [0,1]. It never fails; callers decide what the issues mean.
func Validate(t *Table) Report {
	rep := Report{Size: t.Size, TotalPoints: t.Points()}
	if t.Size < 2 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("size %d is below the minimum of 2", t.Size))
	}
	if want := t.Points() * 3; len(t.Data) != want {
		rep.Issues = append(rep.Issues, fmt.Sprintf("table is not cubic with 3 channels: %d values, want %d", len(t.Data), want))
	}

	var nans, infs, below, above int
	for _, v := range t.Data {
		switch {
		case math.IsNaN(v):
			nans++
		case math.IsInf(v, 0):
			infs++
		case v < 0:
			below++
		case v > 1:
			above++
		}
	}
	if nans > 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("%d NaN values", nans))
	}
	if infs > 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("%d infinite values", infs))
	}
	if below > 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("%d values below 0", below))
	}
	if above > 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("%d values above 1", above))
	}

	rep.Valid = len(rep.Issues) == 0
	return rep
}
