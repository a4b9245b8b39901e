// Package raster holds the float RGB image buffer shared by the grading
// packages and converts it to and from the standard image types.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

var ErrShapeMismatch = errors.New("image shapes differ")

// Image is a dense H×W×3 buffer of float channels, nominally in [0,1].
type Image struct {
	// Pix holds interleaved r, g, b values. The channels of the pixel at
	// (x, y) start at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix    []float64
	Stride int
	Rect   image.Rectangle
}

func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]float64, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

func NewSize(width, height int) *Image {
	return New(image.Rect(0, 0, width, height))
}

func (m *Image) ColorModel() color.Model { return color.RGBA64Model }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) Width() int { return m.Rect.Dx() }

func (m *Image) Height() int { return m.Rect.Dy() }

// Len is the number of pixels.
func (m *Image) Len() int { return m.Rect.Dx() * m.Rect.Dy() }

func (m *Image) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*3
}

func (m *Image) At(x, y int) color.Color {
	return m.RGBA64At(x, y)
}

func (m *Image) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{x, y}.In(m.Rect)) {
		return color.RGBA64{}
	}
	i := m.PixOffset(x, y)
	return color.RGBA64{
		R: to16(m.Pix[i]),
		G: to16(m.Pix[i+1]),
		B: to16(m.Pix[i+2]),
		A: 0xffff,
	}
}

func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	r, g, b := unpremultiply(c.RGBA())
	m.SetRGB(x, y, r, g, b)
}

func (m *Image) RGB(x, y int) (r, g, b float64) {
	i := m.PixOffset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m *Image) SetRGB(x, y int, r, g, b float64) {
	i := m.PixOffset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

func (m *Image) Clone() *Image {
	return &Image{
		Pix:    append([]float64(nil), m.Pix...),
		Stride: m.Stride,
		Rect:   m.Rect,
	}
}

// Clamp limits every channel to [0,1] in place. NaN becomes 0.
func (m *Image) Clamp() *Image {
	for i, v := range m.Pix {
		m.Pix[i] = Clamp01(v)
	}
	return m
}

// SwapRB exchanges the red and blue channels in place, turning RGB data into
// BGR and back.
func (m *Image) SwapRB() *Image {
	for i := 0; i+2 < len(m.Pix); i += 3 {
		m.Pix[i], m.Pix[i+2] = m.Pix[i+2], m.Pix[i]
	}
	return m
}

// Replicate returns n independent copies of m, for hosts that expect one
// result per frame of a batch.
func Replicate(m *Image, n int) []*Image {
	out := make([]*Image, n)
	for i := range out {
		out[i] = m.Clone()
	}
	return out
}

func CheckShape(a, b *Image) error {
	if a.Rect.Size() != b.Rect.Size() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch,
			a.Rect.Dx(), a.Rect.Dy(), b.Rect.Dx(), b.Rect.Dy())
	}
	return nil
}

func Clamp01(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v >= 0:
		return v
	default:
		// negatives and NaN
		return 0
	}
}

func to16(v float64) uint16 {
	return uint16(math.Round(Clamp01(v) * 0xffff))
}

func unpremultiply(r, g, b, a uint32) (float64, float64, float64) {
	if a == 0 {
		return 0, 0, 0
	}
	fa := float64(a)
	return float64(r) / fa, float64(g) / fa, float64(b) / fa
}
