package raster

import (
	"fmt"
	"image"
	"math"
)

// FromBytes wraps an 8-bit H×W×3 buffer, normalising to [0,1].
func FromBytes(pix []uint8, width, height int) (*Image, error) {
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrShapeMismatch, len(pix), width, height)
	}
	m := NewSize(width, height)
	for i, v := range pix {
		m.Pix[i] = float64(v) / 255
	}
	return m, nil
}

// Bytes denormalises to an 8-bit H×W×3 buffer, clamping and rounding.
func (m *Image) Bytes() []uint8 {
	out := make([]uint8, len(m.Pix))
	for i, v := range m.Pix {
		out[i] = To8(v)
	}
	return out
}

func To8(v float64) uint8 {
	return uint8(math.Round(Clamp01(v) * 255))
}

// FromImage copies any image into a float buffer anchored at the origin.
// Alpha is divided out.
func FromImage(src image.Image) *Image {
	if m, ok := src.(*Image); ok {
		out := m.Clone()
		out.Rect = image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy())
		return out
	}

	b := src.Bounds()
	m := NewSize(b.Dx(), b.Dy())
	rgba64, fast := src.(image.RGBA64Image)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var r, g, bl float64
			if fast {
				c := rgba64.RGBA64At(x, y)
				r, g, bl = unpremultiply(uint32(c.R), uint32(c.G), uint32(c.B), uint32(c.A))
			} else {
				r, g, bl = unpremultiply(src.At(x, y).RGBA())
			}
			m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, bl
			i += 3
		}
	}
	return m
}

// ToNRGBA renders the buffer as an opaque 8-bit image.
func (m *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy()))
	for y := 0; y < m.Rect.Dy(); y++ {
		src := m.Pix[y*m.Stride : y*m.Stride+m.Stride]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < m.Rect.Dx(); x++ {
			dst[x*4] = To8(src[x*3])
			dst[x*4+1] = To8(src[x*3+1])
			dst[x*4+2] = To8(src[x*3+2])
			dst[x*4+3] = 0xff
		}
	}
	return out
}
