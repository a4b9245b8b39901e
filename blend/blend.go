// Package blend composites a graded image over its original.
package blend

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"lutgrade/parallel"
	"lutgrade/raster"
)

var ErrUnknownMode = errors.New("unknown blend mode")

type Mode int

const (
	Normal Mode = iota
	Multiply
	Screen
	Overlay
	SoftLight
)

var modeNames = [...]string{
	Normal:    "normal",
	Multiply:  "multiply",
	Screen:    "screen",
	Overlay:   "overlay",
	SoftLight: "soft_light",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

func ParseMode(s string) (Mode, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch s {
	case "":
		return Normal, nil
	case "softlight":
		s = "soft_light"
	}
	for m, name := range modeNames {
		if s == name {
			return Mode(m), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Pixel blends one channel value of the overlay onto the base.
func (m Mode) Pixel(base, over float64) float64 {
	switch m {
	case Multiply:
		return base * over
	case Screen:
		return 1 - (1-base)*(1-over)
	case Overlay:
		if base < 0.5 {
			return 2 * base * over
		}
		return 1 - 2*(1-base)*(1-over)
	case SoftLight:
		if over < 0.5 {
			return base - (1-2*over)*base*(1-base)
		}
		return base + (2*over-1)*(math.Sqrt(max(base, 0))-base)
	}
	return over
}

// Blend composites overlay onto base with the given mode and mixes the
// result with base by opacity: base*(1-opacity) + result*opacity. The output
// is clamped to [0,1]. Normal mode at full opacity returns a copy of the
// overlay.
func Blend(base, overlay *raster.Image, mode Mode, opacity float64, workers int) (*raster.Image, error) {
	if err := raster.CheckShape(base, overlay); err != nil {
		return nil, err
	}
	opacity = raster.Clamp01(opacity)
	if mode == Normal && opacity == 1 {
		out := overlay.Clone()
		out.Rect = base.Rect
		return out.Clamp(), nil
	}

	out := raster.New(base.Rect)
	parallel.Rows(len(out.Pix), workers, func(start, end int) {
		for i := start; i < end; i++ {
			b := base.Pix[i]
			v := mode.Pixel(b, overlay.Pix[i])
			out.Pix[i] = raster.Clamp01(b*(1-opacity) + v*opacity)
		}
	})
	return out, nil
}
