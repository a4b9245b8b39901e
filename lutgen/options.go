// Package lutgen fits a 3D LUT that reproduces the grade between a pair of
// images.
package lutgen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrRegression is returned when no table can be fitted at all, which only
// happens when there are no samples to fit.
var ErrRegression = errors.New("regression failed")

// Method selects how sample colours are spread onto the grid.
type Method int

const (
	// Linear blends the corners of a tetrahedron of nearby samples that
	// contains the grid point.
	Linear Method = iota
	Nearest
	// Cubic fits a weighted quadratic through the closest samples.
	Cubic
)

var methodNames = [...]string{
	Linear:  "linear",
	Nearest: "nearest",
	Cubic:   "cubic",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Linear, nil
	}
	for m, name := range methodNames {
		if s == name {
			return Method(m), nil
		}
	}
	return Linear, fmt.Errorf("unknown interpolation method %q", s)
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type Options struct {
	// Size is the number of grid points per axis.
	Size int
	// SampleCount caps the number of pixel pairs fed to the regression.
	SampleCount int
	// Scale downsizes both images before sampling when in (0,1).
	Scale  float64
	Method Method
	// Smoothing blurs the fitted grid with sigma = 2*Smoothing.
	Smoothing float64
	Seed      uint64
	Workers   int
	Logger    *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Size:        17,
		SampleCount: 5000,
		Scale:       1,
		Method:      Linear,
		Smoothing:   0.1,
		Seed:        1,
	}
}
