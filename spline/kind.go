package spline

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("unknown interpolation")

// Kind selects the basis used between control points.
type Kind int

const (
	Linear Kind = iota
	CatmullRom
	CubicSpline
	Bezier
	Hermite
	Monotonic
)

var kindNames = [...]string{
	Linear:      "linear",
	CatmullRom:  "catmull_rom",
	CubicSpline: "cubic_spline",
	Bezier:      "bezier",
	Hermite:     "hermite",
	Monotonic:   "monotonic",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the canonical names plus the hyphenated and short
// spellings found in saved settings ("catmull-rom", "pchip"). The legacy
// "cubic" was always rendered as Catmull-Rom and still is.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "catmull_rom", "catmull-rom", "catmullrom", "cubic":
		return CatmullRom, nil
	case "cubic_spline", "cubic-spline":
		return CubicSpline, nil
	case "bezier":
		return Bezier, nil
	case "hermite":
		return Hermite, nil
	case "monotonic", "pchip":
		return Monotonic, nil
	}
	return Linear, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
