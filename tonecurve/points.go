package tonecurve

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"lutgrade/spline"
)

var ErrParse = errors.New("malformed curve points")

// ParsePoints reads a "x,y;x,y;..." list in 0..255 device units. Tokens that
// do not parse are skipped; if fewer than two points survive the identity
// curve is returned.
func ParsePoints(s string) []spline.Point {
	pts, _ := parse(s)
	if len(pts) < 2 {
		return spline.Identity()
	}
	return spline.Normalize(pts)
}

// ParsePointsStrict is ParsePoints that reports skipped tokens and short
// lists as ErrParse instead of substituting the identity curve.
func ParsePointsStrict(s string) ([]spline.Point, error) {
	pts, bad := parse(s)
	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: invalid pairs %q", ErrParse, bad)
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrParse, len(pts))
	}
	return spline.Normalize(pts), nil
}

func parse(s string) (pts []spline.Point, bad []string) {
	for tok := range strings.SplitSeq(s, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		xs, ys, ok := strings.Cut(tok, ",")
		if !ok {
			bad = append(bad, tok)
			continue
		}
		x, errX := parseLevel(xs)
		y, errY := parseLevel(ys)
		if errX != nil || errY != nil {
			bad = append(bad, tok)
			continue
		}
		pts = append(pts, spline.Point{X: x / 255, Y: y / 255})
	}
	return pts, bad
}

func parseLevel(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, strconv.ErrSyntax
	}
	return min(max(v, 0), 255), nil
}

// FormatPoints writes points back in the 0..255 syntax read by ParsePoints.
func FormatPoints(pts []spline.Point) string {
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(formatLevel(p.X))
		sb.WriteByte(',')
		sb.WriteString(formatLevel(p.Y))
	}
	return sb.String()
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(math.Round(v*255*1000)/1000, 'f', -1, 64)
}

// Shapes are the stock curves offered next to user presets.
var Shapes = map[string][]spline.Point{
	"Linear":          {{0, 0}, {1, 1}},
	"Contrast+":       {{0, 0}, {0.25, 0.18}, {0.5, 0.5}, {0.75, 0.82}, {1, 1}},
	"Contrast-":       {{0, 0}, {0.25, 0.32}, {0.5, 0.5}, {0.75, 0.68}, {1, 1}},
	"Negative":        {{0, 1}, {1, 0}},
	"S-Curve":         {{0, 0}, {0.25, 0.12}, {0.5, 0.5}, {0.75, 0.88}, {1, 1}},
	"Inverse S":       {{0, 0}, {0.25, 0.38}, {0.5, 0.5}, {0.75, 0.62}, {1, 1}},
	"Bright Shadows":  {{0, 0.12}, {0.25, 0.35}, {0.5, 0.5}, {0.75, 0.75}, {1, 1}},
	"Dark Highlights": {{0, 0}, {0.25, 0.25}, {0.5, 0.5}, {0.75, 0.65}, {1, 0.88}},
	"Film Look":       {{0, 0.06}, {0.25, 0.31}, {0.5, 0.56}, {0.75, 0.81}, {1, 0.94}},
	"Vintage":         {{0, 0.03}, {0.25, 0.28}, {0.5, 0.53}, {0.75, 0.78}, {1, 0.97}},
	"High Key":        {{0, 0.12}, {0.25, 0.37}, {0.5, 0.62}, {0.75, 0.81}, {1, 1}},
	"Low Key":         {{0, 0}, {0.25, 0.19}, {0.5, 0.38}, {0.75, 0.63}, {1, 0.88}},
	"Dramatic":        {{0, 0}, {0.2, 0.05}, {0.5, 0.5}, {0.8, 0.95}, {1, 1}},
	"Soft":            {{0, 0.05}, {0.3, 0.35}, {0.5, 0.5}, {0.7, 0.65}, {1, 0.95}},
	"Cinematic":       {{0, 0.02}, {0.2, 0.18}, {0.5, 0.5}, {0.8, 0.82}, {1, 0.98}},
	"Cross Process":   {{0, 0.1}, {0.25, 0.2}, {0.5, 0.6}, {0.75, 0.9}, {1, 0.9}},
	"Bleach Bypass":   {{0, 0}, {0.3, 0.4}, {0.5, 0.5}, {0.7, 0.6}, {1, 1}},
	"Teal Orange":     {{0, 0.05}, {0.25, 0.25}, {0.5, 0.55}, {0.75, 0.8}, {1, 0.95}},
}

// Shape returns a copy of a stock curve, or the identity curve and false for
// an unknown name.
func Shape(name string) ([]spline.Point, bool) {
	pts, ok := Shapes[name]
	if !ok {
		return spline.Identity(), false
	}
	return slices.Clone(pts), true
}

func ShapeNames() []string {
	names := make([]string, 0, len(Shapes))
	for name := range Shapes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
