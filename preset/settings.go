// Package preset stores named tone-curve grades as JSON files.
package preset

import (
	"errors"
	"fmt"

	"lutgrade/blend"
	"lutgrade/spline"
	"lutgrade/tonecurve"
)

// Version is written with every saved preset. Files without a version are
// read as version 1.
const Version = 1

// Settings is one complete curve grade. The JSON names match presets
// written by earlier releases.
type Settings struct {
	Version int `json:"settings_version,omitempty"`

	// Curve points use the "x,y;x,y" syntax in 0..255 units.
	CurveRGB   string `json:"curve_points_rgb"`
	CurveRed   string `json:"curve_points_red"`
	CurveGreen string `json:"curve_points_green"`
	CurveBlue  string `json:"curve_points_blue"`

	Interpolation spline.Kind `json:"interpolation"`
	// Strength is in (0, 2], applied as y^(1/Strength).
	Strength float64 `json:"strength"`
	// Gamma is 0.1..3.
	Gamma float64 `json:"gamma_correction"`

	PreserveLuminosity bool `json:"preserve_luminosity"`
	// LuminositySpace is "hsv" or "oklab" and only matters with
	// PreserveLuminosity.
	LuminositySpace string `json:"luminosity_space,omitempty"`

	BlendMode blend.Mode `json:"blend_mode"`
	Opacity   float64    `json:"opacity"`

	CurveSmoothing      bool    `json:"curve_smoothing"`
	SmoothingStrength   float64 `json:"smoothing_strength"`
	SmoothingIterations int     `json:"smoothing_iterations"`
	AntiClipping        bool    `json:"anti_clipping"`
}

// Defaults returns the neutral grade: a five point identity master curve,
// Catmull-Rom, no luminosity preservation, normal blend at full opacity
// and smoothing off.
func Defaults() Settings {
	return Settings{
		Version:             Version,
		CurveRGB:            "0,0;64,64;128,128;192,192;255,255",
		CurveRed:            "0,0;255,255",
		CurveGreen:          "0,0;255,255",
		CurveBlue:           "0,0;255,255",
		Interpolation:       spline.CatmullRom,
		Strength:            1,
		Gamma:               1,
		BlendMode:           blend.Normal,
		Opacity:             1,
		SmoothingStrength:   0.5,
		SmoothingIterations: 3,
		AntiClipping:        true,
	}
}

// Validate reports every field outside its allowed range.
func (s Settings) Validate() error {
	var errs []error
	check := func(name string, v, lo, hi float64) {
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s %g outside [%g, %g]", name, v, lo, hi))
		}
	}
	if s.Strength <= 0 || s.Strength > 2 {
		errs = append(errs, fmt.Errorf("strength %g outside (0, 2]", s.Strength))
	}
	check("gamma_correction", s.Gamma, 0.1, 3)
	check("opacity", s.Opacity, 0, 1)
	if s.CurveSmoothing {
		check("smoothing_strength", s.SmoothingStrength, 0.1, 2)
		check("smoothing_iterations", float64(s.SmoothingIterations), 1, 10)
	}
	for name, pts := range map[string]string{
		"curve_points_rgb":   s.CurveRGB,
		"curve_points_red":   s.CurveRed,
		"curve_points_green": s.CurveGreen,
		"curve_points_blue":  s.CurveBlue,
	} {
		if pts == "" {
			continue
		}
		if _, err := tonecurve.ParsePointsStrict(pts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if _, err := s.Luminosity(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Curves parses the four point strings. Empty or malformed strings give
// the identity curve.
func (s Settings) Curves() tonecurve.Curves {
	return tonecurve.Curves{
		RGB:   tonecurve.ParsePoints(s.CurveRGB),
		Red:   tonecurve.ParsePoints(s.CurveRed),
		Green: tonecurve.ParsePoints(s.CurveGreen),
		Blue:  tonecurve.ParsePoints(s.CurveBlue),
	}
}

func (s Settings) ToneOptions() tonecurve.Options {
	return tonecurve.Options{
		Kind:     s.Interpolation,
		Strength: s.Strength,
		Gamma:    s.Gamma,
		Smoothing: tonecurve.SmoothingOptions{
			Enabled:      s.CurveSmoothing,
			Strength:     s.SmoothingStrength,
			Iterations:   s.SmoothingIterations,
			AntiClipping: s.AntiClipping,
		},
	}
}

// Luminosity maps the preservation flag and colour space onto the mode
// understood by tonecurve.
func (s Settings) Luminosity() (tonecurve.Luminosity, error) {
	if !s.PreserveLuminosity {
		return tonecurve.LuminosityOff, nil
	}
	if s.LuminositySpace == "" {
		return tonecurve.LuminosityHSV, nil
	}
	return tonecurve.ParseLuminosity(s.LuminositySpace)
}

// Tables builds the four tone tables of the grade.
func (s Settings) Tables() tonecurve.Tables {
	return tonecurve.BuildCurves(s.Curves(), s.ToneOptions())
}
