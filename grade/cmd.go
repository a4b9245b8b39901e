// Package grade applies tone curves or 3D LUTs to a folder of pictures.
package grade

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"lutgrade/lut3d"
	"lutgrade/lutfile"
	"lutgrade/parallel"
	"lutgrade/preset"
	"lutgrade/raster"
	"lutgrade/spline"
	"lutgrade/tonecurve"
)

type CurveParams struct {
	Preset     string `help:"Saved preset to apply. Its stored fields override the curve flags" group:"curve"`
	PresetDir  string `help:"Folder holding preset files. Relative to scan dir if not absolute" default:"presets/curves" group:"curve"`
	SavePreset string `help:"Save the effective curve settings under this preset name" group:"curve"`

	Shape  string `help:"Named master curve (${shapes}), used when --points is empty" group:"curve"`
	Points string `help:"Master curve as x,y;x,y pairs in 0..255" group:"curve"`
	Red    string `help:"Red channel curve" default:"0,0;255,255" group:"curve"`
	Green  string `help:"Green channel curve" default:"0,0;255,255" group:"curve"`
	Blue   string `help:"Blue channel curve" default:"0,0;255,255" group:"curve"`

	Interp     string  `help:"Curve interpolation" enum:"linear,catmull_rom,cubic_spline,bezier,hermite,monotonic" default:"catmull_rom" group:"curve"`
	Strength   float64 `help:"Curve strength, above 0 and at most 2" default:"1" group:"curve"`
	Gamma      float64 `help:"Gamma correction, 0.1..3" default:"1" group:"curve"`
	Luminosity string  `help:"Restore the source lightness after the curves" enum:"off,hsv,oklab" default:"off" group:"curve"`

	Smooth           bool    `help:"Smooth the curves before and after building the tables" default:"false" group:"smoothing"`
	SmoothStrength   float64 `help:"Smoothing strength, 0.1..2" default:"0.5" group:"smoothing"`
	SmoothIterations int     `help:"Smoothing passes, 1..10" default:"3" group:"smoothing"`
	AntiClipping     bool    `help:"Limit smoothing moves and damp slope reversals" default:"true" negatable:"" group:"smoothing"`

	Settings preset.Settings `kong:"-"`
	store    *preset.Store
}

type LutParams struct {
	Lut       string  `help:"LUT file, or the name of a .cube file in the LUT folder" required:"" group:"lut"`
	LutDir    string  `help:"Folder holding named LUTs. Relative to scan dir if not absolute" default:"presets/luts" group:"lut"`
	Order     string  `help:"Channel order of the LUT triples" enum:"rgb,bgr" default:"rgb" group:"lut"`
	DataOrder string  `help:"Channel order of the image pixels" enum:"rgb,bgr" default:"rgb" group:"lut"`
	Interp    string  `help:"LUT interpolation" enum:"trilinear,tetrahedral" default:"trilinear" group:"lut"`
	Intensity float64 `help:"LUT intensity, 0..2" default:"1" group:"lut"`

	Apply      lut3d.ApplyOptions `kong:"-"`
	TableOrder lut3d.Order        `kong:"-"`
}

type CLICmd struct {
	Curve struct {
		Common
		CurveParams
	} `cmd:"" help:"Apply tone curves to images"`
	Lut struct {
		Common
		LutParams
	} `cmd:"" help:"Apply a 3D LUT to images"`

	cache *lutfile.Cache
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	switch kctx.Selected().Name {
	case "curve":
		if err := c.Curve.Common.validate(); err != nil {
			return err
		}
		return c.Curve.CurveParams.validate(&c.Curve.Common)
	case "lut":
		if err := c.Lut.Common.validate(); err != nil {
			return err
		}
		return c.Lut.LutParams.validate(&c.Lut.Common)
	}
	return nil
}

func (c *CLICmd) Run(kctx *kong.Context, worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	switch kctx.Selected().Name {
	case "curve":
		return c.runCurve(worker, wait)
	case "lut":
		return c.runLut(worker, wait)
	}
	return fmt.Errorf("unsupported grade command %q", kctx.Selected().Name)
}

// validate folds the flags, and the preset if one is named, into Settings.
func (p *CurveParams) validate(common *Common) error {
	s := preset.Defaults()
	s.CurveRed, s.CurveGreen, s.CurveBlue = p.Red, p.Green, p.Blue
	switch {
	case p.Points != "":
		s.CurveRGB = p.Points
	case p.Shape != "":
		pts, ok := tonecurve.Shape(p.Shape)
		if !ok {
			return fmt.Errorf("unknown curve shape %q", p.Shape)
		}
		s.CurveRGB = tonecurve.FormatPoints(pts)
	}

	var err error
	if s.Interpolation, err = spline.ParseKind(p.Interp); err != nil {
		return err
	}
	s.Strength = p.Strength
	s.Gamma = p.Gamma
	s.PreserveLuminosity = p.Luminosity != "off"
	if s.PreserveLuminosity {
		s.LuminositySpace = p.Luminosity
	}
	s.BlendMode = common.BlendMode
	s.Opacity = common.Opacity
	s.CurveSmoothing = p.Smooth
	s.SmoothingStrength = p.SmoothStrength
	s.SmoothingIterations = p.SmoothIterations
	s.AntiClipping = p.AntiClipping

	if p.Preset != "" || p.SavePreset != "" {
		if p.store, err = preset.NewStore(slog.Default(), common.relative(p.PresetDir)); err != nil {
			return err
		}
	}
	if p.Preset != "" {
		if s, err = p.store.Resolve(p.Preset, s); err != nil {
			return fmt.Errorf("available presets %q: %w", p.store.Names(), err)
		}
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid curve settings: %w", err)
	}
	p.Settings = s
	return nil
}

func (p *LutParams) validate(common *Common) error {
	p.Lut = resolveLut(p.Lut, common.relative(p.LutDir))
	info, err := os.Stat(p.Lut)
	if err == nil && !info.Mode().IsRegular() {
		err = fmt.Errorf("not a regular file")
	}
	if err != nil {
		return fmt.Errorf("invalid LUT path %q: %w", p.Lut, err)
	}

	if p.TableOrder, err = lut3d.ParseOrder(p.Order); err != nil {
		return err
	}
	apply := lut3d.DefaultApplyOptions()
	if apply.DataOrder, err = lut3d.ParseOrder(p.DataOrder); err != nil {
		return err
	}
	if apply.Interpolation, err = lut3d.ParseInterpolation(p.Interp); err != nil {
		return err
	}
	if p.Intensity < 0 || p.Intensity > 2 {
		return fmt.Errorf("invalid LUT intensity: %g", p.Intensity)
	}
	apply.Intensity = p.Intensity
	apply.Workers = 1
	p.Apply = apply
	return nil
}

// resolveLut maps a bare name without extension onto dir/name.cube when no
// such file exists next to the working directory.
func resolveLut(name, dir string) string {
	if filepath.Ext(name) != "" || filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(dir, name+lutfile.Cube.Ext())
}

func (c *CLICmd) runCurve(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	p := &c.Curve.CurveParams
	if p.SavePreset != "" {
		if _, err := p.store.Save(p.SavePreset, p.Settings); err != nil {
			return err
		}
	}

	tables := p.Settings.Tables()
	lum, err := p.Settings.Luminosity()
	if err != nil {
		return err
	}
	slog.Info("grading with curves", "interp", p.Settings.Interpolation.String(),
		"strength", p.Settings.Strength, "gamma", p.Settings.Gamma, "preset", p.Preset)

	comp := compositing{mode: p.Settings.BlendMode, opacity: p.Settings.Opacity}
	return c.Curve.Common.run(worker, wait, comp, func(_ *slog.Logger, img *raster.Image) (*raster.Image, error) {
		return tonecurve.ApplyMultiChannel(img, tables, lum, 1), nil
	})
}

func (c *CLICmd) runLut(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if c.cache == nil {
		c.cache = lutfile.NewCache()
	}
	p := &c.Lut.LutParams
	comp := compositing{mode: c.Lut.BlendMode, opacity: c.Lut.Opacity}
	slog.Info("grading with LUT", "lut", p.Lut, "order", p.TableOrder.String(),
		"interp", p.Apply.Interpolation.String(), "intensity", p.Apply.Intensity)

	return c.Lut.Common.run(worker, wait, comp, func(logger *slog.Logger, img *raster.Image) (*raster.Image, error) {
		table, err := c.cache.Load(p.Lut, p.TableOrder)
		if err != nil {
			return nil, err
		}
		if r := lut3d.Validate(table); !r.Valid {
			logger.Warn("LUT has issues", "lut", p.Lut, "issues", r.Issues)
		}
		return lut3d.Apply(img, table, p.Apply), nil
	})
}
