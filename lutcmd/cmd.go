// Package lutcmd holds the commands that create, convert and check LUT
// files.
package lutcmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"

	"lutgrade/lut3d"
	"lutgrade/lutfile"
	"lutgrade/lutgen"
	"lutgrade/parallel"
	"lutgrade/raster"
)

type GenParams struct {
	Before    string  `arg:"" help:"Ungraded image, or folder of images" type:"path"`
	After     string  `arg:"" help:"Graded image, or folder holding graded images with the same names" type:"path"`
	Size      int     `help:"LUT size per axis, 2..65" default:"17" group:"fit"`
	Samples   int     `help:"Number of pixel pairs to sample" default:"5000" group:"fit"`
	Scale     float64 `help:"Downscale factor applied before sampling, 0.1..1" default:"0.5" group:"fit"`
	Method    string  `help:"Interpolation of samples onto the grid" enum:"linear,nearest,cubic" default:"linear" group:"fit"`
	Smoothing float64 `help:"Gaussian smoothing of the fitted grid, 0..1" default:"0.1" group:"fit"`
	Seed      uint64  `help:"Seed of the pixel sampler" default:"1" group:"fit"`
	Format    string  `help:"Export format" enum:"cube,3dl,csp" default:"cube" group:"export"`
	Dir       string  `help:"Export folder" default:"luts/generated" type:"path" group:"export"`
	Name      string  `help:"LUT name when fitting a single pair" default:"generated_lut" group:"export"`
	Preview   bool    `help:"Also save a PNG gradient rendered through the LUT" default:"false" group:"export"`

	Options      lutgen.Options `kong:"-"`
	ExportFormat lutfile.Format `kong:"-"`
}

type CLICmd struct {
	Gen     GenParams `cmd:"" help:"Fit a LUT from before and after images"`
	Convert struct {
		In    string `arg:"" help:"Source LUT file" type:"existingfile"`
		Out   string `arg:"" help:"Destination file, format taken from its extension" type:"path"`
		Force bool   `help:"Overwrite the destination" default:"false"`
	} `cmd:"" help:"Convert a LUT file to another format"`
	Check struct {
		Files []string `arg:"" help:"LUT files to check" type:"existingfile"`
	} `cmd:"" help:"Report out of range or malformed LUT entries"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	switch kctx.Selected().Name {
	case "gen":
		return c.Gen.validate()
	case "convert":
		if _, err := lutfile.FormatOf(c.Convert.Out); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLICmd) Run(kctx *kong.Context, worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	switch kctx.Selected().Name {
	case "gen":
		return c.Gen.run(worker, wait)
	case "convert":
		return convertFile(c.Convert.In, c.Convert.Out, c.Convert.Force)
	case "check":
		return check(c.Check.Files)
	}
	return fmt.Errorf("unsupported lut command %q", kctx.Selected().Name)
}

func (g *GenParams) validate() error {
	switch {
	case g.Size < 2 || g.Size > 65:
		return fmt.Errorf("invalid LUT size: %d", g.Size)
	case g.Samples < 1:
		return fmt.Errorf("invalid sample count: %d", g.Samples)
	case g.Scale <= 0 || g.Scale > 1:
		return fmt.Errorf("invalid processing scale: %g", g.Scale)
	case g.Smoothing < 0:
		return fmt.Errorf("invalid smoothing: %g", g.Smoothing)
	}

	beforeDir, err := isDir(g.Before)
	if err != nil {
		return err
	}
	afterDir, err := isDir(g.After)
	if err != nil {
		return err
	}
	if beforeDir != afterDir {
		return fmt.Errorf("before and after must both be files or both be folders")
	}

	opts := lutgen.DefaultOptions()
	opts.Size = g.Size
	opts.SampleCount = g.Samples
	opts.Scale = g.Scale
	opts.Smoothing = g.Smoothing
	opts.Seed = g.Seed
	opts.Workers = 1
	if opts.Method, err = lutgen.ParseMethod(g.Method); err != nil {
		return err
	}
	g.Options = opts

	if g.ExportFormat, err = lutfile.ParseFormat(g.Format); err != nil {
		return err
	}
	return nil
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("invalid image path %q: %w", path, err)
	}
	return info.IsDir(), nil
}

// pair is one before/after couple and the name its LUT is exported under.
type pair struct {
	before, after, name string
}

func (g *GenParams) pairs() ([]pair, error) {
	if dir, _ := isDir(g.Before); !dir {
		return []pair{{g.Before, g.After, g.Name}}, nil
	}

	files, err := os.ReadDir(g.Before)
	if err != nil {
		return nil, fmt.Errorf("unable to read folder %q: %w", g.Before, err)
	}
	var out []pair
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		after := filepath.Join(g.After, file.Name())
		if _, err := os.Stat(after); err != nil {
			slog.Warn("no graded counterpart", "file", file.Name(), "dir", g.After)
			continue
		}
		out = append(out, pair{
			before: filepath.Join(g.Before, file.Name()),
			after:  after,
			name:   strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())),
		})
	}
	return out, nil
}

func (g *GenParams) run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	pairs, err := g.pairs()
	if err != nil {
		return err
	}

	var fittedCount, errCount atomic.Uint64
	for _, p := range pairs {
		worker(func() {
			logger := slog.Default().With("before", p.before, "after", p.after)
			if err := g.fit(logger, p); err != nil {
				errCount.Add(1)
				logger.Error("could not generate LUT", "error", err)
				return
			}
			fittedCount.Add(1)
		})
	}

	wait(true)

	fitted := fittedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "fitted", fitted, "errors", errors, "total", fitted+errors)

	if errors > 0 {
		return fmt.Errorf("error fitting %d LUTs", errors)
	}
	return nil
}

func (g *GenParams) fit(logger *slog.Logger, p pair) error {
	start := time.Now()
	before, _, err := raster.Load(p.before)
	if err != nil {
		return err
	}
	after, _, err := raster.Load(p.after)
	if err != nil {
		return err
	}

	opts := g.Options
	opts.Logger = logger
	table, err := lutgen.Fit(before, after, opts)
	if err != nil {
		return err
	}

	path, err := lutfile.Export(table, g.Dir, p.name, g.ExportFormat)
	if err != nil {
		return err
	}
	logger.Info("LUT saved", "dest", path, "elapsed", time.Since(start).Round(time.Millisecond))

	if g.Preview {
		preview := lutgen.Preview(table, 256)
		dest, err := raster.Save(preview, "png", "png", g.Dir, p.name+"_preview.png")
		if err != nil {
			return fmt.Errorf("could not save preview: %w", err)
		}
		logger.Info("preview saved", "dest", dest)
	}
	return nil
}

// check logs the validation report of every file and fails if any of them
// cannot be parsed or has issues.
func check(files []string) error {
	var bad int
	for _, file := range files {
		logger := slog.Default().With("file", file)
		rec, err := lutfile.Parse(file)
		if err != nil {
			bad++
			logger.Error("could not parse LUT", "error", err)
			continue
		}
		report := lut3d.Validate(rec.Table)
		if !report.Valid {
			bad++
			logger.Warn("LUT has issues", "size", report.Size, "points", report.TotalPoints,
				"issues", report.Issues)
			continue
		}
		logger.Info("LUT ok", "format", rec.Format.String(), "title", rec.Title,
			"size", report.Size, "points", report.TotalPoints)
	}

	if bad > 0 {
		return fmt.Errorf("%d of %d LUT files failed the check", bad, len(files))
	}
	return nil
}
