package grade

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"lutgrade/blend"
	"lutgrade/parallel"
	"lutgrade/raster"
)

// Common holds the flags shared by every grading command.
type Common struct {
	Scan    string  `help:"Source folder to scan" default:"."`
	Dest    string  `help:"Destination folder for graded pictures. Relative to scan dir if not absolute. If same as scan dir, will overwrite source files." default:"graded"`
	Format  string  `help:"Output format of graded image. If prefixed with 'unsup:' will convert only unsupported formats" enum:"${formats}" default:"unsup:png"`
	Resize  bool    `help:"Resize image before grading" default:"false" group:"resize"`
	Width   int     `help:"Max width" group:"resize"`
	Height  int     `help:"Max height" group:"resize"`
	Crop    bool    `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`
	Blend   string  `help:"Blend mode of the graded image over the source" enum:"normal,multiply,screen,overlay,soft_light" default:"normal" group:"blend"`
	Opacity float64 `help:"Opacity of the graded image, 0..1" default:"1" group:"blend"`

	BlendMode blend.Mode `kong:"-"`
}

func (c *Common) validate() error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Resize {
		switch {
		case c.Width < 0:
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case c.Height < 0:
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case c.Width == 0 && c.Height == 0:
			return fmt.Errorf("no resize dimensions given")
		}
	}

	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("invalid opacity: %g", c.Opacity)
	}
	if c.BlendMode, err = blend.ParseMode(c.Blend); err != nil {
		return err
	}
	return nil
}

// relative resolves path against the scan folder.
func (c *Common) relative(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Scan, path)
}

// gradeFunc turns one decoded image into its graded version.
type gradeFunc func(logger *slog.Logger, img *raster.Image) (*raster.Image, error)

// compositing is how a graded image is laid over its source.
type compositing struct {
	mode    blend.Mode
	opacity float64
}

// run grades every file of the scan folder on the worker pool and saves the
// results in the destination folder.
func (c *Common) run(worker parallel.WorkerFunc, wait parallel.WaitFunc, comp compositing, grade gradeFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath)

				img, imgType, err := raster.Load(filePath)
				if err != nil {
					errCount.Add(1)
					logger.Error("could not load image", "error", err)
					return
				}

				if c.Resize {
					img = raster.Resize(logger, img, c.Width, c.Height, c.Crop)
				}

				graded, err := grade(logger, img)
				if err != nil {
					errCount.Add(1)
					logger.Error("could not grade image", "error", err)
					return
				}

				if comp.mode != blend.Normal || comp.opacity < 1 {
					graded, err = blend.Blend(img, graded, comp.mode, comp.opacity, 1)
					if err != nil {
						errCount.Add(1)
						logger.Error("could not blend image", "mode", comp.mode.String(), "error", err)
						return
					}
				}

				destPath, err := raster.Save(graded, imgType, c.Format, c.Dest, fileName)
				if err != nil {
					errCount.Add(1)
					logger.Error("could not save image", "dir", c.Dest, "error", err)
					return
				}
				logger.Debug("saved", "dest", destPath)
				processedCount.Add(1)
			}
		}(file.Name()))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}
