package grade

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"lutgrade/lut3d"
	"lutgrade/lutfile"
	"lutgrade/parallel"
	"lutgrade/preset"
	"lutgrade/raster"
	"lutgrade/tonecurve"
)

func newParser(t *testing.T) *kong.Kong {
	t.Helper()
	k, err := kong.New(&CLICmd{}, kong.Vars{
		"formats": strings.Join(raster.Formats, ","),
		"shapes":  strings.Join(tonecurve.ShapeNames(), ", "),
	})
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func run(t *testing.T, args ...string) {
	t.Helper()
	kctx, err := newParser(t).Parse(args)
	if err != nil {
		t.Fatal(err)
	}
	pool := parallel.Start(2)
	if err := kctx.Run(pool.Do, pool.Wait); err != nil {
		t.Fatal(err)
	}
}

// scanDir holds one 4×2 PNG with a grey ramp.
func scanDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := raster.NewSize(4, 2)
	for y := range 2 {
		for x := range 4 {
			v := float64(x*85) / 255
			img.SetRGB(x, y, v, v, v)
		}
	}
	if _, err := raster.Save(img, "png", "png", dir, "ramp.png"); err != nil {
		t.Fatal(err)
	}
	return dir
}

func load(t *testing.T, path string) *raster.Image {
	t.Helper()
	img, _, err := raster.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestCurveInverts(t *testing.T) {
	dir := scanDir(t)
	run(t, "curve", "--scan", dir, "--points", "0,255;255,0", "--interp", "linear")

	img := load(t, filepath.Join(dir, "graded", "ramp.png"))
	for x := range 4 {
		r, g, b := img.RGB(x, 1)
		want := 1 - float64(x*85)/255
		if math.Abs(r-want) > 1e-9 || r != g || g != b {
			t.Fatalf("pixel %d = %g %g %g, want %g", x, r, g, b, want)
		}
	}
}

func TestCurveOpacity(t *testing.T) {
	dir := scanDir(t)
	run(t, "curve", "--scan", dir, "--dest", "half", "--points", "0,255;255,0", "--interp", "linear",
		"--opacity", "0.5")

	img := load(t, filepath.Join(dir, "half", "ramp.png"))
	for x := range 4 {
		if r, _, _ := img.RGB(x, 0); math.Abs(r-0.5) > 1.0/255 {
			t.Fatalf("pixel %d = %g, want mid grey", x, r)
		}
	}
}

func TestCurvePreset(t *testing.T) {
	dir := scanDir(t)
	run(t, "curve", "--scan", dir, "--points", "0,255;255,0", "--interp", "linear",
		"--save-preset", "invert", "--dest", "first")

	store, err := preset.NewStore(nil, filepath.Join(dir, "presets", "curves"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Get("invert")
	if err != nil {
		t.Fatal(err)
	}
	if s.CurveRGB != "0,255;255,0" {
		t.Fatalf("saved curve = %q", s.CurveRGB)
	}

	// the stored curve wins over the flag
	run(t, "curve", "--scan", dir, "--preset", "invert", "--points", "0,0;255,255", "--dest", "second")
	img := load(t, filepath.Join(dir, "second", "ramp.png"))
	if r, _, _ := img.RGB(0, 0); r != 1 {
		t.Fatalf("black became %g, want white", r)
	}
}

func TestCurveValidate(t *testing.T) {
	dir := scanDir(t)
	for _, args := range [][]string{
		{"curve", "--scan", dir, "--strength", "5"},
		{"curve", "--scan", dir, "--shape", "nope"},
		{"curve", "--scan", dir, "--preset", "missing"},
		{"curve", "--scan", filepath.Join(dir, "ramp.png")},
		{"curve", "--scan", dir, "--resize"},
	} {
		if _, err := newParser(t).Parse(args); err == nil {
			t.Errorf("%q accepted", args)
		}
	}
}

func TestLut(t *testing.T) {
	dir := scanDir(t)
	swap := lut3d.New(2)
	for r := range 2 {
		for g := range 2 {
			for b := range 2 {
				swap.Set(r, g, b, [3]float64{float64(b), float64(g), float64(r)})
			}
		}
	}
	// a yellowish image so the channel swap shows
	img := raster.NewSize(1, 1)
	img.SetRGB(0, 0, 1, 0.6, 0)
	if _, err := raster.Save(img, "png", "png", dir, "yellow.png"); err != nil {
		t.Fatal(err)
	}
	lutDir := filepath.Join(dir, "presets", "luts")
	if _, err := lutfile.Export(swap, lutDir, "swap", lutfile.Cube); err != nil {
		t.Fatal(err)
	}

	run(t, "lut", "--scan", dir, "--lut", "swap", "--lut-dir", lutDir)
	got := load(t, filepath.Join(dir, "graded", "yellow.png"))
	r, g, b := got.RGB(0, 0)
	if r != 0 || math.Abs(g-0.6) > 1.0/255 || b != 1 {
		t.Fatalf("swapped = %g %g %g", r, g, b)
	}

	run(t, "lut", "--scan", dir, "--lut", filepath.Join(lutDir, "swap.cube"), "--intensity", "0",
		"--dest", "none")
	got = load(t, filepath.Join(dir, "none", "yellow.png"))
	if r, _, b := got.RGB(0, 0); r != 1 || b != 0 {
		t.Fatalf("intensity 0 changed the image: %g %g", r, b)
	}
}

func TestLutMissing(t *testing.T) {
	dir := scanDir(t)
	if _, err := newParser(t).Parse([]string{"lut", "--scan", dir, "--lut", "nothing"}); err == nil {
		t.Fatal("missing LUT accepted")
	}
	if _, err := os.Stat(filepath.Join(dir, "graded")); err == nil {
		t.Fatal("destination created for a failed validation")
	}
}
