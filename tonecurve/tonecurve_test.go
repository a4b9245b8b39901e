package tonecurve

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"lutgrade/raster"
	"lutgrade/spline"
)

func plainOptions(kind spline.Kind) Options {
	opts := DefaultOptions()
	opts.Kind = kind
	return opts
}

func TestBuildIdentity(t *testing.T) {
	want := IdentityLUT()
	for _, kind := range []spline.Kind{spline.Linear, spline.CatmullRom, spline.CubicSpline, spline.Monotonic} {
		got := Build(ParsePoints("0,0;255,255"), plainOptions(kind))
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("%v: identity mismatch (-want +got):\n%s", kind, d)
		}
	}
}

func TestBuildKnot(t *testing.T) {
	l := Build(ParsePoints("0,0;128,96;255,255"), plainOptions(spline.Linear))
	if l[0] != 0 || l[128] != 96 || l[255] != 255 {
		t.Errorf("LUT[0]=%d LUT[128]=%d LUT[255]=%d, want 0 96 255", l[0], l[128], l[255])
	}
}

func TestBuildStrengthGamma(t *testing.T) {
	opts := plainOptions(spline.Linear)
	opts.Strength = 2
	l := Build(nil, opts)
	if want := uint8(math.Round(math.Sqrt(64.0/255) * 255)); l[64] != want {
		t.Errorf("strength 2: LUT[64] = %d, want %d", l[64], want)
	}

	opts.Strength = 1
	opts.Gamma = 2
	l = Build(nil, opts)
	if want := uint8(math.Round(math.Pow(64.0/255, 2) * 255)); l[64] != want {
		t.Errorf("gamma 2: LUT[64] = %d, want %d", l[64], want)
	}
}

func TestBuildMonotoneInput(t *testing.T) {
	// Only a sanity check on shaping: a rising curve stays rising.
	opts := plainOptions(spline.Monotonic)
	opts.Strength = 1.5
	opts.Gamma = 0.8
	opts.Smoothing.Enabled = true
	l := Build(ParsePoints("0,0;40,90;128,140;200,230;255,255"), opts)
	for i := 1; i < Size; i++ {
		if l[i] < l[i-1] {
			t.Fatalf("LUT decreases at %d: %d < %d", i, l[i], l[i-1])
		}
	}
}

// Random point sets and shaping must build without panicking; uint8 already
// bounds the output, so only the flat tails and the extremes are checked.
func TestBuildBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	kinds := []spline.Kind{spline.Linear, spline.CatmullRom, spline.CubicSpline, spline.Bezier, spline.Hermite, spline.Monotonic}
	for trial := range 200 {
		pts := make([]spline.Point, 2+rng.IntN(8))
		for i := range pts {
			pts[i] = spline.Point{X: rng.Float64(), Y: rng.Float64()}
		}
		opts := plainOptions(kinds[trial%len(kinds)])
		opts.Strength = 0.1 + 2.9*rng.Float64()
		opts.Gamma = 0.1 + 2.9*rng.Float64()
		opts.Smoothing.Enabled = trial%2 == 0
		opts.Smoothing.Strength = 2 * rng.Float64()

		l := Build(pts, opts)
		first := spline.Normalize(pts)[0]
		if first.X > 0.1 && l[0] != l[1] && !opts.Smoothing.Enabled {
			t.Errorf("trial %d: not flat below the first knot: %d %d", trial, l[0], l[1])
		}
	}

	neg := Build(ParsePoints("0,255;255,0"), plainOptions(spline.Linear))
	if neg[0] != 255 || neg[255] != 0 {
		t.Errorf("negative curve ends %d %d", neg[0], neg[255])
	}
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		in   string
		want []spline.Point
	}{
		{"0,0;255,255", []spline.Point{{0, 0}, {1, 1}}},
		{"255,0; 0,255", []spline.Point{{0, 1}, {1, 0}}},
		{"0,0;abc;51,x;300,-20", []spline.Point{{0, 0}, {1, 0}}},
		{"10,10", spline.Identity()},
		{"", spline.Identity()},
		{"garbage", spline.Identity()},
	}
	for _, tt := range tests {
		got := ParsePoints(tt.in)
		if d := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); d != "" {
			t.Errorf("ParsePoints(%q) mismatch (-want +got):\n%s", tt.in, d)
		}
	}
}

func TestParsePointsStrict(t *testing.T) {
	if _, err := ParsePointsStrict("0,0;oops;255,255"); !errors.Is(err, ErrParse) {
		t.Errorf("bad token: %v", err)
	}
	if _, err := ParsePointsStrict("0,0"); !errors.Is(err, ErrParse) {
		t.Errorf("single point: %v", err)
	}
	pts, err := ParsePointsStrict("0,0;64,80;192,210;255,255")
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatPoints(pts); got != "0,0;64,80;192,210;255,255" {
		t.Errorf("FormatPoints = %q", got)
	}
}

func TestShapes(t *testing.T) {
	pts, ok := Shape("S-Curve")
	if !ok || len(pts) != 5 {
		t.Fatalf("S-Curve: %v %v", pts, ok)
	}
	pts[0].Y = 0.5
	if Shapes["S-Curve"][0].Y != 0 {
		t.Error("Shape returned shared storage")
	}
	if _, ok := Shape("nope"); ok {
		t.Error("unknown shape found")
	}
	if names := ShapeNames(); len(names) != len(Shapes) || names[0] != "Bleach Bypass" {
		t.Errorf("ShapeNames = %v", names)
	}
}

func testImage() *raster.Image {
	rng := rand.New(rand.NewPCG(3, 4))
	img := raster.NewSize(17, 9)
	for i := range img.Pix {
		img.Pix[i] = float64(rng.IntN(256)) / 255
	}
	return img
}

func TestApplyIdentity(t *testing.T) {
	img := testImage()
	for _, lum := range []Luminosity{LuminosityOff, LuminosityHSV, LuminosityOKLab} {
		out := ApplyMultiChannel(img, IdentityTables(), lum, 2)
		if d := cmp.Diff(img.Pix, out.Pix); d != "" {
			t.Errorf("lum %v: identity tables changed the image", lum)
		}
	}
}

func TestApplyChannels(t *testing.T) {
	img := testImage()
	tables := IdentityTables()
	tables.Red = Build(ParsePoints("0,255;255,0"), plainOptions(spline.Linear))

	out := ApplyMultiChannel(img, tables, LuminosityOff, 1)
	for i := 0; i < len(img.Pix); i += 3 {
		if want := 1 - img.Pix[i]; math.Abs(out.Pix[i]-want) > 1e-12 {
			t.Fatalf("red %d: %v, want %v", i, out.Pix[i], want)
		}
		if out.Pix[i+1] != img.Pix[i+1] || out.Pix[i+2] != img.Pix[i+2] {
			t.Fatalf("green/blue changed at %d", i)
		}
	}
}

func TestApplyKeepsValue(t *testing.T) {
	img := testImage()
	tables := IdentityTables()
	tables.RGB = Build(ParsePoints("0,40;255,200"), plainOptions(spline.Linear))

	out := ApplyMultiChannel(img, tables, LuminosityHSV, 3)
	for i := 0; i < len(img.Pix); i += 3 {
		want := max(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		got := max(out.Pix[i], out.Pix[i+1], out.Pix[i+2])
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("pixel %d: value %v, want %v", i/3, got, want)
		}
	}
}

func TestParseLuminosity(t *testing.T) {
	for in, want := range map[string]Luminosity{"": LuminosityOff, "hsv": LuminosityHSV, "OKLab": LuminosityOKLab} {
		if got, err := ParseLuminosity(in); err != nil || got != want {
			t.Errorf("ParseLuminosity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLuminosity("lab"); !errors.Is(err, ErrUnknownLuminosity) {
		t.Errorf("unknown mode: %v", err)
	}
}
