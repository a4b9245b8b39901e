package lutfile

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"lutgrade/lut3d"
)

func randomTable(size int) *lut3d.Table {
	rng := rand.New(rand.NewPCG(uint64(size), 11))
	t := lut3d.New(size)
	for i := range t.Data {
		t.Data[i] = rng.Float64()
	}
	return t
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCubeRoundTrip(t *testing.T) {
	for _, size := range []int{2, 5, 17} {
		tab := randomTable(size)
		path := filepath.Join(t.TempDir(), "look.cube")
		if err := Write(NewRecord(tab, "Look", Cube), path); err != nil {
			t.Fatal(err)
		}

		rec, err := Parse(path)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Size != size || rec.Title != "Look" || rec.Format != Cube {
			t.Errorf("record header %d %q %v", rec.Size, rec.Title, rec.Format)
		}
		if d := cmp.Diff(tab.Data, rec.Table.Data, cmpopts.EquateApprox(0, 1e-5)); d != "" {
			t.Errorf("size %d round trip (-want +got):\n%s", size, d)
		}
	}
}

func TestCubeLayout(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# comment\nLUT_3D_SIZE 2\n")
	for i := range 8 {
		v := float64(i) / 10
		fmt.Fprintf(&sb, "%g %g %g\n", v, v, v)
	}
	rec, err := Decode(strings.NewReader(sb.String()), Cube, "/x/layout.cube")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "layout" {
		t.Errorf("title %q", rec.Title)
	}
	// r varies fastest in the file.
	for i, want := range []struct{ r, g, b int }{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	} {
		got := rec.Table.At(want.r, want.g, want.b)[0]
		if got != float64(i)/10 {
			t.Errorf("row %d landed at another grid point: At(%d,%d,%d) = %v", i, want.r, want.g, want.b, got)
		}
	}
}

func TestCubeErrors(t *testing.T) {
	tests := map[string]struct {
		content string
		want    error
	}{
		"short":        {"LUT_3D_SIZE 2\n0 0 0\n1 1 1\n", ErrSizeMismatch},
		"default size": {"0 0 0\n1 1 1\n", ErrSizeMismatch},
		"bad size":     {"LUT_3D_SIZE two\n", ErrParse},
		"bad domain":   {"DOMAIN_MIN 0 0\nLUT_3D_SIZE 2\n", ErrParse},
		"1d":           {"LUT_1D_SIZE 16\n", ErrUnsupportedFormat},
	}
	for name, tt := range tests {
		_, err := Decode(strings.NewReader(tt.content), Cube, "x.cube")
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: error %v, want %v", name, err, tt.want)
		}
	}
}

func TestCubeSkipsBadRows(t *testing.T) {
	content := "LUT_3D_SIZE 2\n" +
		"0 0 0\n1 0 0\n0.5 oops 0\n0 1 0\n1 1 0\n0 0 1 9\n0 0 1\n1 0 1\n0 1 1\n1 1 1\n"
	rec, err := Decode(strings.NewReader(content), Cube, "x.cube")
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(lut3d.Identity(2).Data, rec.Table.Data); d != "" {
		t.Errorf("table (-want +got):\n%s", d)
	}
}

func TestCubeDomain(t *testing.T) {
	content := "TITLE \"Log\"\nDOMAIN_MIN 0 0 0\nDOMAIN_MAX 2 2 4\nLUT_3D_SIZE 2\n" +
		"0 0 0\n2 0 0\n0 2 0\n2 2 0\n0 0 4\n2 0 4\n0 2 4\n2 2 4\n"
	rec, err := Decode(strings.NewReader(content), Cube, "x.cube")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "Log" {
		t.Errorf("title %q", rec.Title)
	}
	if d := cmp.Diff(lut3d.Identity(2).Data, rec.Table.Data); d != "" {
		t.Errorf("normalised table (-want +got):\n%s", d)
	}

	var sb strings.Builder
	if err := Encode(&sb, rec, Cube); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "DOMAIN_MAX 2.000000 2.000000 4.000000") ||
		!strings.Contains(sb.String(), "\n2.000000 2.000000 4.000000\n") {
		t.Errorf("domain not written back:\n%s", sb.String())
	}

	back, err := Decode(strings.NewReader(sb.String()), Cube, "x.cube")
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(rec, back); d != "" {
		t.Errorf("record round trip (-want +got):\n%s", d)
	}
}

func TestThreeDL(t *testing.T) {
	tab := randomTable(5)
	var sb strings.Builder
	if err := Encode(&sb, NewRecord(tab, "", ThreeDL), ThreeDL); err != nil {
		t.Fatal(err)
	}
	rec, err := Decode(strings.NewReader(sb.String()), ThreeDL, "grade.3dl")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Size != 5 || rec.Title != "grade" {
		t.Errorf("header %d %q", rec.Size, rec.Title)
	}
	if d := cmp.Diff(tab.Data, rec.Table.Data, cmpopts.EquateApprox(0, 0.5/1023+1e-9)); d != "" {
		t.Errorf("round trip (-want +got):\n%s", d)
	}
}

func TestThreeDLRowsOnly(t *testing.T) {
	for _, size := range []int{3, 5} {
		var sb strings.Builder
		if err := Encode(&sb, NewRecord(randomTable(size), "", ThreeDL), ThreeDL); err != nil {
			t.Fatal(err)
		}
		var rows int
		for line := range strings.Lines(sb.String()) {
			if strings.HasPrefix(line, "#") {
				continue
			}
			f := strings.Fields(line)
			if len(f) != 3 {
				t.Fatalf("size %d: row %q has %d fields", size, line, len(f))
			}
			for _, v := range f {
				if n, err := strconv.Atoi(v); err != nil || n < 0 || n > 1023 {
					t.Fatalf("size %d: value %q", size, v)
				}
			}
			rows++
		}
		if rows != size*size*size {
			t.Errorf("size %d: %d rows, want %d", size, rows, size*size*size)
		}
	}
}

func TestThreeDLScales(t *testing.T) {
	rows := func(top string) string {
		var sb strings.Builder
		for i := range 8 {
			if i == 7 {
				sb.WriteString(top + " " + top + " " + top + "\n")
			} else {
				sb.WriteString("0 0 0\n")
			}
		}
		return sb.String()
	}
	for top, want := range map[string]float64{"1023": 1, "2047": 2047.0 / 4095, "65535": 1, "0.5": 0.5} {
		rec, err := Decode(strings.NewReader(rows(top)), ThreeDL, "x.3dl")
		if err != nil {
			t.Fatal(err)
		}
		if got := rec.Table.At(1, 1, 1)[0]; got != want {
			t.Errorf("max %s: %v, want %v", top, got, want)
		}
	}
}

func TestThreeDLSize(t *testing.T) {
	if _, err := Decode(strings.NewReader("0 0 0\n1 1 1\n0 1 0\n"), ThreeDL, "x.3dl"); !errors.Is(err, ErrParse) {
		t.Errorf("3 rows: %v", err)
	}
	if _, err := Decode(strings.NewReader("# empty\n"), ThreeDL, "x.3dl"); !errors.Is(err, ErrParse) {
		t.Errorf("no rows: %v", err)
	}

	// Two stray header rows in front of a 17³ grid.
	var sb strings.Builder
	sb.WriteString("3 3 3\n4 4 4\n")
	for range 17 * 17 * 17 {
		sb.WriteString("512 512 512\n")
	}
	rec, err := Decode(strings.NewReader(sb.String()), ThreeDL, "x.3dl")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Size != 17 || rec.Table.At(0, 0, 0)[0] != 512.0/1023 {
		t.Errorf("size %d first %v", rec.Size, rec.Table.At(0, 0, 0))
	}
}

func TestCSP(t *testing.T) {
	tab := randomTable(4)
	var sb strings.Builder
	if err := Encode(&sb, NewRecord(tab, "Print film", CSP), CSP); err != nil {
		t.Fatal(err)
	}
	rec, err := Decode(strings.NewReader(sb.String()), CSP, "x.csp")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Size != 4 || rec.Title != "Print film" {
		t.Errorf("header %d %q", rec.Size, rec.Title)
	}
	if d := cmp.Diff(tab.Data, rec.Table.Data, cmpopts.EquateApprox(0, 1e-6)); d != "" {
		t.Errorf("round trip (-want +got):\n%s", d)
	}

	// Unfenced data after the size line.
	plain := strings.Replace(strings.Replace(sb.String(), "BEGIN_DATA\n", "", 1), "END_DATA\n", "", 1)
	if rec, err = Decode(strings.NewReader(plain), CSP, "x.csp"); err != nil || rec.Size != 4 {
		t.Errorf("unfenced: %v", err)
	}

	bad := strings.Replace(sb.String(), "4 4 4", "3 3 3", 1)
	if _, err := Decode(strings.NewReader(bad), CSP, "x.csp"); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("wrong size line: %v", err)
	}
	if _, err := Decode(strings.NewReader("3D\n"), CSP, "x.csp"); !errors.Is(err, ErrParse) {
		t.Errorf("missing magic: %v", err)
	}
}

func TestSniffedLUT(t *testing.T) {
	tab := randomTable(2)
	for _, format := range []Format{Cube, ThreeDL, CSP} {
		var sb strings.Builder
		if err := Encode(&sb, NewRecord(tab, "", format), format); err != nil {
			t.Fatal(err)
		}
		rec, err := Decode(strings.NewReader(sb.String()), LUT, "x.lut")
		if err != nil {
			t.Fatalf("%v as .lut: %v", format, err)
		}
		if rec.Format != LUT {
			t.Errorf("format %v", rec.Format)
		}
		if d := cmp.Diff(tab.Data, rec.Table.Data, cmpopts.EquateApprox(0, 1e-3)); d != "" {
			t.Errorf("%v as .lut (-want +got):\n%s", format, d)
		}
	}

	path := writeFile(t, "old.mga", "0 0 0\n1023 0 0\n0 1023 0\n1023 1023 0\n0 0 1023\n1023 0 1023\n0 1023 1023\n1023 1023 1023\n")
	rec, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(lut3d.Identity(2).Data, rec.Table.Data); d != "" || rec.Format != MGA {
		t.Errorf("mga %v (-want +got):\n%s", rec.Format, d)
	}
}

func TestFormats(t *testing.T) {
	if _, err := Parse(writeFile(t, "x.png", "")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("png: %v", err)
	}
	dir := t.TempDir()
	if err := Write(NewRecord(lut3d.Identity(2), "", LUT), filepath.Join(dir, "x.lut")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("write .lut: %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("failed write left %d files", len(entries))
	}
	if f, err := ParseFormat(".CUBE"); err != nil || f != Cube {
		t.Errorf("ParseFormat(.CUBE) = %v, %v", f, err)
	}
}

func TestExportConvert(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "luts", "generated")
	tab := randomTable(3)

	path, err := Export(tab, dir, "warm", Cube)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "warm.cube") {
		t.Errorf("exported to %q", path)
	}

	out := filepath.Join(dir, "warm.csp")
	if err := Convert(path, out); err != nil {
		t.Fatal(err)
	}
	rec, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "warm" {
		t.Errorf("title %q", rec.Title)
	}
	if d := cmp.Diff(tab.Data, rec.Table.Data, cmpopts.EquateApprox(0, 2e-6)); d != "" {
		t.Errorf("converted table (-want +got):\n%s", d)
	}
}

func TestCache(t *testing.T) {
	tab := lut3d.Identity(2)
	tab.Data[3] = 1.5 // entry (0,0,1) red
	path, err := Export(tab, t.TempDir(), "c", Cube)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache()
	rgb, err := cache.Load(path, lut3d.RGB)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := cache.Load(path, lut3d.RGB)
	if rgb != again {
		t.Error("second load parsed again")
	}
	if got := rgb.At(0, 0, 1); got != [3]float64{1, 0, 1} {
		t.Errorf("clamped entry %v", got)
	}

	bgr, err := cache.Load(path, lut3d.BGR)
	if err != nil {
		t.Fatal(err)
	}
	if got := bgr.At(1, 0, 0); got != [3]float64{0, 0, 1} {
		t.Errorf("BGR entry %v", got)
	}
	if cache.Len() != 2 {
		t.Errorf("cache holds %d tables", cache.Len())
	}

	// Changes on disk are ignored until evicted.
	if _, err := Export(lut3d.Identity(3), filepath.Dir(path), "c", Cube); err != nil {
		t.Fatal(err)
	}
	if cached, _ := cache.Load(path, lut3d.RGB); cached.Size != 2 {
		t.Error("cache refreshed on its own")
	}
	cache.Evict(path)
	if cache.Len() != 0 {
		t.Errorf("evict left %d tables", cache.Len())
	}
	if fresh, _ := cache.Load(path, lut3d.RGB); fresh.Size != 3 {
		t.Errorf("reload size %d", fresh.Size)
	}

	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.cube"), lut3d.RGB); err == nil {
		t.Error("missing file loaded")
	}
}
