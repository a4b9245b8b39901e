// Package lutfile reads and writes 3D LUT files.
//
// Every text format is decoded into a lut3d.Table with normalised values.
// Data rows are read and written with r varying fastest and b slowest.
package lutfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"lutgrade/lut3d"
)

var (
	ErrParse             = errors.New("malformed LUT file")
	ErrSizeMismatch      = errors.New("LUT size does not match data")
	ErrUnsupportedFormat = errors.New("unsupported LUT format")
)

type Format int

const (
	Cube Format = iota
	ThreeDL
	CSP
	// LUT is a generic extension whose real format is sniffed from content.
	LUT
	// MGA files are read as 3dl text.
	MGA
)

var formatExts = [...]string{
	Cube:    "cube",
	ThreeDL: "3dl",
	CSP:     "csp",
	LUT:     "lut",
	MGA:     "mga",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatExts) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatExts[f]
}

// Ext is the file extension including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// Writable reports whether Encode supports the format.
func (f Format) Writable() bool {
	return f == Cube || f == ThreeDL || f == CSP
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	for f, ext := range formatExts {
		if s == ext {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Record is a decoded LUT file. Table values are normalised to [0,1] using
// the domain; the domain is kept so the file can be written back unchanged.
type Record struct {
	Table     *lut3d.Table
	Size      int
	DomainMin [3]float64
	DomainMax [3]float64
	Title     string
	Format    Format
}

// NewRecord wraps a table with the default [0,1] domain.
func NewRecord(t *lut3d.Table, title string, format Format) *Record {
	return &Record{
		Table:     t,
		Size:      t.Size,
		DomainMax: [3]float64{1, 1, 1},
		Title:     title,
		Format:    format,
	}
}

func (r *Record) defaultDomain() bool {
	return r.DomainMin == [3]float64{} && r.DomainMax == [3]float64{1, 1, 1}
}

// fill builds a table from rows stored with r fastest.
func fill(size int, rows [][3]float64) *lut3d.Table {
	t := lut3d.New(size)
	i := 0
	for b := range size {
		for g := range size {
			for r := range size {
				t.Set(r, g, b, rows[i])
				i++
			}
		}
	}
	return t
}

// each visits the table entries in file order, r fastest.
func each(t *lut3d.Table, fn func(c [3]float64) error) error {
	for b := range t.Size {
		for g := range t.Size {
			for r := range t.Size {
				if err := fn(t.At(r, g, b)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// cubeRoot returns n when rows == n³.
func cubeRoot(rows int) (int, bool) {
	n := 1
	for n*n*n < rows {
		n++
	}
	return n, n*n*n == rows && n >= 2
}
