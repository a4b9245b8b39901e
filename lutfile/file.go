package lutfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lutgrade/lut3d"
)

// Decode reads a LUT of the given format. name only provides the title when
// the file has none.
func Decode(r io.Reader, format Format, name string) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read LUT data: %w", err)
	}

	var rec *Record
	switch format {
	case Cube:
		rec, err = decodeCube(data)
	case ThreeDL, MGA:
		rec, err = decode3DL(data, format)
	case CSP:
		rec, err = decodeCSP(data)
	case LUT:
		rec, err = decodeSniffed(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if rec.Title == "" {
		rec.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return rec, nil
}

// decodeSniffed handles generic .lut files: cube keywords, then a CSP data
// fence, otherwise 3dl rows.
func decodeSniffed(data []byte) (*Record, error) {
	var (
		rec *Record
		err error
	)
	switch {
	case bytes.Contains(data, []byte("LUT_3D_SIZE")):
		rec, err = decodeCube(data)
	case bytes.Contains(data, []byte("BEGIN_DATA")):
		rec, err = decodeCSP(data)
	default:
		rec, err = decode3DL(data, LUT)
	}
	if err != nil {
		return nil, err
	}
	rec.Format = LUT
	return rec, nil
}

// Parse reads the LUT file at path, choosing the decoder by extension.
func Parse(path string) (*Record, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open LUT %q: %w", path, err)
	}
	defer f.Close()

	rec, err := Decode(f, format, path)
	if err != nil {
		return nil, fmt.Errorf("could not parse LUT %q: %w", path, err)
	}
	return rec, nil
}

// Encode writes rec in one of the writable formats.
func Encode(w io.Writer, rec *Record, format Format) error {
	if rec.Table == nil {
		return fmt.Errorf("%w: record has no table", ErrParse)
	}
	switch format {
	case Cube:
		return encodeCube(w, rec)
	case ThreeDL:
		return encode3DL(w, rec)
	case CSP:
		return encodeCSP(w, rec)
	}
	return fmt.Errorf("%w: cannot write %v", ErrUnsupportedFormat, format)
}

// Write encodes rec to path in the format named by its extension. The data
// goes to a temporary file in the same folder which is renamed into place.
func Write(rec *Record, path string) (err error) {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if !format.Writable() {
		return fmt.Errorf("%w: cannot write %v", ErrUnsupportedFormat, format)
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	outFile, err := os.CreateTemp(dir, name)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", name, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", name, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", name, defErr)
		}
		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), path); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", name, defErr)
			}
		} else {
			os.Remove(outFile.Name())
		}
	}()

	if err = Encode(outFile, rec, format); err != nil {
		return fmt.Errorf("could not encode %v destination %q: %w", format, name, err)
	}
	canRename = true
	return nil
}

// Export writes t as dir/name.<ext>, creating dir when needed, and returns
// the path written.
func Export(t *lut3d.Table, dir, name string, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create LUT folder %q: %w", dir, err)
	}
	path := filepath.Join(dir, name+format.Ext())
	if err := Write(NewRecord(t, name, format), path); err != nil {
		return "", err
	}
	return path, nil
}

// Convert rewrites a LUT file in the format named by out's extension.
func Convert(in, out string) error {
	rec, err := Parse(in)
	if err != nil {
		return err
	}
	if format, err := FormatOf(out); err == nil {
		rec.Format = format
	}
	return Write(rec, out)
}
