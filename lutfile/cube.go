package lutfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const defaultCubeSize = 33

func decodeCube(data []byte) (*Record, error) {
	rec := &Record{
		Size:      defaultCubeSize,
		DomainMax: [3]float64{1, 1, 1},
		Format:    Cube,
	}

	var rows [][3]float64
	for line := range lines(data) {
		fields := strings.Fields(line)
		if isNumeric(fields[0]) {
			// Rows that do not hold three numbers are skipped.
			if c, ok := triple(fields); ok {
				rows = append(rows, c)
			}
			continue
		}

		key, args := strings.ToUpper(fields[0]), fields[1:]
		switch key {
		case "TITLE":
			rec.Title = strings.Trim(strings.TrimSpace(line[len(fields[0]):]), `"`)
		case "LUT_3D_SIZE":
			n, err := sizeArg(args)
			if err != nil {
				return nil, err
			}
			rec.Size = n
		case "DOMAIN_MIN", "DOMAIN_MAX":
			c, ok := triple(args)
			if !ok {
				return nil, fmt.Errorf("%w: bad %s %q", ErrParse, key, line)
			}
			if key == "DOMAIN_MIN" {
				rec.DomainMin = c
			} else {
				rec.DomainMax = c
			}
		case "LUT_3D_INPUT_RANGE":
			if len(args) != 2 || !isNumeric(args[0]) || !isNumeric(args[1]) {
				return nil, fmt.Errorf("%w: bad %s %q", ErrParse, key, line)
			}
			lo, _ := strconv.ParseFloat(args[0], 64)
			hi, _ := strconv.ParseFloat(args[1], 64)
			rec.DomainMin = [3]float64{lo, lo, lo}
			rec.DomainMax = [3]float64{hi, hi, hi}
		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("%w: 1D cube files", ErrUnsupportedFormat)
		}
	}

	if want := rec.Size * rec.Size * rec.Size; len(rows) != want {
		return nil, fmt.Errorf("%w: LUT_3D_SIZE %d needs %d rows, found %d", ErrSizeMismatch, rec.Size, want, len(rows))
	}
	if err := normalizeDomain(rows, rec.DomainMin, rec.DomainMax); err != nil {
		return nil, err
	}
	rec.Table = fill(rec.Size, rows)
	return rec, nil
}

func sizeArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: LUT_3D_SIZE takes one value", ErrParse)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 2 {
		return 0, fmt.Errorf("%w: bad LUT_3D_SIZE %q", ErrParse, args[0])
	}
	return n, nil
}

func normalizeDomain(rows [][3]float64, lo, hi [3]float64) error {
	if lo == [3]float64{} && hi == [3]float64{1, 1, 1} {
		return nil
	}
	var scale [3]float64
	for k := range scale {
		if hi[k] <= lo[k] {
			return fmt.Errorf("%w: empty domain %v..%v", ErrParse, lo, hi)
		}
		scale[k] = 1 / (hi[k] - lo[k])
	}
	for i := range rows {
		for k := range 3 {
			rows[i][k] = (rows[i][k] - lo[k]) * scale[k]
		}
	}
	return nil
}

func encodeCube(w io.Writer, rec *Record) error {
	bw := bufio.NewWriter(w)
	title := rec.Title
	if title == "" {
		title = "Generated LUT"
	}
	fmt.Fprintf(bw, "# Created by lutgrade\nTITLE %q\n", title)
	if !rec.defaultDomain() {
		fmt.Fprintf(bw, "DOMAIN_MIN %s\n", formatTriple(rec.DomainMin))
		fmt.Fprintf(bw, "DOMAIN_MAX %s\n", formatTriple(rec.DomainMax))
	}
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n\n", rec.Table.Size)

	lo, hi := rec.DomainMin, rec.DomainMax
	buf := make([]byte, 0, 64)
	each(rec.Table, func(c [3]float64) error {
		buf = buf[:0]
		for k := range 3 {
			if k > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, c[k]*(hi[k]-lo[k])+lo[k], 'f', 6, 64)
		}
		buf = append(buf, '\n')
		_, err := bw.Write(buf)
		return err
	})
	return bw.Flush()
}

func formatTriple(c [3]float64) string {
	return fmt.Sprintf("%.6f %.6f %.6f", c[0], c[1], c[2])
}
