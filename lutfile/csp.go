package lutfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const cspMagic = "CSPLUTV100"

// decodeCSP reads the 3D variant of the CSP format. The grid size comes from
// the "N N N" line; when the data is fenced by BEGIN_DATA/END_DATA only the
// fenced rows count. The row count must agree with the declared size.
func decodeCSP(data []byte) (*Record, error) {
	rec := &Record{
		DomainMax: [3]float64{1, 1, 1},
		Format:    CSP,
	}

	const (
		header = iota
		metadata
		body
		fenced
		done
	)
	state := header
	first := true
	var declared int
	var rows [][3]float64
	for line := range lines(data) {
		if first {
			if line != cspMagic {
				return nil, fmt.Errorf("%w: missing %s header", ErrParse, cspMagic)
			}
			first = false
			continue
		}

		switch {
		case line == "BEGIN_METADATA":
			state = metadata
			continue
		case line == "END_METADATA":
			state = header
			continue
		case line == "BEGIN_DATA":
			rows = rows[:0]
			state = fenced
			continue
		case line == "END_DATA":
			state = done
			continue
		}

		switch state {
		case metadata:
			if rec.Title == "" {
				rec.Title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE"))
			}
		case header, body:
			if line == "1D" {
				return nil, fmt.Errorf("%w: 1D csp files", ErrUnsupportedFormat)
			}
			if n, ok := sizeLine(line); ok && declared == 0 {
				declared = n
				state = body
				continue
			}
			if state == body {
				if c, ok := triple(strings.Fields(line)); ok {
					rows = append(rows, c)
				}
			}
		case fenced:
			if c, ok := triple(strings.Fields(line)); ok {
				rows = append(rows, c)
			}
		}
	}
	if first {
		return nil, fmt.Errorf("%w: empty file", ErrParse)
	}

	inferred, cubic := cubeRoot(len(rows))
	switch {
	case declared == 0 && !cubic:
		return nil, fmt.Errorf("%w: no size line and %d rows is not a cube", ErrParse, len(rows))
	case declared == 0:
		declared = inferred
	case declared*declared*declared != len(rows):
		return nil, fmt.Errorf("%w: size %d needs %d rows, found %d", ErrSizeMismatch, declared, declared*declared*declared, len(rows))
	}

	rec.Size = declared
	rec.Table = fill(declared, rows)
	return rec, nil
}

// sizeLine matches "N N N" with three equal integers.
func sizeLine(line string) (int, bool) {
	f := strings.Fields(line)
	if len(f) != 3 || f[0] != f[1] || f[1] != f[2] {
		return 0, false
	}
	n, err := strconv.Atoi(f[0])
	return n, err == nil && n >= 2
}

func encodeCSP(w io.Writer, rec *Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n3D\n\n", cspMagic)
	if rec.Title != "" {
		fmt.Fprintf(bw, "BEGIN_METADATA\n%s\nEND_METADATA\n\n", rec.Title)
	}
	// identity pre-LUT per channel
	for range 3 {
		fmt.Fprint(bw, "2\n0.0 1.0\n0.0 1.0\n")
	}
	n := rec.Table.Size
	fmt.Fprintf(bw, "\n%d %d %d\nBEGIN_DATA\n", n, n, n)

	buf := make([]byte, 0, 64)
	each(rec.Table, func(c [3]float64) error {
		buf = buf[:0]
		for k := range 3 {
			if k > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, c[k], 'f', 6, 64)
		}
		buf = append(buf, '\n')
		_, err := bw.Write(buf)
		return err
	})
	fmt.Fprintln(bw, "END_DATA")
	return bw.Flush()
}
