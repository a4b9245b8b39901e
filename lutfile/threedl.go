package lutfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// commonSizes are tried when the row count is not a perfect cube, in case a
// few header rows happen to hold three numbers.
var commonSizes = []int{65, 33, 32, 17}

const threeDLScale = 1023

func decode3DL(data []byte, format Format) (*Record, error) {
	var rows [][3]float64
	for line := range lines(data) {
		c, ok := triple(strings.Fields(line))
		if !ok {
			// shaper line, keywords or junk
			continue
		}
		rows = append(rows, c)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrParse)
	}

	size, ok := cubeRoot(len(rows))
	if !ok {
		size = 0
		for _, n := range commonSizes {
			if extra := len(rows) - n*n*n; extra > 0 && extra < n {
				size = n
				rows = rows[extra:]
				break
			}
		}
		if size == 0 {
			return nil, fmt.Errorf("%w: cannot infer a size from %d rows", ErrParse, len(rows))
		}
	}

	peak := math.Inf(-1)
	for _, c := range rows {
		peak = max(peak, c[0], c[1], c[2])
	}
	if peak > 1 {
		div := integerScale(peak)
		for i := range rows {
			for k := range 3 {
				rows[i][k] /= div
			}
		}
	}

	rec := &Record{
		Table:     fill(size, rows),
		Size:      size,
		DomainMax: [3]float64{1, 1, 1},
		Format:    format,
	}
	return rec, nil
}

// integerScale picks the full-scale value of integer 3dl data from its
// largest entry: 10, 12 or 16 bits.
func integerScale(peak float64) float64 {
	switch {
	case peak <= 1023:
		return 1023
	case peak <= 4095:
		return 4095
	default:
		return 65535
	}
}

func encode3DL(w io.Writer, rec *Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Created by lutgrade")

	// No shaper line: readers that take every numeric row as data would
	// miscount the grid.

	buf := make([]byte, 0, 32)
	each(rec.Table, func(c [3]float64) error {
		buf = buf[:0]
		for k := range 3 {
			if k > 0 {
				buf = append(buf, ' ')
			}
			v := min(max(c[k], 0), 1)
			buf = strconv.AppendInt(buf, int64(math.Round(v*threeDLScale)), 10)
		}
		buf = append(buf, '\n')
		_, err := bw.Write(buf)
		return err
	})
	return bw.Flush()
}
