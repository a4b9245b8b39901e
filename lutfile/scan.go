package lutfile

import (
	"bufio"
	"bytes"
	"iter"
	"strconv"
	"strings"
)

const maxLine = 1 << 20

// lines yields trimmed, non-empty lines that are not '#' comments.
func lines(data []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || line[0] == '#' {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// triple parses exactly three numeric fields.
func triple(fields []string) ([3]float64, bool) {
	var v [3]float64
	if len(fields) != 3 {
		return v, false
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v, false
		}
		v[i] = x
	}
	return v, true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
