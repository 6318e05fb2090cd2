package recording

import (
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// tableBuilder accumulates numeric columns row by row. Leading rows that do not
// start with a number are header rows; the last one names the columns.
type tableBuilder struct {
	op      string
	header  []string
	columns [][]float64
}

func newTableBuilder(op string) *tableBuilder {
	return &tableBuilder{op: op}
}

// add appends one row. line is 1-based and only used in errors.
func (tb *tableBuilder) add(fields []string, line int) error {
	if isBlank(fields) {
		return nil
	}

	if tb.columns == nil {
		if _, err := parseField(fields[0]); err != nil {
			tb.header = trimAll(fields)
			return nil
		}
		if len(fields) < 2 {
			return common.InvalidInput(tb.op, "line %d: need a time column and at least one current column, got %d columns", line, len(fields))
		}
		tb.columns = make([][]float64, len(fields))
	}

	if len(fields) != len(tb.columns) {
		return common.InvalidInput(tb.op, "line %d: expected %d columns, got %d", line, len(tb.columns), len(fields))
	}

	for i, field := range fields {
		v, err := parseField(field)
		if err != nil {
			return common.InvalidInput(tb.op, "line %d, column %d: %q is not a number", line, i+1, field)
		}
		tb.columns[i] = append(tb.columns[i], v)
	}
	return nil
}

// sweeps converts the accumulated columns. timeScale multiplies the time column and
// sign multiplies every current column.
func (tb *tableBuilder) sweeps(timeScale, sign float64) ([]float64, []Sweep, error) {
	if tb.columns == nil {
		return nil, nil, common.InvalidInput(tb.op, "no numeric rows")
	}

	times := tb.columns[0]
	if timeScale != 1 {
		for i := range times {
			times[i] *= timeScale
		}
	}

	sweeps := make([]Sweep, 0, len(tb.columns)-1)
	for i, col := range tb.columns[1:] {
		if sign != 1 {
			for j := range col {
				col[j] *= sign
			}
		}
		sweeps = append(sweeps, Sweep{
			Index:      i,
			Name:       tb.columnName(i + 1),
			Times:      times,
			Amplitudes: col,
		})
	}
	return times, sweeps, nil
}

func (tb *tableBuilder) columnName(col int) string {
	if col < len(tb.header) && tb.header[col] != "" {
		return tb.header[col]
	}
	return defaultSweepName(col - 1)
}

func parseField(field string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(field), 64)
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
