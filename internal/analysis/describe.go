// Package analysis computes the descriptive statistics and regression
// summaries embedded in the answer-synthesis context. The math is delegated
// to gonum; this package only shapes it for prompt rendering.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Description holds the describe() style summary of one numeric column.
type Description struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe summarizes every numeric column found in the rows, in column order.
func Describe(columns []string, rows []map[string]interface{}) []Description {
	var out []Description
	for _, col := range columns {
		values := numericColumn(rows, col)
		if len(values) == 0 {
			continue
		}
		out = append(out, describeColumn(col, values))
	}
	return out
}

func describeColumn(col string, values []float64) Description {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	d := Description{
		Column: col,
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Q50:    stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	return d
}

// numericColumn extracts float values from a result column, skipping nulls
// and non-numeric cells.
func numericColumn(rows []map[string]interface{}, col string) []float64 {
	var out []float64
	for _, row := range rows {
		if v, ok := asFloat(row[col]); ok {
			out = append(out, v)
		}
	}
	return out
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// RenderDescriptions formats summaries in the compact table style the
// synthesis prompt expects.
func RenderDescriptions(descs []Description) string {
	if len(descs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("column | count | mean | std | min | 25% | 50% | 75% | max\n")
	for _, d := range descs {
		fmt.Fprintf(&sb, "%s | %d | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f\n",
			d.Column, d.Count, d.Mean, d.Std, d.Min, d.Q25, d.Q50, d.Q75, d.Max)
	}
	return sb.String()
}
