package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Trend is a least-squares fit of a metric over years.
type Trend struct {
	Slope       float64
	Intercept   float64
	Correlation float64
	Direction   string
}

// FitTrend regresses values against years. Needs at least two points.
func FitTrend(years, values []float64) (Trend, bool) {
	if len(years) < 2 || len(years) != len(values) {
		return Trend{}, false
	}
	alpha, beta := stat.LinearRegression(years, values, nil, false)
	r := stat.Correlation(years, values, nil)
	dir := "increasing"
	if beta < 0 {
		dir = "decreasing"
	}
	return Trend{Slope: beta, Intercept: alpha, Correlation: r, Direction: dir}, true
}

// Pearson computes the correlation between two metrics and classifies its
// strength the way the answer prompts describe it. Needs at least three
// points to be meaningful.
func Pearson(x, y []float64) (r float64, strength, direction string, ok bool) {
	if len(x) < 3 || len(x) != len(y) {
		return 0, "", "", false
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, "", "", false
	}
	switch {
	case math.Abs(r) > 0.7:
		strength = "strong"
	case math.Abs(r) > 0.3:
		strength = "moderate"
	default:
		strength = "weak"
	}
	direction = "positive"
	if r < 0 {
		direction = "negative"
	}
	return r, strength, direction, true
}

// TrendContext renders regression/correlation enrichment for one result when
// its rows carry a year column plus numeric metrics. Returns "" when nothing
// can be fitted.
func TrendContext(columns []string, rows []map[string]interface{}) string {
	yearCol := ""
	for _, c := range columns {
		if isYearColumn(c) {
			yearCol = c
			break
		}
	}
	if yearCol == "" {
		return ""
	}
	years := numericColumn(rows, yearCol)
	if len(years) < 2 {
		return ""
	}

	out := ""
	for _, c := range columns {
		if c == yearCol {
			continue
		}
		values := numericColumn(rows, c)
		if len(values) != len(years) {
			continue
		}
		if t, ok := FitTrend(years, values); ok {
			out += fmt.Sprintf("Trend for %s: slope=%.4f per year (%s), r=%.3f\n",
				c, t.Slope, t.Direction, t.Correlation)
		}
	}
	return out
}

func isYearColumn(c string) bool {
	switch c {
	case "Crop_Year", "crop_year", "Year", "year":
		return true
	}
	return false
}
