package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestiq/harvestiq/internal/security"
)

func TestCorrectParameters(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		params []interface{}
		want   []interface{}
	}{
		{
			name:   "state corrected",
			sql:    "SELECT * FROM crop_yield WHERE State = ? AND Crop_Year = ?",
			params: []interface{}{"uttar pradesh", 2014},
			want:   []interface{}{"Uttar Pradesh", 2014},
		},
		{
			name:   "crop corrected",
			sql:    "SELECT * FROM crop_yield WHERE Crop = ?",
			params: []interface{}{"wheat"},
			want:   []interface{}{"Wheat"},
		},
		{
			name:   "already title case unchanged",
			sql:    "SELECT * FROM crop_yield WHERE State = ?",
			params: []interface{}{"Punjab"},
			want:   []interface{}{"Punjab"},
		},
		{
			name:   "uncased column untouched",
			sql:    "SELECT * FROM crop_yield WHERE Season = ?",
			params: []interface{}{"kharif"},
			want:   []interface{}{"kharif"},
		},
		{
			name:   "mixed cased and uncased columns scoped per placeholder",
			sql:    "SELECT * FROM crop_yield WHERE State = ? AND Season = ?",
			params: []interface{}{"punjab", "kharif"},
			want:   []interface{}{"Punjab", "kharif"},
		},
		{
			name:   "in list inherits the column decision",
			sql:    "SELECT * FROM crop_yield WHERE State IN (?, ?)",
			params: []interface{}{"punjab", "uttar pradesh"},
			want:   []interface{}{"Punjab", "Uttar Pradesh"},
		},
		{
			name:   "crop_year is not a crop column",
			sql:    "SELECT * FROM crop_yield WHERE Crop_Year = ?",
			params: []interface{}{"2014"},
			want:   []interface{}{"2014"},
		},
		{
			name:   "non-string parameters pass through",
			sql:    "SELECT * FROM crop_yield WHERE State = ? AND Production > ?",
			params: []interface{}{"assam", 100.5},
			want:   []interface{}{"Assam", 100.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CorrectParameters(tt.sql, tt.params)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrectParametersEmpty(t *testing.T) {
	got := CorrectParameters("SELECT 1", nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCorrectParametersIdempotent(t *testing.T) {
	sql := "SELECT * FROM crop_yield WHERE State = ? AND Crop = ?"
	params := []interface{}{"uttar pradesh", "wheat"}

	once := CorrectParameters(sql, params)
	twice := CorrectParameters(sql, once)
	assert.Equal(t, once, twice)
}

func newTestExecutor(dbPath string) *Executor {
	return NewExecutor(dbPath, testSources(), security.NewSQLValidator(), security.NewAuditLogger(false))
}

func TestExecutePlans(t *testing.T) {
	dbPath := seedDB(t)
	e := newTestExecutor(dbPath)

	plans := []QueryPlan{{
		SQLQuery:    "SELECT State, Production FROM crop_yield WHERE Crop = ? AND Crop_Year = ?",
		Parameters:  []interface{}{"wheat", 2014},
		TargetTable: "crop_yield",
		Intent:      QueryIntent{IntentType: IntentIdentify},
	}}

	results := e.ExecutePlans(context.Background(), plans, NewTrace())
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 2, r.RowCount)
	assert.Len(t, r.Data, r.RowCount)
	assert.Equal(t, []string{"State", "Production"}, r.Columns)
	assert.Equal(t, "crop_yield", r.SourceMetadata["table"])
	assert.Equal(t, "crop_yield.csv", r.SourceMetadata["file"])
	assert.Equal(t, []interface{}{"Wheat", 2014}, r.SourceMetadata["parameters"])
	assert.Greater(t, r.ExecutionTime, 0.0)
}

func TestExecutePlansPerPlanIsolation(t *testing.T) {
	dbPath := seedDB(t)
	e := newTestExecutor(dbPath)

	plans := []QueryPlan{
		{SQLQuery: "DROP TABLE crop_yield", TargetTable: "crop_yield"},
		{SQLQuery: "SELECT * FROM no_such_table", TargetTable: "crop_yield"},
		{
			SQLQuery:    "SELECT State FROM crop_yield WHERE Crop_Year = ?",
			Parameters:  []interface{}{2016},
			TargetTable: "crop_yield",
		},
	}

	trace := NewTrace()
	results := e.ExecutePlans(context.Background(), plans, trace)
	require.Len(t, results, 1, "good plan must survive two bad siblings")
	assert.Equal(t, 1, results[0].RowCount)

	// Rejected plan never reached the database.
	db := newTestExecutor(dbPath)
	again := db.ExecutePlans(context.Background(), plans[2:], NewTrace())
	require.Len(t, again, 1)
	assert.Equal(t, results[0].Data, again[0].Data)
}

func TestExecutePlansZeroRows(t *testing.T) {
	dbPath := seedDB(t)
	e := newTestExecutor(dbPath)

	plans := []QueryPlan{{
		SQLQuery:    "SELECT * FROM crop_yield WHERE Crop = ?",
		Parameters:  []interface{}{"saffron"},
		TargetTable: "crop_yield",
	}}

	results := e.ExecutePlans(context.Background(), plans, NewTrace())
	require.Len(t, results, 1, "zero rows is still a successful execution")
	assert.Equal(t, 0, results[0].RowCount)
	assert.Empty(t, results[0].Data)
}

func TestExecutePlansBadDatabase(t *testing.T) {
	e := newTestExecutor("/nonexistent/nowhere.db")

	plans := []QueryPlan{{
		SQLQuery:    "SELECT 1",
		TargetTable: "crop_yield",
	}}
	trace := NewTrace()
	results := e.ExecutePlans(context.Background(), plans, trace)
	assert.Empty(t, results)
	assert.NotEmpty(t, trace.Lines())
}
