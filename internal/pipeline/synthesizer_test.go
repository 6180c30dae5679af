package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wheatResult() ExecutionResult {
	data := []map[string]interface{}{
		{"State": "Punjab", "Production": 500.0, "Crop_Year": int64(2014)},
		{"State": "Uttar Pradesh", "Production": 450.0, "Crop_Year": int64(2014)},
	}
	return ExecutionResult{
		Data:          data,
		Columns:       []string{"State", "Production", "Crop_Year"},
		QueryPlan:     QueryPlan{TargetTable: "crop_yield", Intent: QueryIntent{IntentType: IntentIdentify}},
		ExecutionTime: 0.012,
		RowCount:      len(data),
		SourceMetadata: map[string]interface{}{
			"table": "crop_yield", "url": "N/A", "file": "crop_yield.csv",
			"query": "SELECT ...", "parameters": []interface{}{"Wheat", 2014},
		},
	}
}

func TestSynthesize(t *testing.T) {
	fake := &fakeLLM{responses: []string{`{
		"answer": "Punjab led wheat production in 2014 with 500 tonnes.",
		"key_findings": ["Punjab: 500 tonnes", "Uttar Pradesh: 450 tonnes"],
		"visualization": {"result_index": 0, "type": "bar", "x": "State", "y": "Production", "title": "Wheat production by state"},
		"limitations": "Data only covers 2014."
	}`}}
	s := NewSynthesizer(fake)

	out := s.Synthesize(context.Background(), "q", QueryIntent{IntentType: IntentIdentify}, []ExecutionResult{wheatResult()}, NewTrace())

	assert.Equal(t, "Punjab led wheat production in 2014 with 500 tonnes.", out.Answer)
	assert.Len(t, out.KeyFindings, 2)
	assert.Equal(t, "Data only covers 2014.", out.Limitations)
	require.NotNil(t, out.Visualization)
	assert.Equal(t, "bar", out.Visualization.Type)
	assert.Equal(t, "State", out.Visualization.X)
}

func TestSynthesizeFallback(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeLLM
	}{
		{"transport error", &fakeLLM{errs: []error{errors.New("overloaded")}}},
		{"wrong shape", &fakeLLM{responses: []string{`{"answer": 12345}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewSynthesizer(tt.fake).Synthesize(context.Background(), "q", DefaultIntent(), []ExecutionResult{wheatResult()}, NewTrace())
			assert.Equal(t, synthesisFallbackAnswer, out.Answer)
			assert.NotEmpty(t, out.Limitations, "the error is surfaced as a limitation")
			require.NotNil(t, out.KeyFindings)
			assert.Empty(t, out.KeyFindings)
		})
	}
}

func TestSynthesizeEmptyAnswer(t *testing.T) {
	fake := &fakeLLM{responses: []string{`{"answer": "", "key_findings": ["still here"]}`}}
	out := NewSynthesizer(fake).Synthesize(context.Background(), "q", DefaultIntent(), []ExecutionResult{wheatResult()}, NewTrace())
	assert.Equal(t, synthesisFallbackAnswer, out.Answer)
	assert.Equal(t, []string{"still here"}, out.KeyFindings)
}

func TestValidateVisualization(t *testing.T) {
	results := []ExecutionResult{wheatResult()}

	tests := []struct {
		name string
		raw  string
		keep bool
	}{
		{"valid bar", `{"result_index": 0, "type": "bar", "x": "State", "y": "Production", "title": "t"}`, true},
		{"valid with color", `{"result_index": 0, "type": "scatter", "x": "Crop_Year", "y": "Production", "color": "State", "title": "t"}`, true},
		{"null", `null`, false},
		{"unsupported type", `{"result_index": 0, "type": "pie", "x": "State", "y": "Production", "title": "t"}`, false},
		{"index out of range", `{"result_index": 3, "type": "bar", "x": "State", "y": "Production", "title": "t"}`, false},
		{"negative index", `{"result_index": -1, "type": "bar", "x": "State", "y": "Production", "title": "t"}`, false},
		{"unknown x column", `{"result_index": 0, "type": "bar", "x": "Region", "y": "Production", "title": "t"}`, false},
		{"unknown color column", `{"result_index": 0, "type": "bar", "x": "State", "y": "Production", "color": "Zone", "title": "t"}`, false},
		{"malformed", `{"result_index": "zero"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validateVisualization([]byte(tt.raw), results, NewTrace())
			if tt.keep {
				assert.NotNil(t, spec)
			} else {
				assert.Nil(t, spec)
			}
		})
	}
}

func TestBuildDataContext(t *testing.T) {
	ctxText := buildDataContext(QueryIntent{IntentType: IntentIdentify}, []ExecutionResult{wheatResult()})

	assert.Contains(t, ctxText, "Result 1 (from crop_yield)")
	assert.Contains(t, ctxText, "Rows: 2")
	assert.Contains(t, ctxText, "Summary Statistics:")
	assert.Contains(t, ctxText, "Production")
	assert.Contains(t, ctxText, "First 2 rows:")
	assert.Contains(t, ctxText, "Punjab")
	assert.NotContains(t, ctxText, "Regression Analysis", "identify intent gets no trend enrichment")
}

func TestBuildDataContextTrendEnrichment(t *testing.T) {
	rows := []map[string]interface{}{
		{"Crop_Year": int64(2014), "Production": 100.0},
		{"Crop_Year": int64(2015), "Production": 120.0},
		{"Crop_Year": int64(2016), "Production": 140.0},
	}
	result := ExecutionResult{
		Data:           rows,
		Columns:        []string{"Crop_Year", "Production"},
		RowCount:       len(rows),
		SourceMetadata: map[string]interface{}{"table": "crop_yield"},
	}

	ctxText := buildDataContext(QueryIntent{IntentType: IntentAnalyze}, []ExecutionResult{result})
	assert.Contains(t, ctxText, "Regression Analysis:")
	assert.Contains(t, ctxText, "Trend for Production")
	assert.Contains(t, ctxText, "increasing")
}

func TestBuildDataContextEmptyResult(t *testing.T) {
	result := ExecutionResult{
		Columns:        []string{"State"},
		SourceMetadata: map[string]interface{}{"table": "crop_yield"},
	}
	ctxText := buildDataContext(DefaultIntent(), []ExecutionResult{result})
	assert.Contains(t, ctxText, "[No data returned]")
}
