// Package pipeline implements the four-stage question answering flow:
// intent extraction, SQL plan generation, read-only execution with
// provenance capture, and answer synthesis with citation tracking.
package pipeline

// Intent types recognized by the understanding stage.
const (
	IntentCompare   = "compare"
	IntentAnalyze   = "analyze"
	IntentIdentify  = "identify"
	IntentCorrelate = "correlate"
	IntentPolicy    = "policy"
	IntentLookup    = "lookup"
)

var validIntentTypes = map[string]bool{
	IntentCompare:   true,
	IntentAnalyze:   true,
	IntentIdentify:  true,
	IntentCorrelate: true,
	IntentPolicy:    true,
	IntentLookup:    true,
}

// QueryIntent is the structured classification of a user question.
type QueryIntent struct {
	IntentType    string                 `json:"intent_type"`
	Entities      []string               `json:"entities"`
	Metrics       []string               `json:"metrics"`
	Constraints   map[string]interface{} `json:"constraints"`
	TemporalScope string                 `json:"temporal_scope,omitempty"`
}

// DefaultIntent is the always-produce-something fallback: the pipeline never
// aborts at the understanding stage.
func DefaultIntent() QueryIntent {
	return QueryIntent{
		IntentType:  IntentLookup,
		Entities:    []string{},
		Metrics:     []string{},
		Constraints: map[string]interface{}{},
	}
}

// QueryPlan is one parameterized SQL statement plus its bound values.
// Parameter count is not validated against placeholder count up front; a
// mismatch surfaces as a query execution failure.
type QueryPlan struct {
	SQLQuery        string
	Parameters      []interface{}
	TargetTable     string
	Intent          QueryIntent
	ExpectedColumns []string // advisory only, never enforced
}

// ExecutionResult is one executed plan with its provenance. Immutable once
// created; row count always equals len(Data).
type ExecutionResult struct {
	Data           []map[string]interface{}
	Columns        []string
	QueryPlan      QueryPlan
	ExecutionTime  float64 // seconds
	RowCount       int
	SourceMetadata map[string]interface{}
}

// VisualizationSpec is an LLM-authored chart suggestion. It is validated
// against the result it references before being returned to callers.
type VisualizationSpec struct {
	ResultIndex int    `json:"result_index"`
	Type        string `json:"type"`
	X           string `json:"x"`
	Y           string `json:"y"`
	Color       string `json:"color,omitempty"`
	Title       string `json:"title"`
}

// Synthesis is the final answer produced by stage 4.
type Synthesis struct {
	Answer        string             `json:"answer"`
	KeyFindings   []string           `json:"key_findings"`
	Visualization *VisualizationSpec `json:"visualization,omitempty"`
	Limitations   string             `json:"limitations,omitempty"`
}
