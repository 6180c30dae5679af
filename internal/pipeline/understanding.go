package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harvestiq/harvestiq/internal/llm"
	"github.com/harvestiq/harvestiq/internal/metadata"
)

// Understanding is stage 1: free-text question to structured intent.
type Understanding struct {
	llm  llm.Client
	meta *metadata.Store
}

func NewUnderstanding(client llm.Client, meta *metadata.Store) *Understanding {
	return &Understanding{llm: client, meta: meta}
}

// intentPayload is the strict JSON shape requested from the model. Fields
// default individually; a missing intent_type falls back to lookup.
type intentPayload struct {
	IntentType    string                 `json:"intent_type"`
	Entities      []string               `json:"entities"`
	Metrics       []string               `json:"metrics"`
	Constraints   map[string]interface{} `json:"constraints"`
	TemporalScope *string                `json:"temporal_scope"`
}

// Parse extracts a QueryIntent from the question. Any failure (transport,
// malformed JSON, unknown intent type) degrades to the default lookup intent
// rather than propagating.
func (u *Understanding) Parse(ctx context.Context, question string, trace *Trace) QueryIntent {
	trace.Addf("Stage 1: Query Understanding & Intent Extraction...")

	prompt := u.buildPrompt(question)

	raw, err := u.llm.CompleteJSON(ctx, "", prompt, 0.0)
	if err != nil {
		trace.Addf("Intent extraction failed: %v", err)
		log.Error().Err(err).Msg("query understanding failed")
		return DefaultIntent()
	}

	var payload intentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		trace.Addf("Intent extraction failed: %v", err)
		log.Error().Err(err).Msg("query understanding returned malformed intent")
		return DefaultIntent()
	}

	intent := DefaultIntent()
	if validIntentTypes[payload.IntentType] {
		intent.IntentType = payload.IntentType
	}
	if payload.Entities != nil {
		intent.Entities = payload.Entities
	}
	if payload.Metrics != nil {
		intent.Metrics = payload.Metrics
	}
	if payload.Constraints != nil {
		intent.Constraints = payload.Constraints
	}
	if payload.TemporalScope != nil {
		intent.TemporalScope = *payload.TemporalScope
	}

	trace.Addf("Intent extracted: %s", intent.IntentType)
	return intent
}

func (u *Understanding) buildPrompt(question string) string {
	return fmt.Sprintf(`You are an expert query understanding system for agricultural data analysis.
Analyze the user's question and extract structured information.

USER QUESTION: %q

AVAILABLE DATA:
%s

Respond with JSON containing:
{
    "intent_type": "compare|analyze|identify|correlate|policy|lookup",
    "entities": ["state names", "crop names"],
    "metrics": ["production", "rainfall", "area", "yield", "fertilizer", "pesticide"],
    "constraints": {"year": "2018", "crop": "Rice"},
    "temporal_scope": "last 5 years" or "2010-2015" or "2018" or null
}

Rules:
1. intent_type: What is the user trying to do?
   - compare: comparing values across entities
   - analyze: trend analysis, patterns
   - identify: finding max/min/best
   - correlate: relationship between metrics
   - policy: recommendations, insights
   - lookup: simple fact retrieval
2. entities: Extract specific states, crops mentioned
3. metrics: What measurements are needed (production, rainfall, etc.)
4. constraints: Filters to apply (year ranges, specific crops, etc.)
5. temporal_scope: Time period described in natural language`,
		question, u.schemaContext())
}

// schemaContext is a one-line-per-table digest. Empty when no tables are
// registered; the prompt still works, the model just has no schema hints.
func (u *Understanding) schemaContext() string {
	var sb strings.Builder
	for _, name := range u.meta.Tables() {
		t := u.meta.Table(name)
		fmt.Fprintf(&sb, "\n%s: %s (Years: %s-%s)", name, t.Description,
			yearOrUnknown(t.MinYear), yearOrUnknown(t.MaxYear))
	}
	return sb.String()
}

func yearOrUnknown(y *int) string {
	if y == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *y)
}
