package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harvestiq/harvestiq/internal/analysis"
	"github.com/harvestiq/harvestiq/internal/llm"
)

const previewRowLimit = 10

const synthesisFallbackAnswer = "Unable to generate answer due to synthesis error."

// Synthesizer is stage 4: execution results to a prose answer with key
// findings and an optional, validated chart suggestion.
type Synthesizer struct {
	llm llm.Client
}

func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{llm: client}
}

type synthesisPayload struct {
	Answer        string          `json:"answer"`
	KeyFindings   []string        `json:"key_findings"`
	Visualization json.RawMessage `json:"visualization"`
	Limitations   string          `json:"limitations"`
}

// Synthesize builds the data context and asks the model for the final
// answer. Failures return a fixed fallback with the error as limitations;
// the exception never propagates.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, intent QueryIntent, results []ExecutionResult, trace *Trace) Synthesis {
	trace.Addf("Stage 4: Answer Synthesis...")

	prompt := s.buildPrompt(question, intent, results)

	raw, err := s.llm.CompleteJSON(ctx, "", prompt, 0.1)
	if err != nil {
		trace.Addf("Synthesis error: %v", err)
		log.Error().Err(err).Msg("answer synthesis failed")
		return Synthesis{Answer: synthesisFallbackAnswer, KeyFindings: []string{}, Limitations: err.Error()}
	}

	var payload synthesisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		trace.Addf("Synthesis error: %v", err)
		log.Error().Err(err).Msg("answer synthesis returned malformed JSON")
		return Synthesis{Answer: synthesisFallbackAnswer, KeyFindings: []string{}, Limitations: err.Error()}
	}

	out := Synthesis{
		Answer:      payload.Answer,
		KeyFindings: payload.KeyFindings,
		Limitations: payload.Limitations,
	}
	if out.Answer == "" {
		out.Answer = synthesisFallbackAnswer
	}
	if out.KeyFindings == nil {
		out.KeyFindings = []string{}
	}
	out.Visualization = validateVisualization(payload.Visualization, results, trace)

	trace.Addf("Answer synthesized successfully")
	return out
}

// validateVisualization treats the chart spec as untrusted input: the model
// wrote the SQL and the chart suggestion independently, so the referenced
// result and columns may not exist. Invalid specs are dropped, not rendered.
func validateVisualization(raw json.RawMessage, results []ExecutionResult, trace *Trace) *VisualizationSpec {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var spec VisualizationSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		trace.Addf("Visualization dropped: malformed spec: %v", err)
		return nil
	}

	if spec.Type != "bar" && spec.Type != "line" && spec.Type != "scatter" {
		trace.Addf("Visualization dropped: unsupported chart type %q", spec.Type)
		return nil
	}
	if spec.ResultIndex < 0 || spec.ResultIndex >= len(results) {
		trace.Addf("Visualization dropped: result index %d out of range", spec.ResultIndex)
		return nil
	}

	cols := make(map[string]bool)
	for _, c := range results[spec.ResultIndex].Columns {
		cols[c] = true
	}
	for _, required := range []string{spec.X, spec.Y} {
		if required == "" || !cols[required] {
			trace.Addf("Visualization dropped: column %q not in result %d", required, spec.ResultIndex)
			return nil
		}
	}
	if spec.Color != "" && !cols[spec.Color] {
		trace.Addf("Visualization dropped: color column %q not in result %d", spec.Color, spec.ResultIndex)
		return nil
	}

	return &spec
}

func (s *Synthesizer) buildPrompt(question string, intent QueryIntent, results []ExecutionResult) string {
	return fmt.Sprintf(`You are an expert agricultural data analyst for India.
Provide a comprehensive, data-driven answer based ONLY on the provided execution results.

USER QUESTION: %q

QUERY INTENT: %s
ENTITIES ANALYZED: %s
METRICS: %s

DATA RESULTS:
%s

Generate a JSON response:
{
    "answer": "Comprehensive markdown-formatted answer with insights",
    "key_findings": ["Finding 1", "Finding 2", "Finding 3"],
    "visualization": {
        "result_index": 0,
        "type": "bar|line|scatter",
        "x": "column_name",
        "y": "column_name",
        "color": "optional_column",
        "title": "Chart title"
    } or null,
    "limitations": "Any data limitations or caveats"
}

INSTRUCTIONS:
1. Start with a direct answer to the question
2. Include specific numbers and time periods from the data
3. For trends: describe patterns, compare values
4. For correlations: mention relationships observed
5. For policy questions: provide data-backed recommendations
6. If data is insufficient, state what's missing (e.g., "Data only available until 2018")
7. Suggest a visualization only if the data supports it
8. Use markdown formatting: **bold**, *italic*, bullet points
9. Be precise with units (tonnes for Production, mm for Rainfall, hectares for Area)
10. Never use outside knowledge; answer only from the data above`,
		question, intent.IntentType,
		orNA(strings.Join(intent.Entities, ", ")),
		orNA(strings.Join(intent.Metrics, ", ")),
		buildDataContext(intent, results))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// buildDataContext renders each result as row count + timing + descriptive
// statistics + a CSV preview, with regression enrichment for analyze and
// correlate intents.
func buildDataContext(intent QueryIntent, results []ExecutionResult) string {
	var sb strings.Builder
	for i, result := range results {
		fmt.Fprintf(&sb, "\n--- Result %d (from %v) ---\n", i+1, result.SourceMetadata["table"])
		fmt.Fprintf(&sb, "Rows: %d | Execution time: %.3fs\n", result.RowCount, result.ExecutionTime)

		if result.RowCount == 0 {
			sb.WriteString("[No data returned]\n")
			continue
		}

		if stats := analysis.RenderDescriptions(analysis.Describe(result.Columns, result.Data)); stats != "" {
			sb.WriteString("\nSummary Statistics:\n")
			sb.WriteString(stats)
		}

		if intent.IntentType == IntentAnalyze || intent.IntentType == IntentCorrelate {
			if trend := analysis.TrendContext(result.Columns, result.Data); trend != "" {
				sb.WriteString("\nRegression Analysis:\n")
				sb.WriteString(trend)
			}
		}

		n := result.RowCount
		if n > previewRowLimit {
			n = previewRowLimit
		}
		fmt.Fprintf(&sb, "\nFirst %d rows:\n", n)
		sb.WriteString(renderCSV(result.Columns, result.Data[:n]))
	}
	return sb.String()
}

func renderCSV(columns []string, rows []map[string]interface{}) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(columns)
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			record[i] = fmt.Sprint(row[c])
		}
		w.Write(record)
	}
	w.Flush()
	return sb.String()
}
