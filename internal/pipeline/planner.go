package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harvestiq/harvestiq/internal/llm"
	"github.com/harvestiq/harvestiq/internal/metadata"
)

// Planner is stage 2: intent plus schema context to parameterized SQL plans.
type Planner struct {
	llm  llm.Client
	meta *metadata.Store
}

func NewPlanner(client llm.Client, meta *metadata.Store) *Planner {
	return &Planner{llm: client, meta: meta}
}

type planSpec struct {
	SQL             string        `json:"sql"`
	Parameters      []interface{} `json:"parameters"`
	TargetTable     string        `json:"target_table"`
	ExpectedColumns []string      `json:"expected_columns"`
	Reasoning       string        `json:"reasoning"`
}

type planPayload struct {
	QueryPlans []planSpec `json:"query_plans"`
}

// GeneratePlans asks the model for SQL query specifications. An empty list
// is the sanctioned "no retrievable plan" signal: malformed responses and
// transport errors both collapse to it.
func (p *Planner) GeneratePlans(ctx context.Context, intent QueryIntent, question string, trace *Trace) []QueryPlan {
	trace.Addf("Stage 2: Query Plan Generation...")

	tables := p.meta.RelevantTables(question)
	trace.Addf("Relevant tables: %v", tables)

	prompt := p.buildPrompt(intent, question, tables)

	raw, err := p.llm.CompleteJSON(ctx, "", prompt, 0.0)
	if err != nil {
		trace.Addf("Query planning failed: %v", err)
		log.Error().Err(err).Msg("query planning failed")
		return nil
	}

	var payload planPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		trace.Addf("Query planning failed: %v", err)
		log.Error().Err(err).Msg("query planning returned malformed plans")
		return nil
	}

	var plans []QueryPlan
	for _, spec := range payload.QueryPlans {
		if spec.SQL == "" || spec.TargetTable == "" {
			trace.Addf("Query planning failed: plan missing sql or target_table")
			log.Error().Msg("query plan missing required keys")
			return nil
		}

		// Advisory only: logged, never blocking.
		if hasUnquotedLiterals(spec.SQL) {
			trace.Addf("Warning: query has unquoted literals, likely will fail: %s", truncate(spec.SQL, 100))
			log.Warn().Str("sql", truncate(spec.SQL, 100)).Msg("suspicious unquoted literal in plan")
		}

		plans = append(plans, QueryPlan{
			SQLQuery:        spec.SQL,
			Parameters:      spec.Parameters,
			TargetTable:     spec.TargetTable,
			Intent:          intent,
			ExpectedColumns: spec.ExpectedColumns,
		})
		trace.Addf("Generated plan for '%s': %s", spec.TargetTable, truncate(spec.SQL, 80))
	}

	return plans
}

func (p *Planner) buildPrompt(intent QueryIntent, question string, tables []string) string {
	var schemaContext strings.Builder
	for _, t := range tables {
		schemaContext.WriteString(p.meta.TableSummary(t))
		schemaContext.WriteString(p.meta.CaseRules(t))
		schemaContext.WriteString("\n\n")
	}

	maxYear := "unknown"
	columns := "[]"
	if len(tables) > 0 {
		if t := p.meta.Table(tables[0]); t != nil {
			if t.MaxYear != nil {
				maxYear = fmt.Sprintf("%d", *t.MaxYear)
			}
			columns = fmt.Sprintf("%v", t.Columns)
		}
	}

	lastFiveExample := ""
	if len(tables) > 0 {
		if t := p.meta.Table(tables[0]); t != nil && t.MaxYear != nil {
			lastFiveExample = fmt.Sprintf("\n   - Example: \"last 5 years\" from %d means years >= %d",
				*t.MaxYear, lastNYearsFloor(*t.MaxYear, 5))
		}
	}

	return fmt.Sprintf(`You are an expert SQL query planner for agricultural data analysis.

USER QUESTION: %q

EXTRACTED INTENT:
- Type: %s
- Entities: %v
- Metrics: %v
- Constraints: %v
- Temporal Scope: %s

AVAILABLE TABLES & SCHEMA:
%s

Generate a JSON list of SQL query specifications needed to answer the question.

Response format:
{
    "query_plans": [
        {
            "sql": "SELECT ... FROM ... WHERE ...",
            "parameters": ["Assam", 2010],
            "target_table": "crop_yield",
            "expected_columns": ["State", "Crop", "Production", "Crop_Year"],
            "reasoning": "Why this query is needed"
        }
    ]
}

CRITICAL RULES FOR SQL GENERATION:
1. ALWAYS use parameterized queries with ? placeholders - NEVER put string values directly in SQL.
   CORRECT:   WHERE State = ? AND Crop = ?   with parameters ["Assam", "Rice"]
   WRONG:     WHERE State = Assam            (missing quotes, will fail)
   WRONG:     WHERE State = 'assam'          (wrong case, will fail)
2. Parameter casing: provide state and crop parameters in ANY case, casing is
   corrected to Title Case before execution. Years are numbers, no conversion.
3. For "last N years": calculate from the known max year (%s) as max_year - N + 1.%s
   Use: WHERE Crop_Year >= ? with the computed year as parameter.
4. Column names: use exact names from schema (case-sensitive): %s
5. Aggregations: use appropriate SQL functions (SUM, AVG, MAX, MIN, COUNT).
6. Every query must target one of the available tables.`,
		question, intent.IntentType, intent.Entities, intent.Metrics,
		intent.Constraints, intent.TemporalScope, schemaContext.String(),
		maxYear, lastFiveExample, columns)
}

// lastNYearsFloor is the documented translation rule for "last N years"
// temporal scopes: the inclusive lower bound relative to the known max year.
func lastNYearsFloor(maxYear, n int) int {
	return maxYear - n + 1
}

// unquotedLiteralRe flags "= WORD" where WORD is an uppercase bare word, the
// common model mistake of inlining an unquoted string literal.
var unquotedLiteralRe = regexp.MustCompile(`=\s*([A-Z][A-Z_]+)(?:\s|$|AND|OR)`)

var sqlKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"NOT": true, "NULL": true, "TRUE": true, "FALSE": true,
	"ASC": true, "DESC": true, "LIMIT": true, "OFFSET": true,
}

func hasUnquotedLiterals(sql string) bool {
	matches := unquotedLiteralRe.FindAllStringSubmatch(strings.ToUpper(sql), -1)
	for _, m := range matches {
		if !sqlKeywords[m[1]] {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
