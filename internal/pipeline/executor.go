package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/harvestiq/harvestiq/internal/config"
	"github.com/harvestiq/harvestiq/internal/security"
	"github.com/harvestiq/harvestiq/internal/store"
)

// Executor is stage 3: casing correction, read-only execution, provenance
// capture. One read-only connection per batch, released on return.
//
// Batch policy: per-plan isolation. A failing plan is logged and skipped;
// the remaining plans still run and results accumulate.
type Executor struct {
	dbPath  string
	sources map[string]config.Source
	sqlVal  *security.SQLValidator
	audit   *security.AuditLogger
}

func NewExecutor(dbPath string, sources map[string]config.Source, sqlVal *security.SQLValidator, audit *security.AuditLogger) *Executor {
	return &Executor{dbPath: dbPath, sources: sources, sqlVal: sqlVal, audit: audit}
}

// ExecutePlans runs each plan in order and returns one ExecutionResult per
// successful plan.
func (e *Executor) ExecutePlans(ctx context.Context, plans []QueryPlan, trace *Trace) []ExecutionResult {
	trace.Addf("Stage 3: Executing %d query plans...", len(plans))

	db, err := store.Open(e.dbPath)
	if err != nil {
		trace.Addf("Execution error: %v", err)
		log.Error().Err(err).Msg("store open failed")
		return nil
	}
	defer db.Close()

	var results []ExecutionResult
	for i, plan := range plans {
		corrected := CorrectParameters(plan.SQLQuery, plan.Parameters)
		trace.Addf("Executing plan %d: %s | Params: %v", i+1, truncate(plan.SQLQuery, 80), corrected)

		if errMsg := e.sqlVal.Validate(plan.SQLQuery); errMsg != "" {
			trace.Addf("Plan %d rejected: %s", i+1, errMsg)
			log.Error().Str("reason", errMsg).Msg("plan failed SQL validation")
			e.audit.LogQuery(plan.SQLQuery, 0, 0, false, errMsg)
			continue
		}

		start := time.Now()
		rows, cols, err := db.Query(ctx, plan.SQLQuery, corrected...)
		elapsed := time.Since(start)
		if err != nil {
			trace.Addf("Plan %d failed: %v", i+1, err)
			log.Error().Err(err).Msg("plan execution failed")
			e.audit.LogQuery(plan.SQLQuery, 0, elapsed.Milliseconds(), false, err.Error())
			continue
		}

		src := e.sources[plan.TargetTable]
		results = append(results, ExecutionResult{
			Data:          rows,
			Columns:       cols,
			QueryPlan:     plan,
			ExecutionTime: elapsed.Seconds(),
			RowCount:      len(rows),
			SourceMetadata: map[string]interface{}{
				"table":      plan.TargetTable,
				"url":        src.URL,
				"file":       src.File,
				"query":      plan.SQLQuery,
				"parameters": corrected,
			},
		})
		e.audit.LogQuery(plan.SQLQuery, len(rows), elapsed.Milliseconds(), true, "")
		trace.Addf("Plan %d executed: %d rows in %.3fs", i+1, len(rows), elapsed.Seconds())
	}

	return results
}

// casedColumnRe captures the column name of the comparison immediately
// preceding a placeholder: "State = ?", "Crop IN (?", "crop_year >= ?" etc.
var casedColumnRe = regexp.MustCompile(`([a-z_][a-z0-9_]*)\s*(?:=|!=|<>|>=|<=|>|<|like|in\s*\()\s*$`)

// CorrectParameters applies Title Case normalization to string parameters
// bound to state/district/crop column comparisons. Each placeholder is
// scoped to the column named directly before it in the SQL text, so a query
// mixing a cased column (State) with an uncased one (Season) only corrects
// the parameters that actually filter the cased column.
func CorrectParameters(sql string, params []interface{}) []interface{} {
	if len(params) == 0 {
		return []interface{}{}
	}

	targets := titleCaseTargets(sql, len(params))
	corrected := make([]interface{}, len(params))
	for i, p := range params {
		s, isString := p.(string)
		if isString && i < len(targets) && targets[i] {
			corrected[i] = titleCase(s)
			continue
		}
		corrected[i] = p
	}
	return corrected
}

// titleCaseTargets decides, per placeholder, whether its value belongs to a
// Title Case column. Segments without a new column comparison (e.g. the tail
// of an IN list, or "BETWEEN ? AND ?") inherit the previous decision.
func titleCaseTargets(sql string, n int) []bool {
	segments := strings.Split(strings.ToLower(sql), "?")
	targets := make([]bool, n)
	current := false
	for i := 0; i < n && i < len(segments); i++ {
		if m := casedColumnRe.FindStringSubmatch(segments[i]); m != nil {
			current = isCasedColumn(m[1])
		}
		targets[i] = current
	}
	return targets
}

// isCasedColumn reports whether a column stores Title Case categorical
// values. Crop matches exactly so crop_year stays numeric-cased.
func isCasedColumn(col string) bool {
	if strings.Contains(col, "state") || strings.Contains(col, "district") {
		return true
	}
	return col == "crop" || col == "crop_name"
}

// titleCase uppercases the first letter of each alphabetic run and lowers
// the rest, matching the stored casing convention of the dataset.
func titleCase(s string) string {
	runes := []rune(s)
	prevLetter := false
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if prevLetter {
				runes[i] = unicode.ToLower(r)
			} else {
				runes[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(runes)
}
