package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger records pipeline requests with hashed identifiers so logs can
// be correlated without storing raw questions or keys.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogPipelineRequest records one full pipeline run.
func (a *AuditLogger) LogPipelineRequest(question, apiKey string, planCount, totalRows int, durationMs int64, success bool) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "pipeline_audit").
		Str("question_hash", hashStr(question)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Int("plan_count", planCount).
		Int("total_rows", totalRows).
		Int64("duration_ms", durationMs).
		Bool("success", success).
		Msg("audit")
}

// LogQuery records one executed plan.
func (a *AuditLogger) LogQuery(sql string, rowCount int, executionTimeMs int64, success bool, errMsg string) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "query_audit").
		Str("sql_hash", hashStr(sql)[:16]).
		Int("row_count", rowCount).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success)
	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
