package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/harvestiq/harvestiq/internal/models"
	"github.com/harvestiq/harvestiq/internal/store"
)

const version = "1.0.0"

// HealthHandler reports service and dependency status.
type HealthHandler struct {
	dbPath     string
	llmEnabled bool
	tableCount int
}

func NewHealthHandler(dbPath string, llmEnabled bool, tableCount int) *HealthHandler {
	return &HealthHandler{dbPath: dbPath, llmEnabled: llmEnabled, tableCount: tableCount}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"llm":      boolStatus(h.llmEnabled),
		"metadata": boolStatus(h.tableCount > 0),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks["store"] = "ok"
	db, err := store.Open(h.dbPath)
	if err != nil {
		checks["store"] = "unavailable"
	} else {
		if err := db.Ping(ctx); err != nil {
			checks["store"] = "unavailable"
		}
		db.Close()
	}

	status := "healthy"
	code := http.StatusOK
	if checks["store"] != "ok" {
		status = "degraded"
	}

	models.WriteJSON(w, code, models.HealthResponse{
		Status:  status,
		Version: version,
		Checks:  checks,
	})
}

func boolStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "disabled"
}
