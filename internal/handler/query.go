package handler

import (
	"encoding/json"
	"net/http"

	"github.com/harvestiq/harvestiq/internal/models"
	"github.com/harvestiq/harvestiq/internal/pipeline"
	"github.com/harvestiq/harvestiq/internal/security"
)

// QueryHandler handles POST /api/v1/query: one question through the full
// pipeline.
type QueryHandler struct {
	pipe  *pipeline.Pipeline
	guard *security.PromptGuard
}

func NewQueryHandler(pipe *pipeline.Pipeline, guard *security.PromptGuard) *QueryHandler {
	return &QueryHandler{pipe: pipe, guard: guard}
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if errMsg := h.guard.Check(req.Question); errMsg != "" {
		models.WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	outcome := h.pipe.Answer(r.Context(), req.Question)

	resp := models.QueryResponse{
		Answer:      outcome.Synthesis.Answer,
		KeyFindings: outcome.Synthesis.KeyFindings,
		Limitations: outcome.Synthesis.Limitations,
		Citations:   outcome.Citations,
		Results:     make([]models.ResultPayload, 0, len(outcome.Results)),
		Logs:        outcome.Logs,
	}
	if outcome.Synthesis.Visualization != nil {
		resp.Visualization = outcome.Synthesis.Visualization
	}
	for _, r := range outcome.Results {
		data := r.Data
		if data == nil {
			data = []map[string]interface{}{}
		}
		resp.Results = append(resp.Results, models.ResultPayload{
			Data:           data,
			RowCount:       r.RowCount,
			ExecutionTime:  r.ExecutionTime,
			SourceMetadata: r.SourceMetadata,
		})
	}

	models.WriteJSON(w, http.StatusOK, resp)
}
