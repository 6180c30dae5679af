package handler

import (
	"net/http"

	"github.com/harvestiq/harvestiq/internal/metadata"
	"github.com/harvestiq/harvestiq/internal/models"
)

// MetadataHandler exposes the introspected schema at GET /api/v1/metadata.
type MetadataHandler struct {
	meta *metadata.Store
}

func NewMetadataHandler(meta *metadata.Store) *MetadataHandler {
	return &MetadataHandler{meta: meta}
}

func (h *MetadataHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	resp := models.MetadataResponse{
		Tables: make(map[string]models.TableMetadataPayload),
		Status: "success",
	}

	for _, name := range h.meta.Tables() {
		t := h.meta.Table(name)
		resp.Tables[name] = models.TableMetadataPayload{
			Columns:     t.Columns,
			DateRange:   []interface{}{yearValue(t.MinYear), yearValue(t.MaxYear)},
			KeyColumns:  t.KeyColumns,
			Description: t.Description,
			SampleCount: len(t.SampleRows),
		}
	}

	models.WriteJSON(w, http.StatusOK, resp)
}

func yearValue(y *int) interface{} {
	if y == nil {
		return nil
	}
	return *y
}
