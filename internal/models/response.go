package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ResultPayload is the wire form of one execution result.
type ResultPayload struct {
	Data           []map[string]interface{} `json:"data"`
	RowCount       int                      `json:"row_count"`
	ExecutionTime  float64                  `json:"execution_time"`
	SourceMetadata map[string]interface{}   `json:"source_metadata"`
}

// QueryResponse is returned by POST /api/v1/query.
type QueryResponse struct {
	Answer        string          `json:"answer"`
	KeyFindings   []string        `json:"key_findings"`
	Visualization interface{}     `json:"visualization,omitempty"`
	Limitations   string          `json:"limitations,omitempty"`
	Citations     interface{}     `json:"citations"`
	Results       []ResultPayload `json:"results"`
	Logs          []string        `json:"logs"`
}

// TableMetadataPayload is one table entry in GET /api/v1/metadata.
type TableMetadataPayload struct {
	Columns     []string            `json:"columns"`
	DateRange   []interface{}       `json:"date_range"`
	KeyColumns  map[string][]string `json:"key_columns"`
	Description string              `json:"description"`
	SampleCount int                 `json:"sample_count"`
}

// MetadataResponse is returned by GET /api/v1/metadata.
type MetadataResponse struct {
	Tables map[string]TableMetadataPayload `json:"tables"`
	Status string                          `json:"status"`
}
