package models

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Question string `json:"question"`
}
