package pipeline

import "fmt"

// SourceCitation attributes retrieved rows to a configured data source.
type SourceCitation struct {
	Table         string `json:"table"`
	URL           string `json:"url"`
	File          string `json:"file"`
	RowsRetrieved int    `json:"rows_retrieved"`
}

// QueryCitation records the exact query that produced a result.
type QueryCitation struct {
	QueryID       int           `json:"query_id"`
	SQL           string        `json:"sql"`
	Parameters    []interface{} `json:"parameters"`
	ExecutionTime string        `json:"execution_time"`
	RowsReturned  int           `json:"rows_returned"`
}

// LineageEntry links a result back to the intent that requested it.
type LineageEntry struct {
	ResultID int    `json:"result_id"`
	Table    string `json:"table"`
	Intent   string `json:"intent"`
}

// Citations is the provenance record attached to a response.
type Citations struct {
	Sources     []SourceCitation `json:"sources"`
	Queries     []QueryCitation  `json:"queries"`
	DataLineage []LineageEntry   `json:"data_lineage"`
}

// EmptyCitations is used on the short-circuit branches.
func EmptyCitations() Citations {
	return Citations{
		Sources:     []SourceCitation{},
		Queries:     []QueryCitation{},
		DataLineage: []LineageEntry{},
	}
}

// GenerateCitations turns execution results into the citation record. Pure
// function: no I/O, deterministic for a given result list. Sources are
// deduplicated by structural equality.
func GenerateCitations(results []ExecutionResult) Citations {
	citations := EmptyCitations()

	for i, result := range results {
		source := SourceCitation{
			Table:         str(result.SourceMetadata["table"]),
			URL:           str(result.SourceMetadata["url"]),
			File:          str(result.SourceMetadata["file"]),
			RowsRetrieved: result.RowCount,
		}
		if !containsSource(citations.Sources, source) {
			citations.Sources = append(citations.Sources, source)
		}

		params, _ := result.SourceMetadata["parameters"].([]interface{})
		citations.Queries = append(citations.Queries, QueryCitation{
			QueryID:       i + 1,
			SQL:           str(result.SourceMetadata["query"]),
			Parameters:    params,
			ExecutionTime: fmt.Sprintf("%.3fs", result.ExecutionTime),
			RowsReturned:  result.RowCount,
		})

		citations.DataLineage = append(citations.DataLineage, LineageEntry{
			ResultID: i + 1,
			Table:    str(result.SourceMetadata["table"]),
			Intent:   result.QueryPlan.Intent.IntentType,
		})
	}

	return citations
}

func containsSource(sources []SourceCitation, s SourceCitation) bool {
	for _, existing := range sources {
		if existing == s {
			return true
		}
	}
	return false
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
