package http

import "github.com/wattlelabs/advisord/internal/retrieval"

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	Query          string `json:"query"`
	K              int    `json:"k"`
	FilterSource   string `json:"filter_source"`
	FilterType     string `json:"filter_type"`
	FilterUnitCode string `json:"filter_unit_code"`
}

// QueryResponse is the response body for POST /api/v1/query.
type QueryResponse struct {
	Results []retrieval.Result `json:"results"`
	Count   int                `json:"count"`
}

// IngestResponse is the response body for POST /api/v1/ingest.
type IngestResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}
