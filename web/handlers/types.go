package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/popkes/cinematch/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// IngestRequest is the request format for POST /api/ingest.
type IngestRequest struct {
	Items []*types.Movie `json:"items"`
}

// IngestResponse is the response format for POST /api/ingest.
type IngestResponse struct {
	Inserted int      `json:"inserted"`
	IDs      []string `json:"ids"`
}

// RecommendRequest is the request format for POST /api/recommend.
// Optional knobs are pointers so "absent" and "zero" stay distinguishable;
// absent fields get the documented defaults.
type RecommendRequest struct {
	Answers   []string `json:"answers"`
	TopN      *int     `json:"topN,omitempty"`
	Offset    *int     `json:"offset,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Rerank    bool     `json:"rerank,omitempty"`
}

// RecommendResponse is the response format for POST /api/recommend.
type RecommendResponse struct {
	Results []types.Candidate `json:"results"`
}

// HealthResponse is the response format for GET /health.
type HealthResponse struct {
	OK       bool   `json:"ok"`
	Movies   int    `json:"movies"`
	Embedder string `json:"embedder,omitempty"`
	Breaker  string `json:"breaker,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more to do than note it.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code and
// machine-readable code.
func respondError(w http.ResponseWriter, statusCode int, code, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  code,
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}
