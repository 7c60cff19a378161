package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/popkes/cinematch/internal/engine"
	"github.com/popkes/cinematch/internal/llm"
	"github.com/popkes/cinematch/internal/storage"
	"github.com/popkes/cinematch/pkg/types"
)

// RecommenderService is the slice of the engine the API handlers need.
type RecommenderService interface {
	Ingest(ctx context.Context, movies []*types.Movie) ([]types.UpsertedMovie, error)
	Recommend(ctx context.Context, params engine.RecommendParams) ([]types.Candidate, error)
}

// BreakerReporter is implemented by provider clients that expose their
// circuit breaker state for health reporting.
type BreakerReporter interface {
	BreakerState() string
}

// APIHandlers holds the handlers for the CineMatch REST API.
type APIHandlers struct {
	recommender RecommenderService
	store       storage.CatalogStore
	embedder    llm.EmbeddingGenerator
	hub         *WebSocketHub
}

// NewAPIHandlers creates the API handlers. The hub may be nil; activity
// events are then simply not broadcast.
func NewAPIHandlers(recommender RecommenderService, store storage.CatalogStore, embedder llm.EmbeddingGenerator, hub *WebSocketHub) *APIHandlers {
	return &APIHandlers{
		recommender: recommender,
		store:       store,
		embedder:    embedder,
		hub:         hub,
	}
}

// Health handles GET /health.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{OK: true}

	if h.store != nil {
		if n, err := h.store.Count(r.Context()); err == nil {
			resp.Movies = n
		}
	}
	if h.embedder != nil {
		resp.Embedder = h.embedder.GetModel()
		if br, ok := h.embedder.(BreakerReporter); ok {
			resp.Breaker = br.BreakerState()
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Ingest handles POST /api/ingest: canonicalize, embed and upsert a batch of
// movies. The whole batch fails together — a provider or store error leaves
// nothing persisted.
func (h *APIHandlers) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", err)
		return
	}

	started := time.Now()
	affected, err := h.recommender.Ingest(r.Context(), req.Items)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	ids := make([]string, len(affected))
	for i, row := range affected {
		ids[i] = row.ID
	}

	if h.hub != nil {
		h.hub.Broadcast(ActivityEvent{
			Type:    "ingest",
			Count:   len(affected),
			Elapsed: time.Since(started).Round(time.Millisecond).String(),
		})
	}

	respondJSON(w, http.StatusOK, IngestResponse{Inserted: len(affected), IDs: ids})
}

// Recommend handles POST /api/recommend: embed the answer profile, run the
// similarity search, window the results and optionally annotate them with
// rerank explanations. An empty result set is a valid 200 response.
func (h *APIHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", err)
		return
	}

	params := engine.RecommendParams{
		Answers:   req.Answers,
		TopN:      engine.DefaultTopN,
		Offset:    0,
		Threshold: engine.DefaultThreshold,
		Rerank:    req.Rerank,
	}
	if req.TopN != nil {
		params.TopN = *req.TopN
	}
	if req.Offset != nil {
		params.Offset = *req.Offset
	}
	if req.Threshold != nil {
		params.Threshold = *req.Threshold
	}

	started := time.Now()
	results, err := h.recommender.Recommend(r.Context(), params)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	if results == nil {
		results = []types.Candidate{}
	}

	if h.hub != nil {
		h.hub.Broadcast(ActivityEvent{
			Type:    "recommend",
			Count:   len(results),
			Elapsed: time.Since(started).Round(time.Millisecond).String(),
		})
	}

	respondJSON(w, http.StatusOK, RecommendResponse{Results: results})
}

// respondPipelineError maps pipeline errors onto status codes and
// machine-readable kinds.
func respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, storage.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "VALIDATION", "invalid input", err)
	case errors.Is(err, llm.ErrProvider):
		respondError(w, http.StatusInternalServerError, "PROVIDER", "model provider failure", err)
	case errors.Is(err, storage.ErrUnavailable):
		respondError(w, http.StatusInternalServerError, "STORE", "catalog store failure", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error", err)
	}
}
