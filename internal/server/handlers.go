package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/listmagify/recs-engine/internal/catalog"
	"github.com/listmagify/recs-engine/internal/dismissal"
	"github.com/listmagify/recs-engine/internal/ingest"
	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/query"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

func toTrackIDs(ids []string) []models.TrackID {
	out := make([]models.TrackID, len(ids))
	for i, id := range ids {
		out[i] = models.TrackID(id)
	}
	return out
}

// CaptureHandler serves POST /recs/capture. Ingestion runs on the shared
// Pool so a burst of capture requests can't spawn unbounded concurrent
// writers against the store.
type CaptureHandler struct {
	Ingestor *ingest.Ingestor
	Pool     *Pool
}

func (h *CaptureHandler) Routes() []string { return []string{"/recs/capture"} }

func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrInvalidInput)
		return
	}

	tracks := make([]models.Track, len(req.Tracks))
	for i, t := range req.Tracks {
		tracks[i] = t.toModel()
	}

	result, err := h.capture(r, ingest.CaptureRequest{
		PlaylistID:       req.PlaylistID,
		Tracks:           tracks,
		CooccurrenceOnly: req.CooccurrenceOnly,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, captureResponse{
		Success: true,
		Enabled: true,
		Stats: captureStats{
			TracksCaptured:    int64(result.TracksCaptured),
			AdjacencyEdges:    int64(result.AdjacencyEdges),
			CooccurrenceEdges: int64(result.CooccurrenceEdges),
		},
	})
}

// capture submits the ingest work to the pool and waits for either the
// worker to finish or the request's deadline to expire.
func (h *CaptureHandler) capture(r *http.Request, req ingest.CaptureRequest) (ingest.CaptureResult, error) {
	type outcome struct {
		result ingest.CaptureResult
		err    error
	}
	done := make(chan outcome, 1)
	h.Pool.Submit(func() {
		result, err := h.Ingestor.CaptureAndUpdateEdges(r.Context(), req)
		done <- outcome{result, err}
	})

	select {
	case out := <-done:
		return out.result, out.err
	case <-r.Context().Done():
		return ingest.CaptureResult{}, shared.ErrCancelled
	}
}

// SeedHandler serves POST /recs/seed.
type SeedHandler struct {
	Engine   *query.Engine
	Enricher *catalog.Enricher
}

func (h *SeedHandler) Routes() []string { return []string{"/recs/seed"} }

func (h *SeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrInvalidInput)
		return
	}

	result, err := h.Engine.SeedRecommendations(
		r.Context(),
		toTrackIDs(req.SeedTrackIDs),
		toTrackIDs(req.ExcludeTrackIDs),
		req.PlaylistID,
		req.TopN,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	recs := result.Recommendations
	if req.IncludeMetadata {
		recs = h.Enricher.Enrich(r.Context(), recs)
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{
		Recommendations: toRecommendationDTOs(recs),
		Enabled:         true,
		Message:         result.Message,
	})
}

// AppendixHandler serves POST|GET /recs/playlist-appendix.
type AppendixHandler struct {
	Engine   *query.Engine
	Enricher *catalog.Enricher
}

func (h *AppendixHandler) Routes() []string { return []string{"/recs/playlist-appendix"} }

func (h *AppendixHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req appendixRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.PlaylistID = q.Get("playlistId")
		if ids := q.Get("trackIds"); ids != "" {
			req.TrackIDs = strings.Split(ids, ",")
		}
		if topN := q.Get("topN"); topN != "" {
			n, err := strconv.Atoi(topN)
			if err != nil {
				writeError(w, shared.ErrInvalidInput)
				return
			}
			req.TopN = n
		}
		req.IncludeMetadata = q.Get("includeMetadata") == "true"
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, shared.ErrInvalidInput)
			return
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if req.PlaylistID == "" {
		writeError(w, shared.ErrInvalidInput)
		return
	}

	result, err := h.Engine.AppendixRecommendations(r.Context(), req.PlaylistID, toTrackIDs(req.TrackIDs), req.TopN)
	if err != nil {
		writeError(w, err)
		return
	}

	recs := result.Recommendations
	if req.IncludeMetadata {
		recs = h.Enricher.Enrich(r.Context(), recs)
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{
		Recommendations: toRecommendationDTOs(recs),
		Enabled:         true,
		Message:         result.Message,
	})
}

// DismissHandler serves POST /recs/dismiss and DELETE /recs/dismiss.
type DismissHandler struct {
	Service *dismissal.Service
}

func (h *DismissHandler) Routes() []string { return []string{"/recs/dismiss"} }

func (h *DismissHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req dismissRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, shared.ErrInvalidInput)
			return
		}
		if req.TrackID == "" {
			writeError(w, shared.ErrInvalidInput)
			return
		}
		if err := h.Service.Dismiss(r.Context(), models.TrackID(req.TrackID), req.ContextID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dismissResponse{Success: true})
	case http.MethodDelete:
		contextID := r.URL.Query().Get("contextId")
		if err := h.Service.Clear(r.Context(), contextID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dismissResponse{Success: true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// StatsHandler serves GET /stats/recs, gated by an allow-list of user IDs.
type StatsHandler struct {
	Store           *store.Store
	AllowedUserIDs  []string
	UserIDFromQuery func(*http.Request) string
}

func (h *StatsHandler) Routes() []string { return []string{"/stats/recs"} }

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	stats, err := h.Store.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Tracks:            stats.Tracks,
		AdjacencyEdges:    stats.AdjacencyEdges,
		CooccurrenceEdges: stats.CooccurrenceEdges,
		Dismissals:        stats.Dismissals,
		SizeBytes:         stats.SizeBytes,
	})
}

func (h *StatsHandler) authorized(r *http.Request) bool {
	if len(h.AllowedUserIDs) == 0 {
		return true
	}
	userID := ""
	if h.UserIDFromQuery != nil {
		userID = h.UserIDFromQuery(r)
	} else {
		userID = r.URL.Query().Get("userId")
	}
	for _, id := range h.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
