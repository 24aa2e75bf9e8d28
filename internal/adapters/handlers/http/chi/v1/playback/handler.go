package playback

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"clipstream/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 playback routes. The feed player asks
// it for a playable URI; the response is either a local cached path or
// the original remote URI when the cache cannot serve it.
type HandlerV1 struct {
	cache  port.ContentCache
	logger *slog.Logger
}

// NewPlaybackHandlerV1 creates HandlerV1
func NewPlaybackHandlerV1(cache port.ContentCache, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		cache:  cache,
		logger: logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/resolve", h.ResolveV1)
	router.Delete("/cache", h.InvalidateV1)

	return router
}

// V1ResolveResponse is the response to a resolve call
type V1ResolveResponse struct {
	URI    string `json:"uri"`
	Cached bool   `json:"cached"`
}

func (h *HandlerV1) ResolveV1(w http.ResponseWriter, r *http.Request) {
	remoteURI := r.URL.Query().Get("uri")
	if remoteURI == "" {
		http.Error(w, "missing uri", http.StatusBadRequest)
		return
	}

	resolved := h.cache.Resolve(r.Context(), remoteURI)

	resp := V1ResolveResponse{
		URI:    resolved,
		Cached: resolved != remoteURI,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}

// InvalidateV1 drops one cached entry when a uri is given, or the whole
// cache otherwise.
func (h *HandlerV1) InvalidateV1(w http.ResponseWriter, r *http.Request) {
	remoteURI := r.URL.Query().Get("uri")

	var err error
	if remoteURI == "" {
		err = h.cache.Clear()
	} else {
		err = h.cache.Invalidate(remoteURI)
	}
	if err != nil {
		h.logger.Error("error invalidating cache", "error", err)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
