package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playmate/internal/service"
)

// ProfileHandler exposes the fetch-chain operations and the published
// application state. Read endpoints never dead-end: soft Steam failures
// come back as a 200 with synthetic data and a populated error field.
type ProfileHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewProfileHandler(svc *service.Service, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// HandleAuthenticate runs the startup sign-in flow and returns the
// resulting state.
//
// HTTP: POST /api/authenticate
func (h *ProfileHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Authenticate(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Surface().Snapshot())
}

// HandleFetchProfile looks up an identifier (canonical id, vanity URL, or
// legacy triplet) and returns the refreshed state.
//
// HTTP: GET /api/profile/{id}
func (h *ProfileHandler) HandleFetchProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.FetchProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Surface().Snapshot())
}

// HandleFetchStats rebuilds the per-title stats snapshot for an identifier.
//
// HTTP: GET /api/stats/{id}
func (h *ProfileHandler) HandleFetchStats(w http.ResponseWriter, r *http.Request) {
	h.svc.FetchStats(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.svc.Surface().Snapshot().Stats)
}

// HandleFetchMatches refreshes the match list for an identifier.
//
// HTTP: GET /api/matches/{id}
func (h *ProfileHandler) HandleFetchMatches(w http.ResponseWriter, r *http.Request) {
	h.svc.FetchMatches(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.svc.Surface().Snapshot().Matches)
}

// HandleState returns the current published state without fetching.
//
// HTTP: GET /api/state
func (h *ProfileHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Surface().Snapshot())
}

// HandleServerStatus probes Steam API health.
//
// HTTP: GET /api/status
func (h *ProfileHandler) HandleServerStatus(w http.ResponseWriter, r *http.Request) {
	status := h.svc.RefreshServerStatus(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

// HandleRecentSearches returns the recent-search identifiers.
//
// HTTP: GET /api/searches
func (h *ProfileHandler) HandleRecentSearches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Surface().Snapshot().RecentSearches)
}

// HandleClearSearches empties the recent-search list.
//
// HTTP: DELETE /api/searches
func (h *ProfileHandler) HandleClearSearches(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearRecentSearches(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
