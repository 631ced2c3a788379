package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/auth"
	"github.com/sakif/playmate/internal/service"
)

// PlayHandler exposes gaming-session tracking: start, end, breaks, and the
// daily playtime total. All routes sit behind auth.RequireAuth; the account
// id comes from the validated session token, not the current-user pointer.
type PlayHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewPlayHandler(svc *service.Service, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{svc: svc, logger: logger}
}

type startSessionRequest struct {
	GameType string `json:"gameType"`
}

// HandleStartSession opens a gaming session for the authenticated account.
//
// HTTP: POST /api/play/start
func (h *PlayHandler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	session, err := h.svc.StartPlaySession(r.Context(), userID, req.GameType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// HandleEndSession closes the open session, if any.
//
// HTTP: POST /api/play/end
func (h *PlayHandler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.svc.EndPlaySession(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBreak records a break on the open session.
//
// HTTP: POST /api/play/break
func (h *PlayHandler) HandleBreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.svc.TakeBreak(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dailyPlaytimeResponse struct {
	TotalMinutes int  `json:"totalMinutes"`
	CapExceeded  bool `json:"capExceeded"`
}

// HandleDailyPlaytime reports today's total playtime against the daily cap.
//
// HTTP: GET /api/play/daily
func (h *PlayHandler) HandleDailyPlaytime(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	total, exceeded, err := h.svc.DailyPlaytime(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyPlaytimeResponse{
		TotalMinutes: int(total / time.Minute),
		CapExceeded:  exceeded,
	})
}
