package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/auth"
	"github.com/sakif/playmate/internal/service"
)

// sessionMaxAge matches the JWT lifetime (24 hours), in seconds.
const sessionMaxAge = 24 * 60 * 60

// AuthHandler manages account registration, login, and sign-out.
type AuthHandler struct {
	svc    *service.Service
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.Service, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, logger: logger}
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	SteamID  string `json:"steamId"`
	Password string `json:"password"`
}

// HandleSignUp registers an account and verifies its Steam identity.
//
// HTTP: POST /api/auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.svc.SignUp(r.Context(), req.Username, req.Email, req.SteamID, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin checks credentials against the roster and issues a session.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleLogout signs the user out and clears the session cookie.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the account behind the validated session token.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.svc.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, userID string) error {
	token, err := h.tokens.Generate(userID)
	if err != nil {
		h.logger.Error("issuing session token", slog.String("error", err.Error()))
		return err
	}
	auth.SetSessionCookie(w, token, sessionMaxAge)
	return nil
}
