package handler

import (
	"encoding/json"
	"net/http"

	"halloween-rock-api/internal/service"
	"halloween-rock-api/pkg/apierror"
	"halloween-rock-api/pkg/response"
	"halloween-rock-api/pkg/uid"
)

// SessionHandler handles player session HTTP requests. Starting a session
// registers the player with the passive-income scheduler; revoking one
// unregisters them.
type SessionHandler struct {
	sessionService *service.SessionService
	scheduler      *service.PassiveIncomeScheduler
}

// NewSessionHandler creates a new session handler. scheduler may be nil.
func NewSessionHandler(sessionService *service.SessionService, scheduler *service.PassiveIncomeScheduler) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		scheduler:      scheduler,
	}
}

// SessionRequest represents the request body for session creation. PlayerID
// is optional; a fresh player id is minted when absent.
type SessionRequest struct {
	PlayerID string `json:"player_id"`
}

// SessionResponse represents the response for session creation.
type SessionResponse struct {
	Token     string `json:"token"`
	PlayerID  string `json:"player_id"`
	ExpiresIn int    `json:"expires_in"`
}

// StartSession handles POST /auth/session
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid request body"))
			return
		}
		defer r.Body.Close()
	}

	if req.PlayerID == "" {
		req.PlayerID = uid.New()
	} else if !uid.IsValid(req.PlayerID) {
		response.Error(w, apierror.BadRequest("player_id must be a UUID"))
		return
	}

	token, err := h.sessionService.StartSession(r.Context(), req.PlayerID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to start session"))
		return
	}

	if h.scheduler != nil {
		h.scheduler.Track(req.PlayerID)
	}

	response.OK(w, SessionResponse{
		Token:     token,
		PlayerID:  req.PlayerID,
		ExpiresIn: int(service.SessionTTL.Seconds()),
	})
}

// RevokeSession handles POST /auth/revoke
func (h *SessionHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	session, err := h.sessionService.ValidateSession(r.Context(), token)
	if err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	if err := h.sessionService.RevokeSession(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke session"))
		return
	}

	if h.scheduler != nil {
		h.scheduler.Untrack(session.PlayerID)
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshSession handles POST /auth/refresh
func (h *SessionHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.sessionService.RefreshSession(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.SessionTTL.Seconds()),
	})
}
