package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"ragchat/internal/contextutil"
	"ragchat/internal/session"
)

// SessionHandler reads and updates the process-wide credentials.
type SessionHandler struct {
	session *session.Session
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sess *session.Session) *SessionHandler {
	return &SessionHandler{session: sess}
}

// SessionRequest replaces the token and default model.
type SessionRequest struct {
	Token string `json:"token"`
	// DefaultModel keeps the current model when empty.
	DefaultModel string `json:"default_model,omitempty"`
}

// SessionResponse never carries the token itself.
type SessionResponse struct {
	HasToken     bool           `json:"has_token"`
	DefaultModel string         `json:"default_model"`
	Models       []string       `json:"models"`
	Status       session.Status `json:"status"`
	CheckedAt    time.Time      `json:"checked_at,omitzero"`
}

// ServeHTTP handles GET and PUT on the session.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		h.session.UpdateCredentials(req.Token, req.DefaultModel)
		logger.InfoContext(ctx, "session credentials updated", "has_token", req.Token != "", "default_model", req.DefaultModel)
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snap := h.session.Snapshot()
	writeJSON(w, http.StatusOK, SessionResponse{
		HasToken:     snap.HasToken(),
		DefaultModel: snap.DefaultModel,
		Models:       snap.Models,
		Status:       snap.Status,
		CheckedAt:    snap.CheckedAt,
	})
}
