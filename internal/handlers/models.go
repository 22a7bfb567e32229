package handlers

import (
	"net/http"

	"ragchat/internal/contextutil"
	"ragchat/internal/monitor"
	"ragchat/internal/session"
)

// ModelsHandler lists the models the LLM server offers and records them in the session.
type ModelsHandler struct {
	lister  monitor.ModelLister
	session *session.Session
}

// NewModelsHandler creates a new ModelsHandler.
func NewModelsHandler(lister monitor.ModelLister, sess *session.Session) *ModelsHandler {
	return &ModelsHandler{lister: lister, session: sess}
}

// ModelsResponse represents the HTTP response payload for the model list.
type ModelsResponse struct {
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}

// ServeHTTP handles HTTP requests for the model list.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snap := h.session.Snapshot()
	if snap.HasToken() {
		ctx = contextutil.WithToken(ctx, snap.Token)
	}

	models, err := h.lister.ListModels(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list models", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	h.session.SetModels(names)

	writeJSON(w, http.StatusOK, ModelsResponse{Models: names, DefaultModel: snap.DefaultModel})
}
