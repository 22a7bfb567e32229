package handlers

import (
	"net/http"

	"ragchat/internal/contextutil"
	"ragchat/internal/tools"
)

// ToolsHandler describes the registered tools.
type ToolsHandler struct {
	registry *tools.Registry
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(registry *tools.Registry) *ToolsHandler {
	return &ToolsHandler{registry: registry}
}

// ToolResponse is one registered tool.
type ToolResponse struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  tools.Schema `json:"parameters"`
}

// ServeHTTP handles HTTP requests for the tool list.
func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	descriptors := h.registry.Descriptors()
	out := make([]ToolResponse, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, ToolResponse{Name: d.Name, Description: d.Description, Parameters: d.Parameters})
	}
	writeJSON(w, http.StatusOK, out)
}
