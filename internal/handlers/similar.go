package handlers

import (
	"encoding/json"
	"net/http"

	"ragchat/internal/contextutil"
	"ragchat/internal/retrieval"
	"ragchat/internal/service"
)

// SimilarHandler returns retrieved passages for a question without answering it.
type SimilarHandler struct {
	chatService service.ChatService
}

// NewSimilarHandler creates a new SimilarHandler.
func NewSimilarHandler(chatService service.ChatService) *SimilarHandler {
	return &SimilarHandler{chatService: chatService}
}

// SimilarRequest represents the HTTP request payload for similarity queries.
type SimilarRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
	// Source restricts the search to one ingested file and skips question rewriting.
	Source string `json:"source,omitempty"`
}

// SimilarResponse carries the passages and their combined context.
type SimilarResponse struct {
	// The question actually embedded, after rewriting
	Query     string               `json:"query"`
	Context   string               `json:"context"`
	Documents []retrieval.Document `json:"documents"`
}

// ServeHTTP handles HTTP requests for similarity queries.
func (h *SimilarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.chatService.Similar(ctx, service.SimilarRequest{
		Question: req.Question,
		Model:    req.Model,
		Source:   req.Source,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process similarity request")
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{
		Query:     res.Query,
		Context:   res.Context,
		Documents: res.Documents,
	})
}
