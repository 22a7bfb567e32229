package handlers

import (
	"encoding/json"
	"net/http"

	"ragchat/internal/contextutil"
	"ragchat/internal/persona"
	"ragchat/internal/retrieval"
	"ragchat/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message   string `json:"message"`
	Expertise string `json:"expertise,omitempty"`
	Style     string `json:"style,omitempty"`
	// Model is a model name or "auto" for the session default.
	Model        string `json:"model,omitempty"`
	UseRetrieval bool   `json:"use_retrieval,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
// A failed turn still answers 200 with a diagnostic reply and Error set.
type ChatResponse struct {
	ID         string               `json:"id"`
	Reply      string               `json:"reply"`
	HTML       string               `json:"html"`
	Model      string               `json:"model"`
	Sources    []retrieval.Document `json:"sources,omitempty"`
	ToolRounds int                  `json:"tool_rounds,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expertise, err := persona.ParseExpertise(req.Expertise)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	style, err := persona.ParseStyle(req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.chatService.Answer(ctx, service.AnswerRequest{
		Message:      req.Message,
		Expertise:    expertise,
		Style:        style,
		Model:        req.Model,
		UseRetrieval: req.UseRetrieval,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ID:         answer.ID,
		Reply:      answer.Text,
		HTML:       answer.HTML,
		Model:      answer.Configuration.Model,
		Sources:    answer.Sources,
		ToolRounds: answer.ToolRounds,
		Error:      answer.Error,
	})
}
