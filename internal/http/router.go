package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ragchat/internal/handlers"
	"ragchat/internal/monitor"
	"ragchat/internal/service"
	"ragchat/internal/session"
	"ragchat/internal/tools"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService    service.ChatService
	ModelLister    monitor.ModelLister
	Session        *session.Session
	Tools          *tools.Registry
	VectorStore    handlers.CollectionChecker
	CollectionName string
	// Ingester is optional; without it POST /api/ingest is not served.
	Ingester  handlers.Ingester
	IngestDir string
	// BaseContext bounds background work started by requests, such as ingestion.
	BaseContext context.Context
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	similarHandler := handlers.NewSimilarHandler(deps.ChatService)
	modelsHandler := handlers.NewModelsHandler(deps.ModelLister, deps.Session)
	toolsHandler := handlers.NewToolsHandler(deps.Tools)
	sessionHandler := handlers.NewSessionHandler(deps.Session)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Session, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodPost, "/similar", similarHandler)
		r.Method(http.MethodGet, "/models", modelsHandler)
		r.Method(http.MethodGet, "/tools", toolsHandler)
		r.Method(http.MethodGet, "/session", sessionHandler)
		r.Method(http.MethodPut, "/session", sessionHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
		if deps.Ingester != nil {
			r.Method(http.MethodPost, "/ingest", handlers.NewIngestHandler(deps.BaseContext, deps.Ingester, deps.IngestDir, nil))
		}
	})

	return r
}
