package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"ragchat/internal/contextutil"
	"ragchat/internal/ingest"
)

// Ingester loads a directory of documents into the vector collection.
type Ingester interface {
	IngestDir(ctx context.Context, dir string) (*ingest.Report, error)
}

// IngestDoneFunc is called after a background run finishes.
type IngestDoneFunc func(report *ingest.Report, err error)

// IngestHandler handles HTTP requests for triggering ingestion.
type IngestHandler struct {
	// base bounds background runs; cancelling it stops a run in progress.
	base     context.Context
	ingester Ingester
	dir      string
	onDone   IngestDoneFunc
	running  atomic.Bool
}

// NewIngestHandler creates a handler that ingests dir. Runs are tied to base,
// not to the triggering request. onDone may be nil.
func NewIngestHandler(base context.Context, ingester Ingester, dir string, onDone IngestDoneFunc) *IngestHandler {
	if base == nil {
		base = context.Background()
	}
	return &IngestHandler{base: base, ingester: ingester, dir: dir, onDone: onDone}
}

// IngestResponse represents the response from the ingest endpoint.
type IngestResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP starts ingestion in the background and answers immediately.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "Ingestion already running")
		return
	}
	logger.InfoContext(ctx, "ingestion triggered via API", "dir", h.dir)

	runCtx := contextutil.WithLogger(h.base, logger)
	go func() {
		report, err := h.ingester.IngestDir(runCtx, h.dir)
		h.running.Store(false)
		if err != nil {
			logger.ErrorContext(runCtx, "ingestion completed with errors", "error", err)
		} else {
			logger.InfoContext(runCtx, "ingestion completed successfully",
				"ingested", report.Ingested, "unchanged", report.Unchanged, "chunks", report.Chunks)
		}
		if h.onDone != nil {
			h.onDone(report, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, IngestResponse{
		Message: "Ingestion started. Check server logs for progress.",
		Status:  "accepted",
	})
}
