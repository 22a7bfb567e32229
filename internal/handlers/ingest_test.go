package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ragchat/internal/ingest"
)

type fakeIngester struct {
	dirs    chan string
	release chan struct{}
	err     error
}

func (f *fakeIngester) IngestDir(ctx context.Context, dir string) (*ingest.Report, error) {
	f.dirs <- dir
	<-f.release
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Report{Files: 1, Ingested: 1}, nil
}

type ingestOutcome struct {
	report *ingest.Report
	err    error
}

func TestIngestHandler_ServeHTTP(t *testing.T) {
	ing := &fakeIngester{dirs: make(chan string, 1), release: make(chan struct{})}
	done := make(chan ingestOutcome, 1)
	handler := NewIngestHandler(context.Background(), ing, "./docs", func(r *ingest.Report, err error) {
		done <- ingestOutcome{report: r, err: err}
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	select {
	case dir := <-ing.dirs:
		if dir != "./docs" {
			t.Errorf("dir = %q", dir)
		}
	case <-time.After(time.Second):
		t.Fatal("ingestion did not start")
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("second run status = %d, want 409", w.Code)
	}

	close(ing.release)
	if out := <-done; out.err != nil || out.report.Ingested != 1 {
		t.Errorf("first run = %+v", out)
	}

	ing.err = errors.New("qdrant down")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))
	if w.Code != http.StatusAccepted {
		t.Errorf("run after completion status = %d, want 202", w.Code)
	}
	<-ing.dirs
	if out := <-done; out.err == nil {
		t.Error("second run should report the ingester error")
	}
}

type blockingIngester struct {
	started chan struct{}
}

func (b *blockingIngester) IngestDir(ctx context.Context, _ string) (*ingest.Report, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestIngestHandler_StopsWithBaseContext(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	ing := &blockingIngester{started: make(chan struct{})}
	done := make(chan error, 1)
	handler := NewIngestHandler(base, ing, "./docs", func(_ *ingest.Report, err error) { done <- err })

	req, reqCancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ingest", nil).WithContext(req))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	<-ing.started

	// Finishing the request must not stop the run.
	reqCancel()
	select {
	case err := <-done:
		t.Fatalf("run stopped with the request: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not stop with the base context")
	}
}

func TestIngestHandler_MethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	NewIngestHandler(context.Background(), &fakeIngester{}, ".", nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ingest", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
