package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ragchat/internal/dependency"
	"ragchat/internal/http"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the server check",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "API port (default API_PORT)")
}

func runServe(_ *cobra.Command, _ []string) error {
	container, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer func() {
		_ = container.Close()
	}()

	port := cfg.APIPort
	if servePort != "" {
		port = servePort
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	router := http.NewRouter(&http.Deps{
		ChatService:    container.ChatService(),
		ModelLister:    container.LLMClient(),
		Session:        container.Session(),
		Tools:          container.Tools(),
		VectorStore:    container.VectorStore(),
		CollectionName: cfg.CollectionName,
		Ingester:       container.Ingest(),
		IngestDir:      cfg.IngestDir,
		BaseContext:    gctx,
	})
	srv := &nethttp.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Starting API server", "addr", srv.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "dialect", cfg.LLMDialect, "model", cfg.LLMModelName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.ServerCheck {
		g.Go(func() error { return container.ServerCheck().Start(gctx) })
	}
	if cfg.LLMPreload {
		g.Go(func() error {
			if err := container.ModelLoader().LoadModel(gctx, cfg.LLMModelName, cfg.LLMKeepAlive); err != nil {
				slog.Warn("Model preload failed", "model", cfg.LLMModelName, "error", err)
				return nil
			}
			slog.Info("Model loaded", "model", cfg.LLMModelName)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}
