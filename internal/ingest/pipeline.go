package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragchat/internal/contextutil"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

const defaultBatchSize = 32

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Options configures a Pipeline.
type Options struct {
	Collection string
	VectorSize int
	// BatchSize bounds how many chunks go into one embedding request.
	BatchSize int
	// Force re-ingests files whose content hash is unchanged.
	Force bool
	// EmbeddingModel is recorded in the report's index version.
	EmbeddingModel string
}

// Pipeline loads documents into the vector collection the retriever reads.
type Pipeline struct {
	embedder Embedder
	store    vectorstore.VectorStore
	ledger   storage.DocumentStore
	chunker  *Chunker
	opts     Options

	mu      sync.Mutex
	ensured bool
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(embedder Embedder, store vectorstore.VectorStore, ledger storage.DocumentStore, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Pipeline{
		embedder: embedder,
		store:    store,
		ledger:   ledger,
		chunker:  NewChunker(),
		opts:     opts,
	}
}

// FileResult describes one ingested file.
type FileResult struct {
	Source    string  `json:"source"`
	Chunks    []Chunk `json:"-"`
	Unchanged bool    `json:"unchanged"`
}

// Supported reports whether path has an extension the pipeline reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// IngestFile chunks, embeds and stores one file, replacing any points
// previously stored for it. Files whose hash matches the ledger are skipped.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*FileResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	source := filepath.ToSlash(filepath.Clean(path))

	if !Supported(path) {
		return nil, fmt.Errorf("unsupported file type: %s", source)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", source, err)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	existing, err := p.ledger.GetBySource(ctx, p.opts.Collection, source)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check ingestion ledger: %w", err)
	}
	if existing != nil && existing.Hash == hash && !p.opts.Force {
		logger.DebugContext(ctx, "skipping unchanged file", "source", source, "hash", hash)
		return &FileResult{Source: source, Unchanged: true}, nil
	}

	var chunks []Chunk
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		chunks = p.chunker.ChunkText(content, path)
	} else {
		chunks = p.chunker.ChunkMarkdown(content, path)
	}

	if err := p.ensureCollection(ctx); err != nil {
		return nil, err
	}

	points, err := p.embed(ctx, source, chunks)
	if err != nil {
		return nil, err
	}

	if err := p.store.DeleteBySource(ctx, p.opts.Collection, source); err != nil {
		return nil, fmt.Errorf("failed to delete previous points for %s: %w", source, err)
	}
	if len(points) > 0 {
		if err := p.store.Upsert(ctx, p.opts.Collection, points); err != nil {
			return nil, fmt.Errorf("failed to upsert points for %s: %w", source, err)
		}
	} else {
		logger.WarnContext(ctx, "no chunks generated", "source", source)
	}

	doc := &storage.Document{Collection: p.opts.Collection, Source: source, Hash: hash, Chunks: len(chunks)}
	if err := p.ledger.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to record ingestion: %w", err)
	}

	logger.InfoContext(ctx, "ingested file", "source", source, "chunks", len(chunks), "collection", p.opts.Collection)
	return &FileResult{Source: source, Chunks: chunks}, nil
}

// IngestDir ingests every supported file under dir. A failing file is
// logged and counted, it does not stop the walk.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	logger.InfoContext(ctx, "starting ingestion", "dir", dir, "total_files", len(files))

	report := newReport(p.opts)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := p.IngestFile(ctx, path)
		if err != nil {
			report.addFailure(path, err)
			logger.ErrorContext(ctx, "failed to ingest file", "path", path, "error", err)
			continue
		}
		report.add(res)
	}
	report.finish()

	logger.InfoContext(ctx, "ingestion completed",
		"total_files", report.Files, "ingested", report.Ingested, "unchanged", report.Unchanged, "failed", len(report.Failed))

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("ingestion completed with %d errors", len(report.Failed))
	}
	return report, nil
}

func (p *Pipeline) ensureCollection(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ensured {
		return nil
	}
	if err := p.store.EnsureCollection(ctx, p.opts.Collection, p.opts.VectorSize); err != nil {
		return fmt.Errorf("failed to ensure collection %s: %w", p.opts.Collection, err)
	}
	p.ensured = true
	return nil
}

// embed vectorizes chunks in batches and builds their points.
func (p *Pipeline) embed(ctx context.Context, source string, chunks []Chunk) ([]vectorstore.Point, error) {
	points := make([]vectorstore.Point, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.opts.BatchSize {
		end := min(start+p.opts.BatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		vectors, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings for %s: %w", source, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch for %s: expected %d, got %d", source, len(texts), len(vectors))
		}

		for i, c := range chunks[start:end] {
			points = append(points, vectorstore.Point{
				ID:  uuid.New().String(),
				Vec: vectors[i],
				Payload: map[string]any{
					vectorstore.ContentKey: c.Text,
					vectorstore.SourceKey:  source,
					vectorstore.ChunkKey:   c.Index,
					vectorstore.HeadingKey: c.HeadingPath,
				},
			})
		}
	}
	return points, nil
}
