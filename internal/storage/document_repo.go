package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks ragchat/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for the ingestion ledger.
type DocumentStore interface {
	// GetBySource returns ErrNotFound when the source was never ingested into collection.
	GetBySource(ctx context.Context, collection, source string) (*Document, error)
	// Upsert inserts or refreshes a ledger entry, keeping the ID of an existing one.
	Upsert(ctx context.Context, doc *Document) error
	// List returns every document of a collection ordered by source.
	List(ctx context.Context, collection string) ([]Document, error)
}

// DocumentRepo implements DocumentStore on SQLite.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetBySource gets a document by collection and source path.
func (r *DocumentRepo) GetBySource(ctx context.Context, collection, source string) (*Document, error) {
	var doc Document
	var ingestedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, collection, source, hash, chunks, ingested_at FROM documents WHERE collection = ? AND source = ?",
		collection, source,
	).Scan(&doc.ID, &doc.Collection, &doc.Source, &doc.Hash, &doc.Chunks, &ingestedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	if doc.IngestedAt, err = parseTimestamp(ingestedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Upsert inserts a new document or updates hash and chunk count of an existing one.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *Document) error {
	existing, err := r.GetBySource(ctx, doc.Collection, doc.Source)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing != nil {
		doc.ID = existing.ID
	} else if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, source, hash, chunks, ingested_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (collection, source) DO UPDATE SET
		 hash = excluded.hash, chunks = excluded.chunks, ingested_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Collection, doc.Source, doc.Hash, doc.Chunks,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// List returns all documents in a collection.
func (r *DocumentRepo) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, collection, source, hash, chunks, ingested_at FROM documents WHERE collection = ? ORDER BY source",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []Document
	for rows.Next() {
		var doc Document
		var ingestedAt string
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.Source, &doc.Hash, &doc.Chunks, &ingestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.IngestedAt, err = parseTimestamp(ingestedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// parseTimestamp accepts both SQLite DATETIME layouts the driver may return.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
