package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks ragchat/internal/vectorstore VectorStore

import "context"

// Payload keys written by the ingester and read by the retriever.
const (
	ContentKey = "content"
	SourceKey  = "source"
	ChunkKey   = "chunk_index"
	HeadingKey = "heading_path"
)

// Point represents a vector point with payload.
type Point struct {
	ID      string
	Vec     []float32
	Payload map[string]any
}

// SearchResult is one hit of a similarity search, most relevant first.
type SearchResult struct {
	PointID string
	Score   float32
	Payload map[string]any
}

// Content returns the stored passage text, or "" when the payload has none.
func (r SearchResult) Content() string {
	s, _ := r.Payload[ContentKey].(string)
	return s
}

// Source returns the stored source path, or "".
func (r SearchResult) Source() string {
	s, _ := r.Payload[SourceKey].(string)
	return s
}

// Filter narrows a search. Zero value matches everything.
type Filter struct {
	// Source restricts hits to one ingested file.
	Source string
	// Text requires the passage to contain the given words.
	Text string
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k points nearest to query.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// DeleteBySource removes every point ingested from source.
	DeleteBySource(ctx context.Context, collection, source string) error

	// EnsureCollection creates the collection when missing and validates its vector size otherwise.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}
