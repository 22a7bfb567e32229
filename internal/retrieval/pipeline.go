package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retrieval.go -package=mocks ragchat/internal/retrieval Completer,Embedder,Searcher

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/contextutil"
	"ragchat/internal/vectorstore"
)

// StandaloneQuestionPrompt prefixes the user question during normalization.
const StandaloneQuestionPrompt = "For following user question convert it into a standalone question "

// Completer runs a one-shot completion.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher finds stored passages near a vector.
type Searcher interface {
	Search(ctx context.Context, collection string, query []float32, k int, filter vectorstore.Filter) ([]vectorstore.SearchResult, error)
}

// Document is one retrieved passage.
type Document struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float32 `json:"score"`
}

// Result is the output of a retrieval run.
type Result struct {
	// Query is the normalized question that was embedded.
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
	// Context is the document contents joined by blank lines, in store order.
	Context string `json:"context"`
}

// Options configures a Pipeline.
type Options struct {
	Collection string
	K          int
	// Normalize rewrites the question into a standalone one before embedding.
	Normalize bool
	// Rerank blends a lexical score into the vector score and reorders hits.
	Rerank bool
}

// Pipeline runs normalize, embed, search and join strictly in sequence.
type Pipeline struct {
	completer Completer
	embedder  Embedder
	searcher  Searcher
	opts      Options
}

// NewPipeline creates a retrieval pipeline.
func NewPipeline(completer Completer, embedder Embedder, searcher Searcher, opts Options) *Pipeline {
	if opts.K <= 0 {
		opts.K = 4
	}
	return &Pipeline{completer: completer, embedder: embedder, searcher: searcher, opts: opts}
}

// Retrieve returns the context for question. model is used for normalization.
// Every failure is a *RetrievalError.
func (p *Pipeline) Retrieve(ctx context.Context, question, model string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := question
	if p.opts.Normalize {
		rewritten, err := p.completer.Complete(ctx, model, StandaloneQuestionPrompt+question)
		if err != nil {
			logger.ErrorContext(ctx, "failed to normalize question", "error", err)
			return Result{}, &RetrievalError{Stage: StageNormalize, Err: err}
		}
		if rewritten = strings.TrimSpace(rewritten); rewritten != "" {
			query = rewritten
		}
		logger.DebugContext(ctx, "question normalized", "question", question, "query", query)
	}

	docs, err := p.search(ctx, query, vectorstore.Filter{})
	if err != nil {
		return Result{}, err
	}

	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}

	result := Result{Query: query, Documents: docs, Context: strings.Join(contents, "\n\n")}
	logger.InfoContext(ctx, "retrieval completed", "documents", len(docs), "context_length", len(result.Context))
	return result, nil
}

// Similar skips normalization and returns the passages nearest to text.
func (p *Pipeline) Similar(ctx context.Context, text string, filter vectorstore.Filter) ([]Document, error) {
	return p.search(ctx, text, filter)
}

func (p *Pipeline) search(ctx context.Context, query string, filter vectorstore.Filter) ([]Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return nil, &RetrievalError{Stage: StageEmbed, Err: fmt.Errorf("query is empty")}
	}

	vectors, err := p.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return nil, &RetrievalError{Stage: StageEmbed, Err: err}
	}
	if len(vectors) == 0 {
		return nil, &RetrievalError{Stage: StageEmbed, Err: fmt.Errorf("no embedding returned for query")}
	}

	hits, err := p.searcher.Search(ctx, p.opts.Collection, vectors[0], p.opts.K, filter)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "collection", p.opts.Collection, "error", err)
		return nil, &RetrievalError{Stage: StageSearch, Err: err}
	}

	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		content := h.Content()
		if content == "" {
			logger.WarnContext(ctx, "search hit has no content payload", "point_id", h.PointID)
			continue
		}
		docs = append(docs, Document{ID: h.PointID, Content: content, Source: h.Source(), Score: h.Score})
	}
	if len(docs) == 0 {
		return nil, &RetrievalError{Stage: StageSearch, Err: fmt.Errorf("collection %s: %w", p.opts.Collection, ErrNoDocuments)}
	}

	if p.opts.Rerank {
		docs = rerank(query, docs)
	}
	return docs, nil
}
