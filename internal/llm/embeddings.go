package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmbeddingsClient is a client for the Ollama embeddings API.
type EmbeddingsClient struct {
	transport    *Client
	Model        string
	ExpectedSize int // Expected vector size for validation, 0 disables the check
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the collection's vector size (QDRANT_VECTOR_SIZE).
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		transport:    NewClient(baseURL, apiKey, DialectOllama),
		Model:        model,
		ExpectedSize: expectedSize,
	}
}

// BaseURL returns the embedding server address.
func (c *EmbeddingsClient) BaseURL() string {
	return c.transport.BaseURL
}

// EmbeddingsRequest represents the request payload for the embed API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingsResponse represents the response from the embed API.
type EmbeddingsResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// EmbedTexts generates embeddings for the given texts.
// Returns a slice of float32 vectors, one per input text.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	body, err := json.Marshal(EmbeddingsRequest{Model: c.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.transport.do(ctx, "embed", http.MethodPost, "/api/embed", body)
	if err != nil {
		return nil, err
	}

	var resp EmbeddingsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	result := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if c.ExpectedSize > 0 && len(emb) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(emb), c.ExpectedSize)
		}
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		result[i] = vec
	}
	return result, nil
}
