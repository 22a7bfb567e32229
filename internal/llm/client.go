package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/contextutil"
)

// maxBodySize bounds how much of a response body is buffered.
// It is a variable so tests can lower it.
var maxBodySize int64 = 32 << 20

// Client is a thin HTTP wrapper around the LLM server's REST surface.
// It performs no retries.
type Client struct {
	BaseURL      string
	APIKey       string
	Dialect      Dialect
	GeneratePath string
	client       *http.Client
}

// NewClient creates a new LLM transport client.
func NewClient(baseURL, apiKey string, dialect Dialect) *Client {
	return &Client{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Dialect:      dialect,
		GeneratePath: "/api/generate",
		client:       http.DefaultClient,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  *int    `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model      string        `json:"model"`
	Messages   []Message     `json:"messages"`
	Stream     bool          `json:"stream"`
	Tools      []openai.Tool `json:"tools,omitempty"`
	ToolChoice ToolChoice    `json:"tool_choice,omitempty"`
	// Temperature and MaxTokens are sent top-level as well as in options;
	// servers ignore whichever they do not understand.
	Temperature float64       `json:"temperature"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Options     ollamaOptions `json:"options"`
}

// encodeChat renders cfg in the wire format of the client's dialect.
func (c *Client) encodeChat(cfg ChatConfiguration) ([]byte, error) {
	var maxTokens *int
	if cfg.MaxTokens >= 0 {
		v := cfg.MaxTokens
		maxTokens = &v
	}

	if c.Dialect == DialectOpenAI {
		req := openai.ChatCompletionRequest{
			Model:       cfg.Model,
			Messages:    toOpenAIMessages(cfg.Messages),
			Temperature: float32(cfg.Temperature),
			Stream:      cfg.Stream,
			Tools:       cfg.Tools,
		}
		if maxTokens != nil {
			req.MaxTokens = *maxTokens
		}
		if len(cfg.Tools) > 0 && cfg.ToolChoice != "" {
			req.ToolChoice = string(cfg.ToolChoice)
		}
		return json.Marshal(req)
	}

	return json.Marshal(ollamaChatRequest{
		Model:       cfg.Model,
		Messages:    cfg.Messages,
		Stream:      cfg.Stream,
		Tools:       cfg.Tools,
		ToolChoice:  cfg.ToolChoice,
		Temperature: cfg.Temperature,
		MaxTokens:   maxTokens,
		Options: ollamaOptions{
			Temperature: cfg.Temperature,
			NumPredict:  maxTokens,
		},
	})
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		om := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		if m.Role == RoleTool {
			om.Name = m.ToolName
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			om.ToolCalls = append(om.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, om)
	}
	return out
}

// Chat sends cfg to the chat endpoint and returns the raw response body.
func (c *Client) Chat(ctx context.Context, cfg ChatConfiguration) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path := "/api/chat"
	if c.Dialect == DialectOpenAI {
		path = "/chat/completions"
	}
	body, err := c.encodeChat(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, "chat", http.MethodPost, path, body)
}

// Generate sends a one-shot completion request and returns the raw response body.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("generate request has no model")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, "generate", http.MethodPost, c.GeneratePath, body)
}

type tagsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

type openAIModelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Created int64  `json:"created"`
	} `json:"data"`
}

// ListModels returns the models the server knows about.
func (c *Client) ListModels(ctx context.Context) ([]ModelDescriptor, error) {
	if c.Dialect == DialectOpenAI {
		raw, err := c.do(ctx, "list models", http.MethodGet, "/models", nil)
		if err != nil {
			return nil, err
		}
		var resp openAIModelsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, &TransportError{Op: "list models", URL: c.BaseURL + "/models", Err: fmt.Errorf("malformed response: %w", err)}
		}
		models := make([]ModelDescriptor, 0, len(resp.Data))
		for _, m := range resp.Data {
			models = append(models, ModelDescriptor{Name: m.ID, Model: m.ID, ModifiedAt: time.Unix(m.Created, 0).UTC()})
		}
		return models, nil
	}

	raw, err := c.do(ctx, "list models", http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	var resp tagsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &TransportError{Op: "list models", URL: c.BaseURL + "/api/tags", Err: fmt.Errorf("malformed response: %w", err)}
	}
	return resp.Models, nil
}

// do performs one HTTP round-trip. Every failure is a *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	logger := contextutil.LoggerFromContext(ctx)
	url := c.BaseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "llm request failed", "op", op, "url", url, "error", err)
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(raw)) > maxBodySize {
		logger.ErrorContext(ctx, "llm response too large", "op", op, "url", url, "limit", maxBodySize)
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxBodySize)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WarnContext(ctx, "llm request returned error status", "op", op, "url", url, "status", resp.StatusCode)
		return nil, &TransportError{Op: op, URL: url, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	logger.DebugContext(ctx, "llm request completed", "op", op, "url", url, "bytes", len(raw), "duration", time.Since(start))
	return raw, nil
}

// token prefers the per-request token over the static API key.
func (c *Client) token(ctx context.Context) string {
	if token, ok := contextutil.TokenFromContext(ctx); ok {
		return token
	}
	return c.APIKey
}

// Complete runs a one-shot, non-streaming completion and returns the assembled text.
// Ollama servers are asked through the generate endpoint; OpenAI-compatible
// servers through a single-turn chat.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	var (
		raw []byte
		err error
	)
	if c.Dialect == DialectOpenAI {
		raw, err = c.Chat(ctx, ChatConfiguration{
			Model:     model,
			Messages:  []Message{{Role: RoleUser, Content: prompt}},
			MaxTokens: -1,
		})
	} else {
		raw, err = c.Generate(ctx, GenerateRequest{Model: model, Prompt: prompt})
	}
	if err != nil {
		return "", err
	}

	decoder, err := NewDecoder(c.Dialect)
	if err != nil {
		return "", err
	}
	return decoder.Decode(ctx, raw).Content, nil
}
