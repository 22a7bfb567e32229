package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ModelLoader warms models into server memory so the first chat turn does not pay the load cost.
// Only the Ollama dialect exposes a load surface.
type ModelLoader struct {
	transport *Client
	// PollInterval is the wait between residency checks.
	PollInterval time.Duration
	// MaxAttempts bounds how many residency checks LoadModel performs.
	MaxAttempts int
}

// NewModelLoader creates a new model loader on top of an existing transport client.
func NewModelLoader(transport *Client) *ModelLoader {
	return &ModelLoader{
		transport:    transport,
		PollInterval: time.Second,
		MaxAttempts:  30,
	}
}

// RunningModel is one entry of the server's in-memory model list.
type RunningModel struct {
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	SizeVRAM  int64     `json:"size_vram"`
	ExpiresAt time.Time `json:"expires_at"`
}

type runningModelsResponse struct {
	Models []RunningModel `json:"models"`
}

type loadModelRequest struct {
	Model     string `json:"model"`
	KeepAlive string `json:"keep_alive,omitempty"`
}

// IsModelLoaded checks whether modelName is resident in server memory.
func (ml *ModelLoader) IsModelLoaded(ctx context.Context, modelName string) (bool, error) {
	raw, err := ml.transport.do(ctx, "running models", http.MethodGet, "/api/ps", nil)
	if err != nil {
		return false, err
	}

	var resp runningModelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("failed to decode running models: %w", err)
	}
	for _, m := range resp.Models {
		if m.Name == modelName || m.Model == modelName {
			return true, nil
		}
	}
	return false, nil
}

// LoadModel asks the server to load modelName and waits until it is resident.
// keepAlive is passed through to the server (e.g. "10m"); empty uses the server default.
func (ml *ModelLoader) LoadModel(ctx context.Context, modelName, keepAlive string) error {
	if ml.transport.Dialect != DialectOllama {
		return fmt.Errorf("model loading is not supported by the %s dialect", ml.transport.Dialect)
	}

	if loaded, err := ml.IsModelLoaded(ctx, modelName); err == nil && loaded {
		return nil
	}

	body, err := json.Marshal(loadModelRequest{Model: modelName, KeepAlive: keepAlive})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	// A generate call without a prompt only loads the model.
	if _, err := ml.transport.do(ctx, "load model", http.MethodPost, ml.transport.GeneratePath, body); err != nil {
		return err
	}

	for i := 0; i < ml.MaxAttempts; i++ {
		loaded, err := ml.IsModelLoaded(ctx, modelName)
		if err == nil && loaded {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ml.PollInterval):
		}
	}

	return fmt.Errorf("model %s did not load within timeout period", modelName)
}
