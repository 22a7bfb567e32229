package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:11434", "test-key", "nomic-embed-text", 768)
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.BaseURL() != "http://localhost:11434" {
		t.Errorf("NewEmbeddingsClient() BaseURL = %v, want http://localhost:11434", client.BaseURL())
	}
	if client.ExpectedSize != 768 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 768", client.ExpectedSize)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantErr      bool
		wantCount    int
	}{
		{
			name:         "successful embedding",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/api/embed" {
					t.Errorf("expected /api/embed, got %s", r.URL.Path)
				}
				var req EmbeddingsRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Model != "nomic-embed-text" || len(req.Input) != 2 {
					t.Errorf("unexpected request %+v", req)
				}
				resp := EmbeddingsResponse{Embeddings: [][]float64{make([]float64, 4), make([]float64, 4)}}
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantCount: 2,
		},
		{
			name:         "empty input",
			texts:        []string{},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called")
			},
			wantErr: true,
		},
		{
			name:         "wrong vector size",
			texts:        []string{"Hello"},
			expectedSize: 768,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Embeddings: [][]float64{make([]float64, 4)}})
			},
			wantErr: true,
		},
		{
			name:         "count mismatch",
			texts:        []string{"a", "b"},
			expectedSize: 0,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Embeddings: [][]float64{{1}}})
			},
			wantErr: true,
		},
		{
			name:         "server error",
			texts:        []string{"Hello"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "", "nomic-embed-text", tt.expectedSize)
			got, err := client.EmbedTexts(context.Background(), tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantCount {
				t.Errorf("EmbedTexts() = %d vectors, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestEmbeddingsClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewEmbeddingsClient(server.URL, "", "m", 0).EmbedTexts(context.Background(), []string{"x"})
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusBadGateway {
		t.Errorf("EmbedTexts() error = %v, want TransportError 502", err)
	}
}
