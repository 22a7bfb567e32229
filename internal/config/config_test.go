package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"LLM_BASE_URL", "LLM_DIALECT", "LLM_API_KEY", "LLM_MODEL", "LLM_GENERATE_PATH",
	"LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_STREAM", "LLM_TIMEOUT",
	"TOOL_MAX_ITERATIONS", "TOOL_TIMEOUT",
	"AI_EMBED_HOST", "AI_EMBED_PORT", "AI_EMBED_MODEL",
	"VEC_EMBED_HOST", "VEC_EMBED_PORT", "COLLECTION_NAME", "RETRIEVER_K", "RETRIEVER_NORMALIZE", "RETRIEVER_RERANK", "RETRIEVER_FALLBACK", "LLM_PRELOAD", "LLM_KEEP_ALIVE", "INGEST_DIR", "QDRANT_VECTOR_SIZE",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE", "INGEST_DB_PATH", "QDRANT_API_KEY",
	"APP_SERVER_CHECK", "APP_SERVER_CHECK_INTERVAL", "PERSONA_FILE",
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// isolateEnv clears every key Load reads and restores them after the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	t.Cleanup(func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	setEnv("DB_HOST", filepath.Join(t.TempDir(), "data", "test.db"))
	setEnv("INGEST_DB_PATH", filepath.Join(t.TempDir(), "state", "ingest.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLMBaseURL != "http://127.0.0.1:11434" {
		t.Errorf("LLMBaseURL = %v, want http://127.0.0.1:11434", cfg.LLMBaseURL)
	}
	if cfg.LLMDialect != "ollama" {
		t.Errorf("LLMDialect = %v, want ollama", cfg.LLMDialect)
	}
	if cfg.LLMMaxTokens != -1 {
		t.Errorf("LLMMaxTokens = %v, want -1", cfg.LLMMaxTokens)
	}
	if !cfg.LLMStream {
		t.Error("LLMStream should default to true")
	}
	if cfg.ToolMaxIterations != 5 {
		t.Errorf("ToolMaxIterations = %v, want 5", cfg.ToolMaxIterations)
	}
	if cfg.RetrieverK != 4 {
		t.Errorf("RetrieverK = %v, want 4", cfg.RetrieverK)
	}
	if !cfg.RetrieverNormalize || cfg.RetrieverRerank {
		t.Errorf("RetrieverNormalize = %v, RetrieverRerank = %v, want true, false", cfg.RetrieverNormalize, cfg.RetrieverRerank)
	}
	if cfg.RetrieverFallback {
		t.Error("RetrieverFallback should default to false")
	}
	if cfg.LLMPreload || cfg.LLMKeepAlive != "10m" {
		t.Errorf("LLMPreload = %v, LLMKeepAlive = %q, want false, 10m", cfg.LLMPreload, cfg.LLMKeepAlive)
	}
	if cfg.IngestDir != "./docs" {
		t.Errorf("IngestDir = %q, want ./docs", cfg.IngestDir)
	}
	if cfg.CollectionName != "sophia-collection" {
		t.Errorf("CollectionName = %v, want sophia-collection", cfg.CollectionName)
	}
	if !cfg.ServerCheck {
		t.Error("ServerCheck should default to true")
	}
	if cfg.ServerCheckInterval != 10*time.Second {
		t.Errorf("ServerCheckInterval = %v, want 10s", cfg.ServerCheckInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.EmbedBaseURL() != "http://127.0.0.1:11434" {
		t.Errorf("EmbedBaseURL() = %v", cfg.EmbedBaseURL())
	}
	if cfg.VectorURL() != "http://127.0.0.1:6333" {
		t.Errorf("VectorURL() = %v", cfg.VectorURL())
	}
	if _, err := os.Stat(filepath.Dir(os.Getenv("DB_HOST"))); err != nil {
		t.Errorf("Load() should create the sqlite data directory: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BASE_URL", "http://llm:1234/")
				setEnv("LLM_DIALECT", "OpenAI")
				setEnv("LLM_TEMPERATURE", "0.2")
				setEnv("LLM_MAX_TOKENS", "512")
				setEnv("LLM_STREAM", "false")
				setEnv("TOOL_MAX_ITERATIONS", "0")
				setEnv("LOG_LEVEL", "debug")
				setEnv("DB_DRIVER", "postgres")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBaseURL == "http://llm:1234" &&
					cfg.LLMDialect == "openai" &&
					cfg.LLMTemperature == 0.2 &&
					cfg.LLMMaxTokens == 512 &&
					!cfg.LLMStream &&
					cfg.ToolMaxIterations == 0 &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.DBDriver == "postgres"
			},
		},
		{
			name: "interval in milliseconds like the desktop app",
			setupEnv: func(t *testing.T) {
				setEnv("APP_SERVER_CHECK_INTERVAL", "15000")
				setEnv("APP_SERVER_CHECK", "NO")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.ServerCheckInterval == 15*time.Second && !cfg.ServerCheck
			},
		},
		{
			name: "interval as duration",
			setupEnv: func(t *testing.T) {
				setEnv("APP_SERVER_CHECK_INTERVAL", "1m")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.ServerCheckInterval == time.Minute
			},
		},
		{
			name:     "unknown dialect",
			setupEnv: func(t *testing.T) { setEnv("LLM_DIALECT", "gemini") },
			wantErr:  true,
		},
		{
			name:     "unknown db driver",
			setupEnv: func(t *testing.T) { setEnv("DB_DRIVER", "oracle") },
			wantErr:  true,
		},
		{
			name:     "temperature out of range",
			setupEnv: func(t *testing.T) { setEnv("LLM_TEMPERATURE", "1.5") },
			wantErr:  true,
		},
		{
			name:     "invalid max tokens",
			setupEnv: func(t *testing.T) { setEnv("LLM_MAX_TOKENS", "lots") },
			wantErr:  true,
		},
		{
			name:     "negative tool iterations",
			setupEnv: func(t *testing.T) { setEnv("TOOL_MAX_ITERATIONS", "-1") },
			wantErr:  true,
		},
		{
			name:     "zero retriever k",
			setupEnv: func(t *testing.T) { setEnv("RETRIEVER_K", "0") },
			wantErr:  true,
		},
		{
			name:     "invalid rerank flag",
			setupEnv: func(t *testing.T) { setEnv("RETRIEVER_RERANK", "sometimes") },
			wantErr:  true,
		},
		{
			name:     "interval too short",
			setupEnv: func(t *testing.T) { setEnv("APP_SERVER_CHECK_INTERVAL", "10ms") },
			wantErr:  true,
		},
		{
			name:     "invalid log level",
			setupEnv: func(t *testing.T) { setEnv("LOG_LEVEL", "loud") },
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			setEnv("DB_HOST", filepath.Join(t.TempDir(), "test.db"))
			setEnv("INGEST_DB_PATH", filepath.Join(t.TempDir(), "ingest.db"))
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}
