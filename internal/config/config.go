package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL      string
	LLMDialect      string
	LLMAPIKey       string
	LLMModelName    string
	LLMGeneratePath string
	LLMTemperature  float64
	LLMMaxTokens    int
	LLMStream       bool
	LLMTimeout      time.Duration
	// LLMPreload warms the default model into server memory at startup (ollama only).
	LLMPreload   bool
	LLMKeepAlive string

	ToolMaxIterations int
	ToolTimeout       time.Duration

	EmbedHost      string
	EmbedPort      string
	EmbedModelName string

	VectorHost     string
	VectorPort     string
	VectorAPIKey   string
	CollectionName string
	RetrieverK     int
	// RetrieverNormalize rewrites questions into standalone ones before embedding.
	RetrieverNormalize bool
	RetrieverRerank    bool
	// RetrieverFallback answers without context when retrieval fails.
	RetrieverFallback bool
	QdrantVectorSize  int

	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// IngestDBPath is the SQLite ledger of ingested source files.
	IngestDBPath string
	// IngestDir is the document directory POST /api/ingest reads.
	IngestDir string

	ServerCheck         bool
	ServerCheckInterval time.Duration

	PersonaFile string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// EmbedBaseURL returns the base URL of the embedding server.
func (c *Config) EmbedBaseURL() string {
	return fmt.Sprintf("http://%s:%s", c.EmbedHost, c.EmbedPort)
}

// VectorURL returns the HTTP URL of the vector store.
func (c *Config) VectorURL() string {
	return fmt.Sprintf("http://%s:%s", c.VectorHost, c.VectorPort)
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:      strings.TrimRight(getEnv("LLM_BASE_URL", "http://127.0.0.1:11434"), "/"),
		LLMDialect:      strings.ToLower(getEnv("LLM_DIALECT", "ollama")),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMModelName:    getEnv("LLM_MODEL", "llama3.1"),
		LLMGeneratePath: getEnv("LLM_GENERATE_PATH", "/api/generate"),
		LLMKeepAlive:    getEnv("LLM_KEEP_ALIVE", "10m"),

		EmbedHost:      getEnv("AI_EMBED_HOST", "127.0.0.1"),
		EmbedPort:      getEnv("AI_EMBED_PORT", "11434"),
		EmbedModelName: getEnv("AI_EMBED_MODEL", "nomic-embed-text"),

		VectorHost:     getEnv("VEC_EMBED_HOST", "127.0.0.1"),
		VectorPort:     getEnv("VEC_EMBED_PORT", "6333"),
		VectorAPIKey:   getEnv("QDRANT_API_KEY", ""),
		CollectionName: getEnv("COLLECTION_NAME", "sophia-collection"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite3")),
		DBHost:     getEnv("DB_HOST", "./data/ragchat.db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", ""),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		IngestDBPath: getEnv("INGEST_DB_PATH", "./data/ingest.db"),
		IngestDir:    getEnv("INGEST_DIR", "./docs"),

		PersonaFile: getEnv("PERSONA_FILE", ""),

		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.LLMDialect != "ollama" && cfg.LLMDialect != "openai" {
		return nil, fmt.Errorf("LLM_DIALECT must be ollama or openai, got %q", cfg.LLMDialect)
	}
	if cfg.DBDriver != "sqlite3" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", cfg.DBDriver)
	}

	if cfg.LLMTemperature, err = getEnvFloat("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 1 {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be between 0 and 1")
	}
	// Negative means the server decides.
	if cfg.LLMMaxTokens, err = getEnvInt("LLM_MAX_TOKENS", -1); err != nil {
		return nil, err
	}
	if cfg.LLMStream, err = getEnvBool("LLM_STREAM", true); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getEnvDuration("LLM_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LLMPreload, err = getEnvBool("LLM_PRELOAD", false); err != nil {
		return nil, err
	}

	if cfg.ToolMaxIterations, err = getEnvInt("TOOL_MAX_ITERATIONS", 5); err != nil {
		return nil, err
	}
	if cfg.ToolMaxIterations < 0 {
		return nil, fmt.Errorf("TOOL_MAX_ITERATIONS must not be negative")
	}
	if cfg.ToolTimeout, err = getEnvDuration("TOOL_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	if cfg.RetrieverK, err = getEnvInt("RETRIEVER_K", 4); err != nil {
		return nil, err
	}
	if cfg.RetrieverK <= 0 {
		return nil, fmt.Errorf("RETRIEVER_K must be greater than 0")
	}
	if cfg.RetrieverNormalize, err = getEnvBool("RETRIEVER_NORMALIZE", true); err != nil {
		return nil, err
	}
	if cfg.RetrieverRerank, err = getEnvBool("RETRIEVER_RERANK", false); err != nil {
		return nil, err
	}
	if cfg.RetrieverFallback, err = getEnvBool("RETRIEVER_FALLBACK", false); err != nil {
		return nil, err
	}
	if cfg.QdrantVectorSize, err = getEnvInt("QDRANT_VECTOR_SIZE", 768); err != nil {
		return nil, err
	}
	if cfg.QdrantVectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}

	// The original desktop app used YES/NO flags.
	cfg.ServerCheck = strings.EqualFold(getEnv("APP_SERVER_CHECK", "YES"), "YES")
	if cfg.ServerCheckInterval, err = getEnvDuration("APP_SERVER_CHECK_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ServerCheckInterval < time.Second {
		return nil, fmt.Errorf("APP_SERVER_CHECK_INTERVAL must be at least 1s")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	dataDirs := []string{filepath.Dir(cfg.IngestDBPath)}
	if cfg.DBDriver == "sqlite3" {
		dataDirs = append(dataDirs, filepath.Dir(cfg.DBHost))
	}
	for _, dataDir := range dataDirs {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return v, nil
}

// getEnvDuration accepts Go durations ("10s") or bare milliseconds ("10000").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration or milliseconds: %w", key, err)
	}
	return v, nil
}
