// Package config provides configuration management for CineMatch.
// It loads settings from environment variables with the CINEMATCH_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration settings for the CineMatch application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Security SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6464)
	Host string // Server host (default: 0.0.0.0)
}

// StorageConfig contains catalog store configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // PostgreSQL connection string
	EmbeddingDim  int    // System-wide embedding dimension (default: 768)
}

// LLMConfig contains model provider configuration.
type LLMConfig struct {
	Provider       string // Provider name (default: openai)
	OpenAIAPIKey   string // OpenAI API key
	OpenAIBaseURL  string // Override for the OpenAI API base URL
	ChatModel      string // Chat model for the rerank pass (default: gpt-4o-mini)
	EmbeddingModel string // Embedding model (default: text-embedding-3-small)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token (required in production)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the CINEMATCH_ prefix. The result is
// resolved once at startup and passed by reference; it is never re-read.
func LoadConfig() (*Config, error) {
	port, err := getEnvInt("CINEMATCH_PORT", 6464)
	if err != nil {
		return nil, err
	}
	dim, err := getEnvInt("CINEMATCH_EMBEDDING_DIM", 768)
	if err != nil {
		return nil, err
	}
	if dim < 1 {
		return nil, fmt.Errorf("config: CINEMATCH_EMBEDDING_DIM must be positive, got %d", dim)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: port,
			Host: getEnv("CINEMATCH_HOST", "0.0.0.0"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("CINEMATCH_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("CINEMATCH_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("CINEMATCH_POSTGRES_DSN", ""),
			EmbeddingDim:  dim,
		},
		LLM: LLMConfig{
			Provider:       getEnv("CINEMATCH_LLM_PROVIDER", "openai"),
			OpenAIAPIKey:   getEnv("CINEMATCH_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY")),
			OpenAIBaseURL:  getEnv("CINEMATCH_OPENAI_BASE_URL", ""),
			ChatModel:      getEnv("CINEMATCH_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("CINEMATCH_EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("CINEMATCH_SECURITY_MODE", "development"),
			APIToken:     getEnv("CINEMATCH_API_TOKEN", ""),
		},
	}

	if cfg.Storage.StorageEngine == "postgres" && cfg.Storage.PostgresDSN == "" {
		return nil, fmt.Errorf("config: CINEMATCH_POSTGRES_DSN is required when the storage engine is postgres")
	}
	if cfg.Security.SecurityMode == "production" && cfg.Security.APIToken == "" {
		return nil, fmt.Errorf("config: CINEMATCH_API_TOKEN is required in production mode")
	}

	return cfg, nil
}

// getEnv returns the environment variable value or the default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable parsed as an int, or the default
// when unset. A set-but-unparsable value is a configuration error.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, value)
	}
	return n, nil
}
