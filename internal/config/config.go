// Package config loads doc2dev configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// GitHub API
	GitHubToken      string
	FetchConcurrency int

	// Embeddings
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string
	OpenAIAPIKey   string

	// Summarization LLM
	LLMProvider     Provider
	LLMModel        string
	AnthropicAPIKey string

	// Server
	ServerPort    string
	QueryPageBase string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "doc2dev"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "docs"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		FetchConcurrency: getEnvInt("DOC2DEV_FETCH_CONCURRENCY", 4),

		EmbedProvider:  Provider(getEnv("DOC2DEV_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("DOC2DEV_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("DOC2DEV_EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		LLMProvider:     Provider(getEnv("DOC2DEV_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:        getEnv("DOC2DEV_LLM_MODEL", "llama3.2"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		ServerPort:    getEnv("DOC2DEV_SERVER_PORT", "8080"),
		QueryPageBase: getEnv("DOC2DEV_QUERY_PAGE", "http://localhost:3000"),

		LogFile:  getEnv("DOC2DEV_LOG_FILE", "/tmp/doc2dev.log"),
		LogLevel: parseLogLevel(getEnv("DOC2DEV_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
