package config

import "time"

const (
	BackendRAG    = "rag"
	BackendKapa   = "kapa"
	BackendOpenAI = "openai"
)

const DefaultBackendTimeout = 60 * time.Second

type RAGConfig struct {
	URL string `validate:"required,url"`
}

// GetBackend returns which question-answering backend to use
func GetBackend() string {
	return GetEnvOrDefault("BACKEND", BackendRAG)
}

func GetRAGConfig() RAGConfig {
	return RAGConfig{
		URL: GetEnvOrDefault("RAG_URL", "http://localhost:8000"),
	}
}

// GetBackendTimeout bounds each backend request; zero disables the bound
func GetBackendTimeout() time.Duration {
	return parseEnvDuration("BACKEND_TIMEOUT", DefaultBackendTimeout)
}
