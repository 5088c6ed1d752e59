package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is everything the chat client reads from the environment
type Config struct {
	Backend        string        `validate:"oneof=rag kapa openai"`
	BackendTimeout time.Duration `validate:"gte=0"`
	RAG            RAGConfig     `validate:"-"`
	Kapa           KapaConfig    `validate:"-"`
	OpenAI         OpenAIConfig  `validate:"-"`
	Redis          RedisConfig   `validate:"-"`
	ListenAddr     string        `validate:"required"`
	SessionIdleTTL time.Duration `validate:"gte=0"`
	LogLevel       string        `validate:"omitempty,oneof=trace debug info warn warning error fatal"`
}

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates the configuration
func Load() (*Config, error) {
	cfg := &Config{
		Backend:        GetBackend(),
		BackendTimeout: GetBackendTimeout(),
		RAG:            GetRAGConfig(),
		Kapa:           GetKapaConfig(),
		OpenAI:         GetOpenAIConfig(),
		Redis:          GetRedisConfig(),
		ListenAddr:     GetListenAddr(),
		SessionIdleTTL: GetSessionIdleTTL(),
		LogLevel:       GetLogLevel(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the top level settings and the settings of the selected backend only
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var backend any
	switch c.Backend {
	case BackendRAG:
		backend = c.RAG
	case BackendKapa:
		backend = c.Kapa
	case BackendOpenAI:
		backend = c.OpenAI
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if err := validate.Struct(backend); err != nil {
		return fmt.Errorf("invalid %s backend configuration: %w", c.Backend, err)
	}
	return nil
}
