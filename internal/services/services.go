package services

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/connections"
	domainchat "github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/infrastructure/kapa"
	"github.com/deepgram/pdfchat/internal/infrastructure/openai"
	"github.com/deepgram/pdfchat/internal/infrastructure/rag"
	"github.com/deepgram/pdfchat/internal/infrastructure/redis"
	"github.com/deepgram/pdfchat/internal/services/chat"
	"github.com/deepgram/pdfchat/pkg/ratelimit"
	"github.com/rs/zerolog/log"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	backend            domainchat.Backend
	sessionManager     *chat.Manager
	redisService       *redis.Service
	connectionsManager *connections.Manager
}

// InitializeServices initializes all required services
func InitializeServices(cfg *config.Config) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Str("backend", cfg.Backend).Msg("Initializing core services")

	backend, err := NewBackend(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize question-answering backend")
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	// Redis is optional; rate limits fall back to process memory without it
	redisService := redis.NewService(cfg.Redis)
	log.Info().Bool("available", redisService != nil).Msg("Initializing Redis service")

	manager := chat.NewManager(backend, cfg.SessionIdleTTL, chat.WithTimeout(cfg.BackendTimeout))
	log.Info().Dur("idle_ttl", cfg.SessionIdleTTL).Msg("Initializing session manager")

	log.Info().Msg("All services initialized successfully")

	return NewServices(backend, manager, redisService), nil
}

func NewServices(backend domainchat.Backend, manager *chat.Manager, redisService *redis.Service) *Services {
	return &Services{
		backend:            backend,
		sessionManager:     manager,
		redisService:       redisService,
		connectionsManager: connections.NewManager(connections.DefaultTimeouts),
	}
}

// NewBackend builds the question-answering backend selected by cfg.Backend
func NewBackend(cfg *config.Config) (domainchat.Backend, error) {
	client := &http.Client{}

	switch cfg.Backend {
	case config.BackendRAG:
		return rag.NewService(cfg.RAG, client), nil
	case config.BackendKapa:
		return kapa.NewService(cfg.Kapa, client), nil
	case config.BackendOpenAI:
		return openai.NewService(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// GetBackend returns the question-answering backend
func (s *Services) GetBackend() domainchat.Backend {
	return s.backend
}

// GetSessionManager returns the session manager
func (s *Services) GetSessionManager() *chat.Manager {
	return s.sessionManager
}

// GetConnectionsManager returns the stream connection registry
func (s *Services) GetConnectionsManager() *connections.Manager {
	return s.connectionsManager
}

// GetRateCounter returns the shared rate limit counter, or nil when Redis is unavailable
func (s *Services) GetRateCounter() ratelimit.Counter {
	if s.redisService == nil {
		return nil
	}
	return s.redisService
}

// Close releases external connections
func (s *Services) Close() error {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if s.redisService != nil {
		if err := s.redisService.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}
	return nil
}
