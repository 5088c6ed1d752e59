package redis

import (
	"context"
	"time"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Service struct {
	client *redis.Client
}

// NewService connects to Redis. It returns nil when Redis is not configured
// or unreachable so callers can fall back to in-memory state.
func NewService(cfg config.RedisConfig) *Service {
	if cfg.URL == "" {
		log.Warn().Msg("Redis URL not configured - service will be unavailable")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", cfg.URL).
			Msg("Failed to establish Redis connection")
		client.Close()
		return nil
	}

	return NewServiceWithClient(client)
}

func NewServiceWithClient(client *redis.Client) *Service {
	return &Service{
		client: client,
	}
}

// IncrWindow increments the counter at key. The first hit creates the key
// with the window as its expiry in the same transaction, so a counter can
// never outlive its window.
func (s *Service) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Dur("window", window).
			Msg("Critical Redis counter transaction failed")
		return 0, err
	}
	return incr.Val(), nil
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}
