package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	RateLimitGlobal = "global"
	RateLimitSubmit = "submit"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := GetEnvOrDefault("RATELIMIT_ENABLED", "false") == "true"

	configs := map[string]RateLimitConfig{
		RateLimitGlobal: {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GLOBAL", 1000), // 1000 requests per minute globally
			Window:  time.Minute,
		},
		RateLimitSubmit: {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_SUBMIT", 30), // 30 questions per minute
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	log.Warn().Str("key", key).Msg("No rate limit config found")
	return RateLimitConfig{Enabled: false}
}
