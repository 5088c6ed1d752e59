package config

import (
	"github.com/rs/zerolog/log"
)

type RedisConfig struct {
	URL      string
	Password string
}

func GetRedisURL() string {
	value := GetEnvOrDefault("REDIS_URL", "")
	if value == "" {
		log.Debug().Msg("Redis URL not set - rate limits will be kept in memory")
	}
	return value
}

func GetRedisPassword() string {
	return GetEnvOrDefault("REDIS_PASSWORD", "")
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      GetRedisURL(),
		Password: GetRedisPassword(),
	}
}
