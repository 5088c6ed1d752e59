package config

import (
	"strings"
	"time"
)

func GetListenAddr() string {
	return GetEnvOrDefault("LISTEN_ADDR", ":8080")
}

// GetSessionIdleTTL is how long an untouched session stays mounted
func GetSessionIdleTTL() time.Duration {
	return parseEnvDuration("SESSION_IDLE_TTL", 30*time.Minute)
}

// GetLogLevel returns LOG_LEVEL lowercased, defaulting to info
func GetLogLevel() string {
	return strings.ToLower(strings.TrimSpace(GetEnvOrDefault("LOG_LEVEL", "info")))
}

// GetTrustProxyHeaders reports whether X-Forwarded-For identifies the client.
// Enable only behind a proxy that overwrites the header.
func GetTrustProxyHeaders() bool {
	return GetEnvOrDefault("TRUST_PROXY_HEADERS", "false") == "true"
}
