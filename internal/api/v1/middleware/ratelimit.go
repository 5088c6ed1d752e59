package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/pkg/httpext"
	"github.com/deepgram/pdfchat/pkg/ratelimit"
)

// RateLimit limits requests per caller under limitKey. Callers are keyed by
// token subject when authenticated, otherwise by client address. A nil
// counter keeps the window in process memory.
func RateLimit(limitKey string, counter ratelimit.Counter) func(http.Handler) http.Handler {
	cfg := config.GetRateLimitConfig(limitKey)
	trustProxy := config.GetTrustProxyHeaders()

	var limiter ratelimit.Allower
	if counter != nil {
		limiter = ratelimit.NewCounterLimiter(counter, limitKey, cfg.Window, cfg.MaxHits)
	} else {
		limiter = ratelimit.NewLimiter(cfg.Window, cfg.MaxHits)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := callerKey(r, trustProxy)
			if !limiter.Allow(r.Context(), key) {
				log.Warn().
					Str("caller", key).
					Str("limit", limitKey).
					Msg("Rate limit exceeded")
				httpext.JsonError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request, trustProxy bool) string {
	if validation := GetTokenValidation(r); validation != nil && validation.Subject != "" {
		return "sub:" + validation.Subject
	}

	// X-Forwarded-For is client controlled unless a proxy rewrites it
	if forwarded := r.Header.Get("X-Forwarded-For"); trustProxy && forwarded != "" {
		return "ip:" + strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
