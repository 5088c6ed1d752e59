package oauth

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ExtractToken reads a bearer token from the Authorization header. Browsers
// cannot set headers on a WebSocket upgrade, so the access_token query
// parameter is accepted as a fallback.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token
		}
		log.Debug().Msg("No Authorization header found")
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		log.Warn().Msg("Malformed Authorization header")
		return ""
	}

	return parts[1]
}

type TokenValidationResult struct {
	Valid     bool
	Subject   string
	ExpiresAt time.Time
	Scopes    []string
}

func (r *TokenValidationResult) HasScope(scope string) bool {
	return slices.Contains(r.Scopes, scope)
}

type CustomClaims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scp"`
}

func ValidateToken(tokenString string) TokenValidationResult {
	result := TokenValidationResult{Valid: false}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse token")
		return result
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		log.Error().Msg("Invalid token claims")
		return result
	}

	if claims.Subject == "" {
		log.Warn().Msg("Missing subject in token")
		return result
	}

	result.Valid = true
	result.Subject = claims.Subject
	result.Scopes = claims.Scopes
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	log.Debug().Str("subject", claims.Subject).Strs("scopes", claims.Scopes).Msg("Token successfully validated")
	return result
}

// IssueToken signs an HS256 token for subject carrying scopes
func IssueToken(subject string, scopes []string, lifetime time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Scopes: scopes,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.GetJWTSecret())
}
