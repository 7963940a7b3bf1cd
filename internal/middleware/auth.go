package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"halloween-rock-api/internal/model"
	"halloween-rock-api/internal/service"
	"halloween-rock-api/pkg/apierror"
)

// SessionDataKey is the key for storing session data in request context.
const SessionDataKey contextKey = "session_data"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	SessionService *service.SessionService
	APIKeys        []string
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. Requests authenticate with a player session token (X-Token)
// or a static API key (X-API-Key / bearer token); health endpoints and
// session creation stay open.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check endpoints
			if r.URL.Path == "/api/v1/health" || r.URL.Path == "/api/v1/ready" {
				next.ServeHTTP(w, r)
				return
			}

			// Skip auth for session creation
			if r.URL.Path == "/api/v1/auth/session" && r.Method == "POST" {
				next.ServeHTTP(w, r)
				return
			}

			// Try X-Token first (player session tokens)
			token := r.Header.Get("X-Token")
			if token != "" && cfg.SessionService != nil {
				sessionData, err := cfg.SessionService.ValidateSession(r.Context(), token)
				if err != nil {
					writeError(w, apierror.Unauthorized("Invalid or expired session"))
					return
				}

				ctx := context.WithValue(r.Context(), SessionDataKey, sessionData)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Fall back to X-API-Key
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or X-API-Key header."))
				return
			}

			// Validate API key
			validKeys := cfg.APIKeys
			if len(validKeys) == 0 {
				validKeys = getAPIKeysFromEnv()
			}

			if !isValidKey(apiKey, validKeys) {
				writeError(w, apierror.Unauthorized("Invalid API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// getAPIKeysFromEnv returns API keys from environment variables.
func getAPIKeysFromEnv() []string {
	keysEnv := os.Getenv("API_KEYS")
	if keysEnv == "" {
		singleKey := os.Getenv("API_KEY")
		if singleKey != "" {
			return []string{singleKey}
		}
		return nil
	}

	keys := strings.Split(keysEnv, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// isValidKey checks if the provided key is in the valid keys list.
func isValidKey(key string, validKeys []string) bool {
	for _, valid := range validKeys {
		if key == valid {
			return true
		}
	}
	return false
}

// GetSessionFromContext retrieves session data from request context.
func GetSessionFromContext(ctx context.Context) *model.SessionData {
	if data, ok := ctx.Value(SessionDataKey).(*model.SessionData); ok {
		return data
	}
	return nil
}
