package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/vuhnger/backend/internal/util"
)

// APIKeyHeader is the request header carrying the internal API key.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose X-API-Key header does not match the
// configured key. An empty configured key disables the check (development
// mode), matching the behavior of the proxied deployments.
func RequireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				util.JSONResponse(w, http.StatusUnauthorized, map[string]any{
					"message": "Invalid or missing API key",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
