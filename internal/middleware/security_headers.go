package middleware

import (
	"net/http"
)

// SecurityHeaders attaches baseline security headers to every response.
// A caller-provided Content-Security-Policy is preserved.
func SecurityHeaders(csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("X-Frame-Options", "DENY")
			if csp != "" && headers.Get("Content-Security-Policy") == "" {
				headers.Set("Content-Security-Policy", csp)
			}
			next.ServeHTTP(w, r)
		})
	}
}
