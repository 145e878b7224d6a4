package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the storefront origin policy. The session header must be readable by the browser client.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", SessionHeader, langHeader, "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{SessionHeader, "X-Request-Id", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
