package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSHandler allows the checkout frontend to call the API from the
// configured origins. Only X-Request-ID is exposed back; responses
// carry everything else in the JSON envelope.
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
