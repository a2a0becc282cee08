package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/greensolartech/storefront/pkg/config"
)

var defaultCORSOrigins = []string{"http://localhost:8000"}

// CORS lets the storefront pages call the cart API with their cookies.
func CORS(cfg config.CORSConfig, csrfHeader string) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	if csrfHeader == "" {
		csrfHeader = "X-CSRFToken"
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader, csrfHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
