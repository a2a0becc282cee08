package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/greensolartech/storefront/pkg/config"
	"github.com/greensolartech/storefront/pkg/logger"
)

// CartSession identifies the browser by its cart cookie, issuing a new
// random id when the cookie is missing or malformed. The cookie is
// refreshed on every request so active carts do not expire.
func CartSession(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	name := cfg.CookieName
	if name == "" {
		name = "cart_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(name); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			issued := id == ""
			if issued {
				id = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.CookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithCartSession(r.Context(), id)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, id)
				if issued {
					logg.Debug(ctx, "cart session issued")
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
