package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greensolartech/storefront/api/controllers"
	cartcontrollers "github.com/greensolartech/storefront/api/controllers/cart"
	"github.com/greensolartech/storefront/api/middleware"
	"github.com/greensolartech/storefront/internal/checkout"
	"github.com/greensolartech/storefront/pkg/config"
	"github.com/greensolartech/storefront/pkg/logger"
)

// Deps carries what the HTTP surface needs from cmd wiring.
type Deps struct {
	Sessions cartcontrollers.SessionProvider
	Pingers  map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS, cfg.Orders.CSRFHeader),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	sessions := deps.Sessions
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartSession(cfg.Session, logg))

		r.Get("/", cartcontrollers.CartView(sessions, logg))
		r.Delete("/", gesture(sessions, logg, (*checkout.Session).Clear))
		r.Get("/badge", cartcontrollers.CartBadge(sessions, logg))

		r.Route("/items", func(r chi.Router) {
			r.Post("/", cartcontrollers.CartAddItem(sessions, logg))
			r.Patch("/{itemId}", cartcontrollers.CartSetQuantity(sessions, logg))
			r.Delete("/{itemId}", cartcontrollers.CartRemoveItem(sessions, logg))
			r.Post("/{itemId}/increment", cartcontrollers.CartIncrement(sessions, logg))
			r.Post("/{itemId}/decrement", cartcontrollers.CartDecrement(sessions, logg))
		})

		r.Route("/modal", func(r chi.Router) {
			r.Post("/open", gesture(sessions, logg, (*checkout.Session).Open))
			r.Post("/close", gesture(sessions, logg, (*checkout.Session).Close))
			r.Post("/escape", gesture(sessions, logg, (*checkout.Session).Escape))
			r.Post("/checkout", gesture(sessions, logg, (*checkout.Session).Proceed))
			r.Post("/back", gesture(sessions, logg, (*checkout.Session).Back))
		})

		r.Post("/checkout", cartcontrollers.CartSubmit(sessions, cfg.Orders, logg))
	})

	return r
}

func gesture(sessions cartcontrollers.SessionProvider, logg *logger.Logger, fn func(*checkout.Session, context.Context) checkout.View) http.HandlerFunc {
	return cartcontrollers.Gesture(sessions, logg, func(s *checkout.Session, r *http.Request) checkout.View {
		return fn(s, r.Context())
	})
}
