package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greensolartech/storefront/api/middleware"
	"github.com/greensolartech/storefront/api/responses"
	"github.com/greensolartech/storefront/api/validators"
	"github.com/greensolartech/storefront/internal/checkout"
	"github.com/greensolartech/storefront/internal/orders"
	"github.com/greensolartech/storefront/pkg/config"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/logger"
)

// SessionProvider resolves the checkout session for a cart session id.
type SessionProvider interface {
	Get(ctx context.Context, id string) (*checkout.Session, error)
}

// GestureFunc maps a request onto one session gesture.
type GestureFunc func(s *checkout.Session, r *http.Request) checkout.View

// CartView returns the current cart view.
func CartView(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return Gesture(sessions, logg, func(s *checkout.Session, r *http.Request) checkout.View {
		return s.View(r.Context())
	})
}

// CartBadge returns only the header counter.
func CartBadge(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := resolve(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, newBadgeResponse(s.View(r.Context()).Badge))
	}
}

// Gesture runs a gesture that cannot fail and writes the resulting view.
func Gesture(sessions SessionProvider, logg *logger.Logger, fn GestureFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := resolve(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, fn(s, r))
	}
}

// CartAddItem adds a product to the cart.
func CartAddItem(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := resolve(w, r, sessions, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := s.Add(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartSetQuantity sets an item's quantity; zero or less removes it.
func CartSetQuantity(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := resolve(w, r, sessions, logg)
		if !ok {
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, s.SetQuantity(r.Context(), itemID(r), *payload.Quantity))
	}
}

func CartIncrement(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return Gesture(sessions, logg, func(s *checkout.Session, r *http.Request) checkout.View {
		return s.Increment(r.Context(), itemID(r))
	})
}

func CartDecrement(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return Gesture(sessions, logg, func(s *checkout.Session, r *http.Request) checkout.View {
		return s.Decrement(r.Context(), itemID(r))
	})
}

func CartRemoveItem(sessions SessionProvider, logg *logger.Logger) http.HandlerFunc {
	return Gesture(sessions, logg, func(s *checkout.Session, r *http.Request) checkout.View {
		return s.Remove(r.Context(), itemID(r))
	})
}

// CartSubmit sends the order, forwarding the browser's CSRF token.
func CartSubmit(sessions SessionProvider, cfg config.OrdersConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := resolve(w, r, sessions, logg)
		if !ok {
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := orders.RequestToken(r, cfg.CSRFHeader, cfg.CSRFCookie)
		ctx := orders.WithToken(r.Context(), string(token))

		view, err := s.Submit(ctx, payload.toCustomer())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func resolve(w http.ResponseWriter, r *http.Request, sessions SessionProvider, logg *logger.Logger) (*checkout.Session, bool) {
	if sessions == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart sessions unavailable"))
		return nil, false
	}
	id := middleware.CartSessionFromContext(r.Context())
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("cart session missing"))
		return nil, false
	}
	s, err := sessions.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return s, true
}

func itemID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "itemId"))
}
