// Package checkout drives one cart session: it turns page gestures into
// cart mutations and modal transitions, and runs order submission.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/greensolartech/storefront/internal/cart"
	"github.com/greensolartech/storefront/internal/cartstore"
	"github.com/greensolartech/storefront/internal/cartview"
	"github.com/greensolartech/storefront/internal/modal"
	"github.com/greensolartech/storefront/internal/orders"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/logger"
	"github.com/greensolartech/storefront/pkg/metrics"
)

// Submitter sends an order for a cart snapshot.
type Submitter interface {
	Submit(ctx context.Context, snapshot cart.Snapshot, customer orders.CustomerFields) (*orders.Result, error)
}

// Deps are shared by every session.
type Deps struct {
	Orders      Submitter
	Logger      *logger.Logger
	Metrics     *metrics.CartMetrics
	AutoDismiss time.Duration
	Now         func() time.Time
}

// Session owns the cart and modal of one browser session. Gestures are
// serialized by mu; the order request itself runs unlocked.
type Session struct {
	id      string
	mu      sync.Mutex
	cart    *cart.Cart
	modal   *modal.Machine
	store   *cartstore.Adapter
	orders  Submitter
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time

	form        cartview.FormState
	submitting  bool
	checkoutGen uint64
	notices     []Notice
	lastActive  time.Time
}

// NewSession loads the stored cart for id and wires persistence.
func NewSession(ctx context.Context, id string, store *cartstore.Adapter, deps Deps) *Session {
	s := &Session{
		id:      id,
		store:   store,
		orders:  deps.Orders,
		logg:    deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Now,
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	autoDismiss := deps.AutoDismiss
	if autoDismiss == 0 {
		autoDismiss = modal.DefaultAutoDismiss
	}

	ctx = s.logg.WithCartSession(ctx, id)
	s.cart = cart.New(store.Load(ctx), cart.WithPersister(store), cart.WithObserver(s.onChange))
	s.modal = modal.New(
		modal.WithClock(s.now),
		modal.WithAutoDismiss(autoDismiss),
		modal.WithObserver(s.onTransition),
	)
	s.lastActive = s.now()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// LastActive reports when the session last handled a gesture.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Busy reports whether an order submission is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// View returns the current view and drains pending notices.
func (s *Session) View(ctx context.Context) View {
	return s.do(ctx, func(context.Context) {})
}

// Add puts a product in the cart.
func (s *Session) Add(ctx context.Context, in cart.ProductInput) (View, error) {
	var addErr error
	v := s.do(ctx, func(ctx context.Context) {
		item, err := s.cart.AddItem(ctx, in)
		if err != nil {
			addErr = err
			return
		}
		s.notices = append(s.notices, addedNotice(item.Name))
	})
	return v, addErr
}

func (s *Session) Remove(ctx context.Context, id string) View {
	return s.do(ctx, func(ctx context.Context) {
		s.cart.RemoveItem(ctx, id)
	})
}

// SetQuantity sets an item's quantity; n <= 0 removes it.
func (s *Session) SetQuantity(ctx context.Context, id string, n int) View {
	return s.do(ctx, func(ctx context.Context) {
		s.cart.UpdateQuantity(ctx, id, n)
	})
}

func (s *Session) Increment(ctx context.Context, id string) View {
	return s.step(ctx, id, 1)
}

// Decrement lowers the quantity by one, removing the item at zero.
func (s *Session) Decrement(ctx context.Context, id string) View {
	return s.step(ctx, id, -1)
}

func (s *Session) Clear(ctx context.Context) View {
	return s.do(ctx, func(ctx context.Context) {
		s.cart.Clear(ctx)
		s.notices = append(s.notices, clearedNotice)
	})
}

func (s *Session) Open(ctx context.Context) View {
	return s.do(ctx, func(ctx context.Context) {
		s.modal.Open(ctx)
	})
}

func (s *Session) Close(ctx context.Context) View {
	return s.do(ctx, func(ctx context.Context) {
		s.modal.Close(ctx)
		s.form = cartview.FormState{}
	})
}

func (s *Session) Escape(ctx context.Context) View {
	return s.do(ctx, func(ctx context.Context) {
		s.modal.Escape(ctx)
		s.form = cartview.FormState{}
	})
}

// Proceed opens the checkout form. On an empty cart the state is kept and a
// notice is queued.
func (s *Session) Proceed(ctx context.Context) View {
	return s.do(ctx, func(ctx context.Context) {
		if s.modal.ProceedToCheckout(ctx, s.cart.IsEmpty()) {
			s.checkoutGen++
			s.form = cartview.FormState{}
			return
		}
		if s.modal.State() == modal.ViewingItems && s.cart.IsEmpty() {
			s.notices = append(s.notices, emptyCartNotice)
		}
	})
}

// Back returns to the item list and discards the form draft.
func (s *Session) Back(ctx context.Context) View {
	return s.do(ctx, func(ctx context.Context) {
		if s.modal.Back(ctx) {
			s.form = cartview.FormState{}
		}
	})
}

// Submit sends the order for the current cart. It is only accepted while
// the checkout form is shown and no other submission is in flight. The
// result is discarded if the form was left before the response arrived.
func (s *Session) Submit(ctx context.Context, customer orders.CustomerFields) (View, error) {
	ctx = s.logg.WithCartSession(ctx, s.id)

	s.mu.Lock()
	s.lastActive = s.now()
	if s.modal.State() != modal.CheckingOut {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout form is not open")
	}
	if s.submitting {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	}
	s.submitting = true
	s.form = formFrom(customer)
	gen := s.checkoutGen
	snapshot := s.cart.Snapshot()
	s.mu.Unlock()

	start := s.now()
	res, err := s.submitter().Submit(context.WithoutCancel(ctx), snapshot, customer)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.lastActive = s.now()

	if s.modal.State() != modal.CheckingOut || s.checkoutGen != gen {
		s.metrics.ObserveSubmission(outcomeOf(err), elapsed)
		s.logg.Warn(s.logg.WithField(ctx, "outcome", outcomeOf(err)), "order result ignored after checkout was left")
		return s.viewLocked(), nil
	}

	if err != nil {
		s.metrics.ObserveSubmission(outcomeOf(err), elapsed)
		s.form = formFrom(customer)
		s.applyError(err)
		return s.viewLocked(), err
	}

	s.metrics.ObserveSubmission(metrics.OutcomeSuccess, elapsed)
	if res != nil && res.OrderID != "" {
		ctx = s.logg.WithField(ctx, "order_id", res.OrderID)
	}
	s.logg.Info(ctx, "order submitted")

	s.cart.RemoveOrdered(ctx, snapshot)
	s.modal.OrderSucceeded(ctx)
	s.form = cartview.FormState{}
	return s.viewLocked(), nil
}

func (s *Session) submitter() Submitter {
	if s.orders == nil {
		return unconfiguredSubmitter{}
	}
	return s.orders
}

func (s *Session) applyError(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		s.form.Error = cartview.SubmitFailed
		s.form.Retryable = true
		return
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation:
		if details, ok := typed.Details().(map[string]string); ok {
			s.form.FieldErrors = details
		}
		s.form.Error = typed.Message()
	default:
		msg := typed.Message()
		if msg == "" || msg == orders.DefaultFailureMessage {
			msg = cartview.SubmitFailed
		}
		s.form.Error = msg
		s.form.Retryable = typed.Retryable()
	}
}

func (s *Session) step(ctx context.Context, id string, delta int) View {
	return s.do(ctx, func(ctx context.Context) {
		item, ok := s.cart.Snapshot().Find(id)
		if !ok {
			return
		}
		s.cart.UpdateQuantity(ctx, id, item.Quantity+delta)
	})
}

func (s *Session) do(ctx context.Context, fn func(ctx context.Context)) View {
	ctx = s.logg.WithCartSession(ctx, s.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	fn(ctx)
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	state := s.modal.State()
	snapshot := s.cart.Snapshot()
	v := View{
		State: state,
		Badge: cartview.RenderBadge(snapshot),
		List:  cartview.RenderList(snapshot),
	}
	switch state {
	case modal.CheckingOut:
		form := s.form
		form.Submitting = s.submitting
		checkout := cartview.RenderCheckout(snapshot, form)
		v.Checkout = &checkout
	case modal.OrderSucceeded:
		success := cartview.RenderSuccess(s.modal.AutoDismissIn())
		v.Success = &success
	}
	if len(s.notices) > 0 {
		v.Notices = s.notices
		s.notices = nil
	}
	return v
}

func (s *Session) onChange(ctx context.Context, change cart.Change) {
	s.metrics.IncMutation(string(change.Kind))
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"change":  string(change.Kind),
		"item_id": change.ItemID,
	}), "cart changed")
}

func (s *Session) onTransition(ctx context.Context, from, to modal.State) {
	s.metrics.IncModalTransition(string(from), string(to))
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"from": string(from),
		"to":   string(to),
	}), "cart modal transition")
}

func formFrom(c orders.CustomerFields) cartview.FormState {
	return cartview.FormState{
		Name:    c.Name,
		Phone:   c.Phone,
		Email:   c.Email,
		Comment: c.Comment,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailure
	}
}

type unconfiguredSubmitter struct{}

func (unconfiguredSubmitter) Submit(context.Context, cart.Snapshot, orders.CustomerFields) (*orders.Result, error) {
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "order client not configured")
}
