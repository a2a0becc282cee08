// Package modal tracks which cart modal screen is visible.
package modal

import (
	"context"
	"time"
)

type State string

const (
	Closed         State = "closed"
	ViewingItems   State = "viewing_items"
	CheckingOut    State = "checking_out"
	OrderSucceeded State = "order_succeeded"
)

// DefaultAutoDismiss is how long the success screen stays up.
const DefaultAutoDismiss = 5 * time.Second

// Observer is told about every state change.
type Observer func(ctx context.Context, from, to State)

type Option func(*Machine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithAutoDismiss sets how long OrderSucceeded lasts before it reads as
// Closed. Zero or negative disables auto-dismiss.
func WithAutoDismiss(d time.Duration) Option {
	return func(m *Machine) {
		m.autoDismiss = d
	}
}

func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// Machine is the cart modal state machine. Invalid transitions return false
// and leave the state unchanged. It is not safe for concurrent use.
type Machine struct {
	state       State
	succeededAt time.Time
	autoDismiss time.Duration
	now         func() time.Time
	observers   []Observer
}

func New(opts ...Option) *Machine {
	m := &Machine{
		state:       Closed,
		autoDismiss: DefaultAutoDismiss,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the effective state, applying auto-dismiss of the success
// screen once its timeout has elapsed.
func (m *Machine) State() State {
	m.expire()
	return m.state
}

// AutoDismissIn reports the remaining time before the success screen closes.
func (m *Machine) AutoDismissIn() time.Duration {
	if m.State() != OrderSucceeded || m.autoDismiss <= 0 {
		return 0
	}
	return m.autoDismiss - m.now().Sub(m.succeededAt)
}

// Open shows the item list. Opening an already visible list is accepted.
func (m *Machine) Open(ctx context.Context) bool {
	switch m.State() {
	case Closed:
		m.transition(ctx, ViewingItems)
		return true
	case ViewingItems:
		return true
	default:
		return false
	}
}

// Close hides the modal from any state.
func (m *Machine) Close(ctx context.Context) bool {
	if m.State() != Closed {
		m.transition(ctx, Closed)
	}
	return true
}

// Escape closes regardless of the current screen.
func (m *Machine) Escape(ctx context.Context) bool {
	return m.Close(ctx)
}

// ProceedToCheckout moves from the list to the checkout form. It is refused
// while the cart is empty.
func (m *Machine) ProceedToCheckout(ctx context.Context, cartEmpty bool) bool {
	if m.State() != ViewingItems || cartEmpty {
		return false
	}
	m.transition(ctx, CheckingOut)
	return true
}

// Back returns from the checkout form to the list.
func (m *Machine) Back(ctx context.Context) bool {
	if m.State() != CheckingOut {
		return false
	}
	m.transition(ctx, ViewingItems)
	return true
}

// OrderSucceeded shows the success screen after a completed submission.
func (m *Machine) OrderSucceeded(ctx context.Context) bool {
	if m.State() != CheckingOut {
		return false
	}
	m.succeededAt = m.now()
	m.transition(ctx, OrderSucceeded)
	return true
}

func (m *Machine) expire() {
	if m.state != OrderSucceeded || m.autoDismiss <= 0 {
		return
	}
	if m.now().Sub(m.succeededAt) >= m.autoDismiss {
		from := m.state
		m.state = Closed
		m.notify(context.Background(), from, Closed)
	}
}

func (m *Machine) transition(ctx context.Context, to State) {
	from := m.state
	m.state = to
	m.notify(ctx, from, to)
}

func (m *Machine) notify(ctx context.Context, from, to State) {
	for _, o := range m.observers {
		o(ctx, from, to)
	}
}
