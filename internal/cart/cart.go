// Package cart holds the in-memory cart: an ordered list of line items with
// at most one entry per product id. A Cart is not safe for concurrent use;
// callers serialize access per cart session.
package cart

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
	"github.com/greensolartech/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// ChangeKind names the mutation reported to observers.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeQuantity ChangeKind = "quantity"
	ChangeCleared  ChangeKind = "cleared"
	ChangeOrdered  ChangeKind = "ordered"
)

// Change describes one applied mutation.
type Change struct {
	Kind     ChangeKind
	ItemID   string
	Name     string
	Quantity int
}

// Observer is notified after every applied mutation.
type Observer func(ctx context.Context, change Change)

// Persister receives the full item list after every mutation. Errors are the
// persister's concern; the in-memory cart stays authoritative.
type Persister interface {
	Save(ctx context.Context, items []LineItem) error
}

// Option configures a Cart.
type Option func(*Cart)

// WithPersister writes items through p after every mutation.
func WithPersister(p Persister) Option {
	return func(c *Cart) {
		c.persister = p
	}
}

// WithObserver registers an observer for applied mutations.
func WithObserver(o Observer) Option {
	return func(c *Cart) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

type Cart struct {
	items     []LineItem
	persister Persister
	observers []Observer
}

// New builds a cart seeded with items, typically the output of a store load.
// Entries without an id are skipped, duplicate ids are merged, and
// quantities are bounded to [1, MaxQuantity].
func New(items []LineItem, opts ...Option) *Cart {
	c := &Cart{items: make([]LineItem, 0, len(items))}
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			continue
		}
		it.Quantity = ClampQuantity(it.Quantity)
		if idx := c.indexOf(it.ID); idx >= 0 {
			c.items[idx].Quantity = ClampQuantity(c.items[idx].Quantity + it.Quantity)
			continue
		}
		c.items = append(c.items, it)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddItem validates input and either appends a new line item or increments
// the quantity of the existing one. Quantity zero means one. A merge that
// would exceed MaxQuantity is rejected and leaves the cart unchanged.
func (c *Cart) AddItem(ctx context.Context, in ProductInput) (LineItem, error) {
	item, err := validateInput(in)
	if err != nil {
		return LineItem{}, err
	}

	if idx := c.indexOf(item.ID); idx >= 0 {
		if c.items[idx].Quantity+item.Quantity > MaxQuantity {
			return LineItem{}, quantityLimitError()
		}
		c.items[idx].Quantity += item.Quantity
		item = c.items[idx]
	} else {
		c.items = append(c.items, item)
	}

	c.commit(ctx, Change{Kind: ChangeAdded, ItemID: item.ID, Name: item.Name, Quantity: item.Quantity})
	return item, nil
}

// RemoveItem drops the item with id. Unknown ids are ignored.
func (c *Cart) RemoveItem(ctx context.Context, id string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	removed := c.items[idx]
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.commit(ctx, Change{Kind: ChangeRemoved, ItemID: removed.ID, Name: removed.Name})
}

// UpdateQuantity sets the quantity of id; n <= 0 removes the item and n
// above MaxQuantity is capped. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(ctx context.Context, id string, n int) {
	if n <= 0 {
		c.RemoveItem(ctx, id)
		return
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	n = ClampQuantity(n)
	c.items[idx].Quantity = n
	it := c.items[idx]
	c.commit(ctx, Change{Kind: ChangeQuantity, ItemID: it.ID, Name: it.Name, Quantity: n})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.items = c.items[:0]
	c.commit(ctx, Change{Kind: ChangeCleared})
}

// RemoveOrdered takes the quantities of ordered out of the cart. Items that
// were added or raised after the snapshot was taken keep the difference.
func (c *Cart) RemoveOrdered(ctx context.Context, ordered Snapshot) {
	kept := c.items[:0]
	for _, it := range c.items {
		if o, ok := ordered.Find(it.ID); ok {
			it.Quantity -= o.Quantity
			if it.Quantity <= 0 {
				continue
			}
		}
		kept = append(kept, it)
	}
	c.items = kept
	c.commit(ctx, Change{Kind: ChangeOrdered, Quantity: ordered.TotalQuantity()})
}

func (c *Cart) Snapshot() Snapshot {
	return NewSnapshot(c.items)
}

func (c *Cart) TotalQuantity() int {
	return Snapshot{Items: c.items}.TotalQuantity()
}

func (c *Cart) TotalPrice() decimal.Decimal {
	return Snapshot{Items: c.items}.TotalPrice()
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) commit(ctx context.Context, change Change) {
	if c.persister != nil {
		_ = c.persister.Save(ctx, cloneItems(c.items))
	}
	for _, o := range c.observers {
		o(ctx, change)
	}
}

func quantityLimitError() error {
	return pkgerrors.Validation("quantity limit reached").
		WithDetails(map[string]string{"quantity": fmt.Sprintf("must not exceed %d", MaxQuantity)})
}

func validateInput(in ProductInput) (LineItem, error) {
	fields := map[string]string{}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		fields["id"] = "is required"
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields["name"] = "is required"
	}

	var price decimal.Decimal
	if strings.TrimSpace(in.Price) == "" {
		fields["price"] = "is required"
	} else if parsed, err := money.Parse(in.Price); err != nil {
		fields["price"] = "must be a number"
	} else if parsed.IsNegative() {
		fields["price"] = "must not be negative"
	} else {
		price = parsed
	}

	qty := in.Quantity
	if qty < 0 {
		fields["quantity"] = "must not be negative"
	}
	if qty > MaxQuantity {
		fields["quantity"] = fmt.Sprintf("must not exceed %d", MaxQuantity)
	}
	if qty == 0 {
		qty = 1
	}

	if len(fields) > 0 {
		return LineItem{}, pkgerrors.Validation("invalid product").WithDetails(fields)
	}
	return LineItem{
		ID:       id,
		Name:     name,
		Price:    price,
		Image:    strings.TrimSpace(in.Image),
		Quantity: qty,
	}, nil
}
