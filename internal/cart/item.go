package cart

import (
	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a single line item may hold.
const MaxQuantity = 999

// ClampQuantity bounds n to [1, MaxQuantity].
func ClampQuantity(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	default:
		return n
	}
}

// LineItem is one product entry in the cart.
type LineItem struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// Subtotal returns Price * Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ProductInput is the loosely typed payload of an add gesture. Price accepts
// formatted strings such as "15 000 ₴".
type ProductInput struct {
	ID       string
	Name     string
	Price    string
	Image    string
	Quantity int
}

// Snapshot is a read-only copy of the cart items at a point in time.
type Snapshot struct {
	Items []LineItem
}

// NewSnapshot copies items into a snapshot.
func NewSnapshot(items []LineItem) Snapshot {
	return Snapshot{Items: cloneItems(items)}
}

// TotalQuantity sums item quantities.
func (s Snapshot) TotalQuantity() int {
	total := 0
	for _, it := range s.Items {
		total += it.Quantity
	}
	return total
}

// TotalPrice sums Price * Quantity over all items.
func (s Snapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s Snapshot) Len() int {
	return len(s.Items)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the item with the given id.
func (s Snapshot) Find(id string) (LineItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
