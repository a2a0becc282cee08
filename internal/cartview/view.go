// Package cartview projects cart snapshots into the data the storefront page
// renders: the item list, the checkout form, the header badge and the
// success screen. It only reads snapshots.
package cartview

import (
	"math"
	"time"

	"github.com/greensolartech/storefront/internal/cart"
	"github.com/greensolartech/storefront/pkg/money"
)

const (
	PlaceholderImage = "/static/images/no-image.jpg"

	EmptyTitle     = "Кошик порожній"
	EmptyHint      = "Додайте товари з каталогу"
	SuccessMessage = "Замовлення успішно відправлено! Ми зв'яжемося з вами найближчим часом."
	SubmitFailed   = "Помилка відправки замовлення. Спробуйте ще раз."
)

type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
	Quantity    int    `json:"quantity"`
	DecrementTo int    `json:"decrement_to"`
	IncrementTo int    `json:"increment_to"`
}

type ListView struct {
	Items         []Item `json:"items"`
	Total         string `json:"total"`
	TotalQuantity int    `json:"total_quantity"`
	Empty         bool   `json:"empty"`
	EmptyTitle    string `json:"empty_title,omitempty"`
	EmptyHint     string `json:"empty_hint,omitempty"`
	CanCheckout   bool   `json:"can_checkout"`
}

// FormState is the customer form as last entered, plus the outcome of the
// previous submit attempt.
type FormState struct {
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Email       string            `json:"email,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Error       string            `json:"error,omitempty"`
	Retryable   bool              `json:"retryable"`
	Submitting  bool              `json:"submitting"`
}

type CheckoutView struct {
	Lines         []Item    `json:"lines"`
	Total         string    `json:"total"`
	TotalQuantity int       `json:"total_quantity"`
	Form          FormState `json:"form"`
	SubmitEnabled bool      `json:"submit_enabled"`
}

type Badge struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}

type SuccessView struct {
	Message            string `json:"message"`
	AutoDismissSeconds int    `json:"auto_dismiss_seconds"`
}

func RenderList(s cart.Snapshot) ListView {
	v := ListView{
		Items:         renderItems(s),
		Total:         money.Format(s.TotalPrice()),
		TotalQuantity: s.TotalQuantity(),
		Empty:         s.IsEmpty(),
	}
	if v.Empty {
		v.EmptyTitle = EmptyTitle
		v.EmptyHint = EmptyHint
	}
	v.CanCheckout = !v.Empty
	return v
}

func RenderCheckout(s cart.Snapshot, form FormState) CheckoutView {
	return CheckoutView{
		Lines:         renderItems(s),
		Total:         money.Format(s.TotalPrice()),
		TotalQuantity: s.TotalQuantity(),
		Form:          form,
		SubmitEnabled: !form.Submitting && !s.IsEmpty(),
	}
}

func RenderBadge(s cart.Snapshot) Badge {
	n := s.TotalQuantity()
	return Badge{Count: n, Visible: n > 0}
}

// RenderSuccess rounds the remaining auto-dismiss time up to whole seconds.
func RenderSuccess(remaining time.Duration) SuccessView {
	secs := 0
	if remaining > 0 {
		secs = int(math.Ceil(remaining.Seconds()))
	}
	return SuccessView{Message: SuccessMessage, AutoDismissSeconds: secs}
}

func renderItems(s cart.Snapshot) []Item {
	out := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		image := it.Image
		if image == "" {
			image = PlaceholderImage
		}
		out = append(out, Item{
			ID:          it.ID,
			Name:        it.Name,
			Image:       image,
			UnitPrice:   money.Format(it.Price),
			Subtotal:    money.Format(it.Subtotal()),
			Quantity:    it.Quantity,
			DecrementTo: it.Quantity - 1,
			IncrementTo: min(it.Quantity+1, cart.MaxQuantity),
		})
	}
	return out
}
