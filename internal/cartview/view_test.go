package cartview

import (
	"strings"
	"testing"
	"time"

	"github.com/greensolartech/storefront/internal/cart"
	"github.com/greensolartech/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

func snapshot() cart.Snapshot {
	return cart.NewSnapshot([]cart.LineItem{
		{ID: "a", Name: "Inverter", Price: decimal.NewFromInt(10000), Image: "/img/a.jpg", Quantity: 1},
		{ID: "b", Name: "Cable", Price: decimal.NewFromInt(1000), Quantity: 2},
	})
}

func TestRenderListEmpty(t *testing.T) {
	v := RenderList(cart.NewSnapshot(nil))
	if !v.Empty || v.CanCheckout {
		t.Fatalf("expected empty list without checkout, got %+v", v)
	}
	if v.EmptyTitle != EmptyTitle || v.EmptyHint != EmptyHint {
		t.Fatalf("expected empty messages, got %q / %q", v.EmptyTitle, v.EmptyHint)
	}
	if v.Items == nil || len(v.Items) != 0 {
		t.Fatalf("expected empty non-nil items")
	}
	if v.Total != money.Format(decimal.Zero) {
		t.Fatalf("unexpected total %q", v.Total)
	}
}

func TestRenderListItems(t *testing.T) {
	v := RenderList(snapshot())
	if v.Empty || !v.CanCheckout {
		t.Fatalf("expected checkout enabled")
	}
	if v.TotalQuantity != 3 {
		t.Fatalf("expected total quantity 3, got %d", v.TotalQuantity)
	}
	if v.Total != money.Format(decimal.NewFromInt(12000)) {
		t.Fatalf("unexpected total %q", v.Total)
	}
	if len(v.Items) != 2 || v.Items[0].ID != "a" || v.Items[1].ID != "b" {
		t.Fatalf("expected insertion order, got %+v", v.Items)
	}
	cable := v.Items[1]
	if cable.Image != PlaceholderImage {
		t.Fatalf("expected placeholder image, got %q", cable.Image)
	}
	if cable.Subtotal != money.Format(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected subtotal %q", cable.Subtotal)
	}
	if cable.DecrementTo != 1 || cable.IncrementTo != 3 {
		t.Fatalf("unexpected +/- targets %d/%d", cable.DecrementTo, cable.IncrementTo)
	}
	if !strings.HasSuffix(cable.UnitPrice, money.Suffix) {
		t.Fatalf("expected currency suffix, got %q", cable.UnitPrice)
	}
}

func TestRenderCheckoutDisablesSubmitWhileSubmitting(t *testing.T) {
	form := FormState{Name: "Ivan", Phone: "+380", Submitting: true}
	v := RenderCheckout(snapshot(), form)
	if v.SubmitEnabled {
		t.Fatalf("submit must be disabled while submitting")
	}
	if v.Form.Name != "Ivan" || len(v.Lines) != 2 {
		t.Fatalf("unexpected checkout view %+v", v)
	}

	form.Submitting = false
	if !RenderCheckout(snapshot(), form).SubmitEnabled {
		t.Fatalf("submit should be enabled")
	}
}

func TestRenderBadge(t *testing.T) {
	if b := RenderBadge(cart.NewSnapshot(nil)); b.Visible || b.Count != 0 {
		t.Fatalf("expected hidden badge, got %+v", b)
	}
	if b := RenderBadge(snapshot()); !b.Visible || b.Count != 3 {
		t.Fatalf("expected visible badge with 3, got %+v", b)
	}
}

func TestRenderSuccessRoundsUp(t *testing.T) {
	v := RenderSuccess(4200 * time.Millisecond)
	if v.AutoDismissSeconds != 5 || v.Message != SuccessMessage {
		t.Fatalf("unexpected success view %+v", v)
	}
	if RenderSuccess(0).AutoDismissSeconds != 0 {
		t.Fatalf("expected zero seconds")
	}
}
