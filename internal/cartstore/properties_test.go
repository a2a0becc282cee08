package cartstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/greensolartech/storefront/internal/cart"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Property: Load after Save returns the saved items for any cart that
// satisfies the cart invariants.
func TestSaveLoadRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("load(save(x)) == x", prop.ForAll(
		func(cents []int64, qtys []int, names []string) bool {
			items := make([]cart.LineItem, 0, len(cents))
			for i, c := range cents {
				qty := 1
				if i < len(qtys) {
					qty = qtys[i]
				}
				name := "item"
				if i < len(names) && names[i] != "" {
					name = names[i]
				}
				items = append(items, cart.LineItem{
					ID:       fmt.Sprintf("p-%d", i),
					Name:     name,
					Price:    decimal.New(c, -2),
					Quantity: qty,
				})
			}

			ctx := context.Background()
			a := NewStore(NewMemoryKV(), Namespace("gst"), nil, nil).ForSession("prop")
			if err := a.Save(ctx, items); err != nil {
				return false
			}
			got := a.Load(ctx)
			if len(got) != len(items) {
				return false
			}
			for i := range items {
				if got[i].ID != items[i].ID || got[i].Name != items[i].Name ||
					got[i].Quantity != items[i].Quantity || !got[i].Price.Equal(items[i].Price) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 10_000_000)),
		gen.SliceOf(gen.IntRange(1, 50)),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
