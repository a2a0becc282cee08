package cart

import (
	"context"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Property: repeated adds of one id yield a single line whose quantity is the
// sum of the accepted quantities. Adds past MaxQuantity are rejected.
func TestRepeatedAddsMergeByID(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("adds of the same id merge", prop.ForAll(
		func(qtys []int) bool {
			ctx := context.Background()
			c := New(nil)
			sum := 0
			for _, q := range qtys {
				_, err := c.AddItem(ctx, ProductInput{ID: "p1", Name: "Panel", Price: "5000", Quantity: q})
				if sum+q > MaxQuantity {
					if err == nil {
						return false
					}
					continue
				}
				if err != nil {
					return false
				}
				sum += q
			}
			if len(qtys) == 0 {
				return c.IsEmpty()
			}
			item, ok := c.Snapshot().Find("p1")
			return ok && c.Len() == 1 && item.Quantity == sum
		},
		gen.SliceOf(gen.IntRange(1, 300)),
	))

	properties.TestingRun(t)
}

// Property: TotalPrice always equals the sum of price * quantity after any
// sequence of mutations.
func TestTotalsTrackItems(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("totals are recomputed", prop.ForAll(
		func(ids []int, prices []int, updates []int) bool {
			ctx := context.Background()
			c := New(nil)
			for i, id := range ids {
				price := int64(1)
				if i < len(prices) {
					price = int64(prices[i])
				}
				_, err := c.AddItem(ctx, ProductInput{
					ID:    strconv.Itoa(id),
					Name:  "item",
					Price: decimal.New(price, -2).String(),
				})
				if err != nil {
					return false
				}
			}
			for i, n := range updates {
				if i < len(ids) {
					c.UpdateQuantity(ctx, strconv.Itoa(ids[i]), n)
				}
			}

			want := decimal.Zero
			qty := 0
			for _, it := range c.Snapshot().Items {
				if it.Quantity <= 0 {
					return false
				}
				want = want.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
				qty += it.Quantity
			}
			return c.TotalPrice().Equal(want) && c.TotalQuantity() == qty
		},
		gen.SliceOf(gen.IntRange(0, 8)),
		gen.SliceOf(gen.IntRange(0, 1000000)),
		gen.SliceOf(gen.IntRange(-2, 10)),
	))

	properties.TestingRun(t)
}
