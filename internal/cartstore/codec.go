package cartstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/greensolartech/storefront/internal/cart"
	"github.com/greensolartech/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// storedItem is the persisted layout of one line item.
type storedItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image,omitempty"`
	Quantity int         `json:"quantity"`
}

// looseItem accepts the shapes older storefront scripts wrote: numeric or
// string ids, "price" or "unitPrice", prices as formatted strings.
type looseItem struct {
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	Price     json.RawMessage `json:"price"`
	UnitPrice json.RawMessage `json:"unitPrice"`
	Image     json.RawMessage `json:"image"`
	Quantity  json.RawMessage `json:"quantity"`
}

func encodeItems(items []cart.LineItem) (string, error) {
	out := make([]storedItem, 0, len(items))
	for _, it := range items {
		out = append(out, storedItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.Price.String()),
			Image:    it.Image,
			Quantity: it.Quantity,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeItems parses a stored record. A record that is not a JSON array of
// objects is an error; individual entries missing an id, a name or a valid
// price are dropped and reported through dropped.
func decodeItems(raw string) (items []cart.LineItem, dropped int, err error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, 0, fmt.Errorf("cart record is not a JSON array")
	}

	var loose []looseItem
	if err := json.Unmarshal(trimmed, &loose); err != nil {
		return nil, 0, fmt.Errorf("decode cart record: %w", err)
	}

	items = make([]cart.LineItem, 0, len(loose))
	index := map[string]int{}
	for _, li := range loose {
		item, ok := normalize(li)
		if !ok {
			dropped++
			continue
		}
		if idx, seen := index[item.ID]; seen {
			items[idx].Quantity = cart.ClampQuantity(items[idx].Quantity + item.Quantity)
			continue
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	return items, dropped, nil
}

func normalize(li looseItem) (cart.LineItem, bool) {
	id, ok := scalarText(li.ID)
	if !ok {
		return cart.LineItem{}, false
	}
	if li.ID[0] != '"' {
		if d, err := decimal.NewFromString(id); err == nil && d.IsInteger() {
			id = d.String()
		}
	}

	name, ok := scalarText(li.Name)
	if !ok {
		return cart.LineItem{}, false
	}

	priceRaw := li.Price
	if isAbsent(priceRaw) {
		priceRaw = li.UnitPrice
	}
	price, ok := parsePrice(priceRaw)
	if !ok {
		return cart.LineItem{}, false
	}

	image, _ := scalarText(li.Image)

	return cart.LineItem{
		ID:       id,
		Name:     name,
		Price:    price,
		Image:    image,
		Quantity: parseQuantity(li.Quantity),
	}, true
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// scalarText returns the trimmed text of a JSON string or number.
func scalarText(raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if isAbsent(raw) {
		return decimal.Zero, false
	}
	var price decimal.Decimal
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		price = d
	} else {
		text, ok := scalarText(raw)
		if !ok {
			return decimal.Zero, false
		}
		d, err := money.Parse(text)
		if err != nil {
			return decimal.Zero, false
		}
		price = d
	}
	if price.IsNegative() {
		return decimal.Zero, false
	}
	return price, true
}

func parseQuantity(raw json.RawMessage) int {
	text, ok := scalarText(raw)
	if !ok {
		return 1
	}
	q, err := strconv.Atoi(text)
	if err != nil {
		d, derr := decimal.NewFromString(text)
		if derr != nil {
			return 1
		}
		q = int(d.IntPart())
	}
	return cart.ClampQuantity(q)
}
