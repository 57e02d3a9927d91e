// Package cart is the in-memory line-item store for one shopping session.
//
// Every line has 1 <= quantity <= MaxQuantity and appears at most once per
// item id. Quantity input that is not a positive integer is clamped to 1
// rather than rejected; larger input is clamped to MaxQuantity.
package cart

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"utok/internal/domain"
	"utok/internal/orderitems"
)

// MaxQuantity caps a single line.
const MaxQuantity = 99

type LineItem struct {
	Item     domain.Item `json:"item"`
	Quantity int         `json:"quantity"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(normalize(l.Quantity))))
}

type State string

const (
	StateNone   State = "none"
	StateEmpty  State = "empty"
	StateFilled State = "filled"
)

type Cart struct {
	lines []LineItem
}

func New() *Cart { return &Cart{lines: []LineItem{}} }

// State distinguishes a cart that was never created (nil) from one whose
// last line was removed.
func (c *Cart) State() State {
	switch {
	case c == nil:
		return StateNone
	case len(c.lines) == 0:
		return StateEmpty
	default:
		return StateFilled
	}
}

func (c *Cart) index(id string) int {
	for i := range c.lines {
		if c.lines[i].Item.ID == id {
			return i
		}
	}
	return -1
}

// Add is the catalog's add-to-cart control. The first press inserts the item
// with quantity 1; pressing again while the item is present decrements it,
// stopping at 1. It never removes a line, so present is always true after
// the call.
func (c *Cart) Add(item domain.Item) (present bool, qty int) {
	if i := c.index(item.ID); i >= 0 {
		if c.lines[i].Quantity > 1 {
			c.lines[i].Quantity--
		} else {
			c.lines[i].Quantity = 1
		}
		return true, c.lines[i].Quantity
	}
	c.lines = append(c.lines, LineItem{Item: item, Quantity: 1})
	return true, 1
}

func (c *Cart) Contains(id string) bool { return c.index(id) >= 0 }

func (c *Cart) Quantity(id string) (int, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity, true
	}
	return 0, false
}

// SetQuantity reports false when id is not in the cart.
func (c *Cart) SetQuantity(id string, qty int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity = normalize(qty)
	return true
}

// SetQuantityValue accepts whatever a client sent (number, numeric string,
// JSON literal) and normalises it before storing.
func (c *Cart) SetQuantityValue(id string, raw any) bool {
	return c.SetQuantity(id, ParseQuantity(raw))
}

func (c *Cart) Increment(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if q := normalize(c.lines[i].Quantity); q < MaxQuantity {
		c.lines[i].Quantity = q + 1
	} else {
		c.lines[i].Quantity = MaxQuantity
	}
	return true
}

func (c *Cart) Decrement(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if q := normalize(c.lines[i].Quantity); q > 1 {
		c.lines[i].Quantity = q - 1
	} else {
		c.lines[i].Quantity = 1
	}
	return true
}

// Remove is the only path that deletes a line.
func (c *Cart) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

// Items returns a copy; the slice is never nil for a live cart.
func (c *Cart) Items() []LineItem {
	if c == nil {
		return nil
	}
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Persisted is the name -> quantity form stored on an order.
func (c *Cart) Persisted() orderitems.Items {
	lines := make([]orderitems.Line, 0, c.Len())
	for _, l := range c.Items() {
		lines = append(lines, orderitems.Line{Name: l.Item.Name, Quantity: normalize(l.Quantity)})
	}
	return orderitems.FromLines(lines...)
}

// Handoff is what checkout receives: the persisted items and a total fixed at
// the moment the customer pressed checkout.
type Handoff struct {
	Items orderitems.Items `json:"items"`
	Lines []LineItem       `json:"lines"`
	Total decimal.Decimal  `json:"total"`
}

func (c *Cart) Handoff() Handoff {
	return Handoff{Items: c.Persisted(), Lines: c.Items(), Total: c.Total()}
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	return &Cart{lines: c.Items()}
}

func normalize(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

// fromFloat accepts whole numbers only; the range check runs before the int
// conversion so huge values cannot wrap.
func fromFloat(f float64) int {
	switch {
	case f != math.Trunc(f) || math.IsNaN(f) || math.IsInf(f, 0):
		return 1
	case f < 1:
		return 1
	case f > MaxQuantity:
		return MaxQuantity
	}
	return int(f)
}

func fromInt64(n int64) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	}
	return int(n)
}

// ParseQuantity maps loosely typed input onto a positive quantity.
func ParseQuantity(raw any) int {
	switch v := raw.(type) {
	case int:
		return normalize(v)
	case int64:
		return fromInt64(v)
	case float64:
		return fromFloat(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return fromInt64(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 1
		}
		return fromFloat(f)
	case string:
		return ParseQuantity(json.Number(strings.TrimSpace(v)))
	case json.RawMessage:
		var x any
		dec := json.NewDecoder(strings.NewReader(string(v)))
		dec.UseNumber()
		if err := dec.Decode(&x); err != nil {
			return 1
		}
		return ParseQuantity(x)
	default:
		return 1
	}
}
