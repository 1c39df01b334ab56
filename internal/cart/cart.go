// Package cart keeps the per-device cart: an insertion-ordered list of lines
// keyed by item name.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/money"
)

// Line is one cart entry. Quantity is always >= 1 while the line is in a cart.
type Line struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// UnmarshalJSON accepts the older "qty" key for Quantity.
func (l *Line) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Quantity int             `json:"quantity"`
		Qty      int             `json:"qty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.Name, l.Price, l.Quantity = raw.Name, raw.Price, raw.Quantity
	if l.Quantity == 0 {
		l.Quantity = raw.Qty
	}
	return nil
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Count int
	Total decimal.Decimal
}

// Summary is what a cart view needs to redraw itself.
type Summary struct {
	Lines           Lines           `json:"lines"`
	Count           int             `json:"count"`
	Total           decimal.Decimal `json:"total"`
	CheckoutEnabled bool            `json:"checkout_enabled"`
}

// Observer is notified after every mutation. ItemAdded fires only when a
// new line is created.
type Observer interface {
	CartChanged(Summary)
	ItemAdded(name string)
}

type Cart struct {
	lines []Line
	obs   Observer
}

func New(obs Observer) *Cart {
	return &Cart{obs: obs}
}

func (c *Cart) SetObserver(obs Observer) { c.obs = obs }

// Add puts one unit of name in the cart. Empty names and negative prices are
// ignored. Reports whether the cart changed.
func (c *Cart) Add(name string, price decimal.Decimal) bool {
	if name == "" || price.IsNegative() {
		return false
	}
	if i := c.index(name); i >= 0 {
		c.lines[i].Quantity++
		c.changed()
		return true
	}
	c.lines = append(c.lines, Line{Name: name, Price: price, Quantity: 1})
	if c.obs != nil {
		c.obs.ItemAdded(name)
	}
	c.changed()
	return true
}

// AddString is Add with a textual price; an unparseable price is a no-op.
func (c *Cart) AddString(name, price string) bool {
	d, ok := money.Parse(price)
	if !ok {
		return false
	}
	return c.Add(name, d)
}

// Remove takes one unit of name out of the cart, dropping the line at zero.
func (c *Cart) Remove(name string) bool {
	i := c.index(name)
	if i < 0 {
		return false
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
	} else {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	c.changed()
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
	c.changed()
}

func (c *Cart) Totals() Totals {
	t := Totals{Total: decimal.Zero}
	for _, l := range c.lines {
		t.Count += l.Quantity
		t.Total = t.Total.Add(l.Subtotal())
	}
	return t
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() Lines {
	out := make(Lines, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Summary() Summary {
	t := c.Totals()
	return Summary{
		Lines:           c.Lines(),
		Count:           t.Count,
		Total:           t.Total,
		CheckoutEnabled: len(c.lines) > 0,
	}
}

func (c *Cart) index(name string) int {
	for i := range c.lines {
		if c.lines[i].Name == name {
			return i
		}
	}
	return -1
}

func (c *Cart) changed() {
	if c.obs != nil {
		c.obs.CartChanged(c.Summary())
	}
}
