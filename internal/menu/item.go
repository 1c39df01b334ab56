// Package menu keeps the customer-facing menu in step with the remote menu
// collection.
package menu

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/enum"
)

type Category string

const (
	Appetizers Category = enum.CategoryAppetizers
	Mains      Category = enum.CategoryMains
	Desserts   Category = enum.CategoryDesserts
	Beverages  Category = enum.CategoryBeverages
)

// Categories lists the sections in display order.
var Categories = []Category{Appetizers, Mains, Desserts, Beverages}

// ParseCategory reports whether s names a known category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Item is a menu document as written by the admin panel.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Category    Category        `json:"category"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ImageRef prefers imageUrl over image.
func (i Item) ImageRef() string {
	if i.ImageURL != "" {
		return i.ImageURL
	}
	return i.Image
}

func (i Item) Available() bool {
	return i.Status == enum.MenuStatusAvailable
}

// Normalize fills in defaults for missing or unknown fields.
func Normalize(i Item) Item {
	if _, ok := ParseCategory(string(i.Category)); !ok {
		i.Category = Appetizers
	}
	if i.Status == "" {
		i.Status = enum.MenuStatusAvailable
	}
	if i.Price.IsNegative() {
		i.Price = decimal.Zero
	}
	return i
}

// Section is one category container.
type Section struct {
	Category Category `json:"category"`
	Items    []Item   `json:"items"`
}

// Group drops unavailable items and buckets the rest by category, keeping
// their relative order. All four sections are always present.
func Group(items []Item) []Section {
	buckets := make(map[Category][]Item, len(Categories))
	for _, raw := range items {
		it := Normalize(raw)
		if !it.Available() {
			continue
		}
		buckets[it.Category] = append(buckets[it.Category], it)
	}
	out := make([]Section, 0, len(Categories))
	for _, c := range Categories {
		items := buckets[c]
		if items == nil {
			items = []Item{}
		}
		out = append(out, Section{Category: c, Items: items})
	}
	return out
}
