package menu

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/enum"
)

// Publisher pushes an event to a websocket room.
type Publisher interface {
	Publish(room, eventType string, payload any)
}

// Catalog is the Renderer behind GET /menu. It keeps the latest section per
// category and announces each re-render to the menu room.
type Catalog struct {
	mu       sync.RWMutex
	sections map[Category][]Item
	updated  time.Time
	pub      Publisher
}

func NewCatalog(pub Publisher) *Catalog {
	return &Catalog{sections: make(map[Category][]Item), pub: pub}
}

func (c *Catalog) RenderCategory(cat Category, items []Item) {
	c.mu.Lock()
	c.sections[cat] = items
	c.updated = time.Now()
	c.mu.Unlock()

	if c.pub != nil {
		c.pub.Publish(enum.RoomMenu, enum.EventMenuUpdated, Section{Category: cat, Items: items})
	}
}

// Sections returns all four sections in display order.
func (c *Catalog) Sections() []Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Section, 0, len(Categories))
	for _, cat := range Categories {
		items := c.sections[cat]
		if items == nil {
			items = []Item{}
		}
		out = append(out, Section{Category: cat, Items: items})
	}
	return out
}

// Price looks an item up by name across all sections.
func (c *Catalog) Price(name string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, items := range c.sections {
		for _, it := range items {
			if it.Name == name {
				return it.Price, true
			}
		}
	}
	return decimal.Decimal{}, false
}

func (c *Catalog) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}
