// Package notify announces new orders to the admin side.
package notify

import (
	"context"

	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/order"
)

// Publisher is the WebSocket hub surface used for room broadcasts.
type Publisher interface {
	Publish(room, eventType string, payload any)
}

// Hub pushes order.created to the admin room.
type Hub struct {
	pub Publisher
}

func NewHub(pub Publisher) *Hub {
	return &Hub{pub: pub}
}

func (h *Hub) OrderCreated(_ context.Context, o order.Order) {
	h.pub.Publish(enum.RoomAdmin, enum.EventOrderCreated, o)
}

// OrderNotifier matches service.Notifier.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, o order.Order)
}

// Multi fans a notification out to every non-nil notifier.
type Multi []OrderNotifier

func (m Multi) OrderCreated(ctx context.Context, o order.Order) {
	for _, n := range m {
		if n != nil {
			n.OrderCreated(ctx, o)
		}
	}
}
