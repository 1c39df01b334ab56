package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/order"
)

// Exchange is the fanout exchange admin consumers bind to.
const Exchange = "orders_admin"

const publishTimeout = 10 * time.Second

// channel is the part of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Message is the body published for every new order.
type Message struct {
	Type  string      `json:"type"`
	Order order.Order `json:"order"`
}

// AMQP publishes new orders to a RabbitMQ fanout exchange.
type AMQP struct {
	mu   sync.Mutex
	url  string
	conn *amqp.Connection
	ch   channel
	dial func(url string) (*amqp.Connection, channel, error)
}

// DialAMQP connects to url and declares the exchange.
func DialAMQP(url string) (*AMQP, error) {
	a := &AMQP{url: url, dial: dialExchange}
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a, nil
}

func dialExchange(url string) (*amqp.Connection, channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		Exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("declare %s exchange: %w", Exchange, err)
	}
	return conn, ch, nil
}

func (a *AMQP) connect() error {
	conn, ch, err := a.dial(a.url)
	if err != nil {
		return err
	}
	a.conn = conn
	a.ch = ch
	return nil
}

// Publish sends the order to the exchange, redialing once if the
// connection was lost.
func (a *AMQP) Publish(ctx context.Context, o order.Order) error {
	body, err := json.Marshal(Message{Type: enum.EventOrderCreated, Order: o})
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ch == nil || (a.conn != nil && a.conn.IsClosed()) {
		if err := a.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = a.ch.PublishWithContext(ctx,
		Exchange, // exchange
		"",       // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish order %d: %w", o.OrderNumber, err)
	}
	return nil
}

// OrderCreated publishes and logs failures; the order is already stored.
func (a *AMQP) OrderCreated(ctx context.Context, o order.Order) {
	if err := a.Publish(ctx, o); err != nil {
		logger.WithCtx(ctx).Warn("order notification not published",
			slog.Int64("order_number", o.OrderNumber), slog.Any("error", err))
	}
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
