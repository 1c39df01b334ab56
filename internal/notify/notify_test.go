package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/order"
)

type published struct {
	room, eventType string
	payload         any
}

type fakePublisher struct{ got []published }

func (f *fakePublisher) Publish(room, eventType string, payload any) {
	f.got = append(f.got, published{room, eventType, payload})
}

type fakeChannel struct {
	exchange string
	msgs     []amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

type countingNotifier struct{ n int }

func (c *countingNotifier) OrderCreated(context.Context, order.Order) { c.n++ }

func TestHub_PublishesToAdminRoom(t *testing.T) {
	pub := &fakePublisher{}
	NewHub(pub).OrderCreated(context.Background(), order.Order{OrderNumber: 1001})

	require.Len(t, pub.got, 1)
	assert.Equal(t, enum.RoomAdmin, pub.got[0].room)
	assert.Equal(t, enum.EventOrderCreated, pub.got[0].eventType)
	assert.Equal(t, int64(1001), pub.got[0].payload.(order.Order).OrderNumber)
}

func TestMulti_SkipsNil(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	Multi{a, nil, b}.OrderCreated(context.Background(), order.Order{})
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}

func TestAMQP_PublishesJSONToFanout(t *testing.T) {
	ch := &fakeChannel{}
	a := &AMQP{ch: ch}

	require.NoError(t, a.Publish(context.Background(), order.Order{OrderNumber: 1001, CustomerName: "Asha"}))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, Exchange, ch.exchange)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)

	var m struct {
		Type  string         `json:"type"`
		Order map[string]any `json:"order"`
	}
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &m))
	assert.Equal(t, enum.EventOrderCreated, m.Type)
	assert.Equal(t, "Asha", m.Order["customerName"])
}

func TestAMQP_ReconnectsWhenChannelMissing(t *testing.T) {
	ch := &fakeChannel{}
	dials := 0
	a := &AMQP{dial: func(string) (*amqp.Connection, channel, error) {
		dials++
		return nil, ch, nil
	}}

	require.NoError(t, a.Publish(context.Background(), order.Order{OrderNumber: 1}))
	assert.Equal(t, 1, dials)
	assert.Len(t, ch.msgs, 1)
}

func TestAMQP_PublishError(t *testing.T) {
	a := &AMQP{ch: &fakeChannel{err: errors.New("channel closed")}}
	assert.Error(t, a.Publish(context.Background(), order.Order{OrderNumber: 1}))

	// OrderCreated swallows the error.
	a.OrderCreated(context.Background(), order.Order{OrderNumber: 1})
}
