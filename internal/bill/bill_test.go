package bill

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/order"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pizzaOrder() order.Order {
	return order.Order{
		OrderNumber:   1001,
		CustomerName:  "Asha",
		ContactNumber: "-",
		TableNumber:   "4",
		PaymentType:   order.PaymentFull,
		PaymentMethod: "upi",
		Total:         dec("550"),
		AmountPaid:    dec("550"),
		Remaining:     decimal.Zero,
		Cart: cart.Lines{
			{Name: "Pizza", Price: dec("250"), Quantity: 2},
			{Name: "Soda", Price: dec("50"), Quantity: 1},
		},
		Date: "17/10/2026, 2:03:05 pm",
	}
}

func TestRender(t *testing.T) {
	b := Render(pizzaOrder())

	assert.Equal(t, "1001", b.OrderNumber)
	assert.True(t, b.Total.Equal(dec("550")))
	assert.Equal(t, StatusPaid, b.Status)
	assert.Equal(t, LabelFull, b.PaymentType)
	require.Len(t, b.Items, 2)
	assert.True(t, b.Items[0].LineTotal.Equal(dec("500")))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, Status(decimal.Zero))
	assert.Equal(t, StatusPartiallyPaid, Status(dec("0.01")))
	assert.Equal(t, StatusPaid, Status(dec("-1")))
}

func TestRender_PartialAndDefaults(t *testing.T) {
	o := pizzaOrder()
	o.PaymentType = order.PaymentPartial
	o.AmountPaid = dec("200")
	o.Remaining = dec("350")
	o.PaymentMethod = ""

	b := Render(o)
	assert.Equal(t, StatusPartiallyPaid, b.Status)
	assert.Equal(t, LabelPartial, b.PaymentType)
	assert.Equal(t, "-", b.PaymentMethod)
}

func TestRender_IsPure(t *testing.T) {
	o := pizzaOrder()
	assert.Equal(t, Render(o), Render(o))
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "ORD-9", Number(order.Order{LegacyID: "ORD-9"}))
	assert.Equal(t, "N/A", Number(order.Order{}))
}

func TestText(t *testing.T) {
	txt := Render(pizzaOrder()).Text()
	assert.Contains(t, txt, "Order #1001")
	assert.Contains(t, txt, "Pizza × 2  ₹500.00")
	assert.Contains(t, txt, "Total: ₹550.00")
	assert.Contains(t, txt, "Status: Paid")
}

func TestSummarize(t *testing.T) {
	row := Summarize(pizzaOrder())
	assert.Equal(t, "Pizza × 2, Soda × 1", row.Items)
	assert.Equal(t, "Paid", row.Status)
	assert.Equal(t, "upi", row.PaymentMethod)

	empty := Summarize(order.Order{})
	assert.Equal(t, "No items", empty.Items)
	assert.Equal(t, "N/A", empty.OrderNumber)
	assert.Equal(t, "-", empty.PaymentMethod)

	legacy := Summarize(order.Order{Cart: cart.Lines{{Name: "Tea", Price: dec("10")}}})
	assert.Equal(t, "Tea × 1", legacy.Items)
}

// --- History ---

type fakeLister struct {
	orders []order.Order
	err    error
	limit  int
}

func (f *fakeLister) ListOrdersByDevice(_ context.Context, _ string, limit int) ([]order.Order, error) {
	f.limit = limit
	return f.orders, f.err
}

const dev = "dev-0000000001"

func TestHistory_Remote(t *testing.T) {
	remote := &fakeLister{orders: []order.Order{pizzaOrder()}}
	h := NewHistory(remote, localcache.NewMemory(), 0, nil)

	orders, src, err := h.Load(context.Background(), dev, 0)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	assert.Len(t, orders, 1)
	assert.Equal(t, DefaultLimit, remote.limit)
}

func TestHistory_FallsBackToLocalOnError(t *testing.T) {
	cache := localcache.NewMemory()
	older, newer := pizzaOrder(), pizzaOrder()
	newer.OrderNumber = 1002
	require.NoError(t, localcache.ForDevice(cache, dev).Set(context.Background(), localcache.KeyOrders, []order.Order{older, newer}))

	h := NewHistory(&fakeLister{err: errors.New("index missing")}, cache, 0, nil)
	orders, src, err := h.Load(context.Background(), dev, 50)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1002), orders[0].OrderNumber)
}

func TestHistory_FallsBackToLegacyWhenRemoteEmpty(t *testing.T) {
	cache := localcache.NewMemory()
	cache.SetRaw("device:"+dev+":order", []byte(`[{"orderId":"A-1","total":120,"cart":{"Tea":{"price":60,"qty":2}}}]`))

	h := NewHistory(&fakeLister{}, cache, 0, nil)
	orders, src, err := h.Load(context.Background(), dev, 50)
	require.NoError(t, err)
	assert.Equal(t, SourceLegacy, src)
	require.Len(t, orders, 1)
	assert.Equal(t, "Tea × 2", Summarize(orders[0]).Items)
	assert.Equal(t, "A-1", Summarize(orders[0]).OrderNumber)
}

func TestHistory_NoHistory(t *testing.T) {
	h := NewHistory(&fakeLister{err: errors.New("offline")}, localcache.NewMemory(), 0, nil)
	_, _, err := h.Load(context.Background(), dev, 50)
	assert.ErrorIs(t, err, ErrNoHistory)
	assert.Equal(t, "no previous orders found", err.Error())
}

func TestHistory_Find(t *testing.T) {
	h := NewHistory(&fakeLister{orders: []order.Order{pizzaOrder()}}, localcache.NewMemory(), 0, nil)

	o, err := h.Find(context.Background(), dev, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Asha", o.CustomerName)

	_, err = h.Find(context.Background(), dev, "9999")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestRemoteRecordPartialAmountField(t *testing.T) {
	var o order.Order
	raw := `{"orderNumber":1005,"total":1000,"partialAmount":300,"remaining":700,"paymentType":"partial"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &o))
	b := Render(o)
	assert.True(t, b.AmountPaid.Equal(dec("300")))
	assert.Equal(t, StatusPartiallyPaid, b.Status)
	assert.True(t, strings.HasPrefix(b.PaymentType, "Partial"))
}
