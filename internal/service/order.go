package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/metrics"
	"github.com/digital-menu/api/internal/money"
	"github.com/digital-menu/api/internal/order"
	"github.com/digital-menu/api/internal/payment"
)

// DateLayout formats the order date the way the bill shows it.
const DateLayout = "02/01/2006, 3:04:05 pm"

const paymentDescription = "Order Payment"

// Errors returned by the order service.
var (
	ErrNoPendingPayment = errors.New("no payment in progress")
	ErrSessionMismatch  = errors.New("confirmation does not match the open payment session")
	ErrGatewayDown      = errors.New("payment gateway unavailable")
)

// OrderCounter hands out order numbers. Implementations must allocate
// atomically in the backing store.
type OrderCounter interface {
	NextOrderNumber(ctx context.Context) (int64, error)
}

// OrderWriter stores a finished order remotely.
type OrderWriter interface {
	AddOrder(ctx context.Context, o order.Order) error
}

// Notifier is told about orders that reached the remote store.
type Notifier interface {
	OrderCreated(ctx context.Context, o order.Order)
}

// Pending holds what was validated while the gateway collects the payment.
type Pending struct {
	Session  payment.Session
	Checkout order.Checkout
	Payable  order.Payable
	Lines    cart.Lines
}

// Result reports how far a submission got. RemoteErr is set when the order
// was completed locally but the remote write failed.
type Result struct {
	State     State
	Order     *order.Order
	Session   *payment.Session
	RemoteErr error
}

// OrderServiceConfig carries the collaborators of an OrderService. Gateway
// and Notifier are optional.
type OrderServiceConfig struct {
	Counter        OrderCounter
	Orders         OrderWriter
	Cache          localcache.Store
	Gateway        payment.Gateway
	Notifier       Notifier
	Currency       string
	Merchant       string
	StoreTimeout   time.Duration
	GatewayTimeout time.Duration
	Now            func() time.Time
}

// OrderService runs the order submission flow for one device at a time.
// Callers serialize access to a device's Flow and Cart.
type OrderService struct {
	counter        OrderCounter
	orders         OrderWriter
	cache          localcache.Store
	gateway        payment.Gateway
	notifier       Notifier
	currency       string
	merchant       string
	storeTimeout   time.Duration
	gatewayTimeout time.Duration
	now            func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(cfg OrderServiceConfig) *OrderService {
	s := &OrderService{
		counter:        cfg.Counter,
		orders:         cfg.Orders,
		cache:          cfg.Cache,
		gateway:        cfg.Gateway,
		notifier:       cfg.Notifier,
		currency:       cfg.Currency,
		merchant:       cfg.Merchant,
		storeTimeout:   cfg.StoreTimeout,
		gatewayTimeout: cfg.GatewayTimeout,
		now:            cfg.Now,
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = 10 * time.Second
	}
	if s.gatewayTimeout <= 0 {
		s.gatewayTimeout = 15 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// HasGateway reports whether submissions go through a payment gateway.
func (s *OrderService) HasGateway() bool { return s.gateway != nil }

// Submit validates the cart against the checkout form. Without a gateway the
// order is persisted straight away; otherwise a payment session is opened
// and the flow waits in GatewayPending.
func (s *OrderService) Submit(ctx context.Context, deviceID string, f *Flow, c *cart.Cart, in order.Checkout) (*Result, error) {
	in = in.WithDefaults()

	// --- Validate ---
	f.State = StateValidating
	f.PaymentType = in.PaymentType
	t := c.Totals()
	payable, err := order.Validate(t.Total, c.IsEmpty(), in.PaymentType, in.PartialAmount)
	if err != nil {
		f.State = StateRejected
		f.Pending = nil
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	pending := &Pending{Checkout: in, Payable: payable, Lines: c.Lines()}
	if s.gateway == nil {
		return s.persist(ctx, deviceID, f, c, pending, "")
	}

	// --- Open gateway session ---
	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	sess, err := s.gateway.OpenSession(gctx, payment.SessionRequest{
		Reference:   newReference(),
		AmountMinor: money.ToMinor(payable.AmountPaid),
		Currency:    s.currency,
		Description: paymentDescription,
		Merchant:    s.merchant,
		Prefill:     payment.Prefill{Name: in.CustomerName, Contact: in.ContactNumber},
	})
	if err != nil {
		f.State = StateIdle
		f.Pending = nil
		if errors.Is(err, payment.ErrFractionalAmount) {
			return nil, err
		}
		return nil, fmt.Errorf("open payment session: %w: %w", ErrGatewayDown, err)
	}

	pending.Session = sess
	f.Pending = pending
	f.State = StateGatewayPending
	return &Result{State: StateGatewayPending, Session: &sess}, nil
}

// Confirm completes a gateway payment. A confirmation that fails
// verification leaves the flow waiting so the customer can retry or cancel.
func (s *OrderService) Confirm(ctx context.Context, deviceID string, f *Flow, c *cart.Cart, conf payment.Confirmation) (*Result, error) {
	if f.State != StateGatewayPending || f.Pending == nil || s.gateway == nil {
		return nil, ErrNoPendingPayment
	}
	if conf.SessionID != f.Pending.Session.ID {
		return nil, ErrSessionMismatch
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	if err := s.gateway.Verify(gctx, conf); err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	return s.persist(ctx, deviceID, f, c, f.Pending, conf.PaymentID)
}

// Cancel abandons an open gateway session. Nothing is persisted and the
// cart is left as it was.
func (s *OrderService) Cancel(f *Flow) error {
	if f.State != StateGatewayPending {
		return ErrNoPendingPayment
	}
	f.Pending = nil
	f.State = StateIdle
	return nil
}

// LastOrder returns the device's previous order from memory or, after a
// restart, from the local cache.
func (s *OrderService) LastOrder(ctx context.Context, deviceID string, f *Flow) (*order.Order, error) {
	if f.Last != nil {
		return f.Last, nil
	}
	var o order.Order
	found, err := localcache.ForDevice(s.cache, deviceID).Get(ctx, localcache.KeyLastOrder, &o)
	if err != nil {
		logger.WithCtx(ctx).Warn("read last order from cache", "device_id", deviceID, "error", err)
		return nil, order.ErrNoPreviousOrder
	}
	if !found {
		return nil, order.ErrNoPreviousOrder
	}
	f.Last = &o
	return &o, nil
}

// persist allocates the order number, records the order locally and
// remotely, then resets the cart. A failed remote write is reported in the
// result; the local copy and the consumed number are kept.
func (s *OrderService) persist(ctx context.Context, deviceID string, f *Flow, c *cart.Cart, p *Pending, paymentID string) (*Result, error) {
	log := logger.WithCtx(ctx)
	f.State = StatePersisting

	// --- Allocate order number ---
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	num, err := s.counter.NextOrderNumber(cctx)
	cancel()
	if err != nil {
		if paymentID != "" {
			log.Error("payment captured but order number allocation failed", "payment_id", paymentID, "error", err)
		}
		f.State = StateIdle
		f.Pending = nil
		return nil, fmt.Errorf("allocate order number: %w", err)
	}
	metrics.OrderNumbers.Inc()

	// --- Build record ---
	now := s.now()
	o := order.Order{
		OrderNumber:   num,
		CustomerName:  p.Checkout.CustomerName,
		ContactNumber: p.Checkout.ContactNumber,
		TableNumber:   p.Checkout.TableNumber,
		PaymentType:   p.Payable.Type,
		PaymentMethod: p.Checkout.PaymentMethod,
		PaymentID:     paymentID,
		Total:         p.Payable.Total,
		AmountPaid:    p.Payable.AmountPaid,
		Remaining:     p.Payable.Remaining,
		Cart:          p.Lines,
		Date:          now.Format(DateLayout),
		DeviceID:      deviceID,
		AdminStatus:   enum.AdminStatusPending,
		CreatedAt:     now,
	}

	// --- Local copy ---
	if err := s.saveLocal(ctx, deviceID, o); err != nil {
		log.Warn("save order to local cache", "order_number", num, "error", err)
	}

	// --- Remote copy ---
	var remoteErr error
	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	err = s.orders.AddOrder(rctx, o)
	cancel()
	if err != nil {
		remoteErr = err
		metrics.RemoteWriteFailures.Inc()
		log.Error("failed to save order remotely", "order_number", num, "error", err)
	} else if s.notifier != nil {
		s.notifier.OrderCreated(ctx, o)
	}

	// --- Complete ---
	f.Last = &o
	f.Pending = nil
	f.PaymentType = order.PaymentFull
	f.State = StateComplete
	c.Clear()
	metrics.OrdersPlaced.WithLabelValues(string(o.PaymentType)).Inc()

	return &Result{State: StateComplete, Order: &o, RemoteErr: remoteErr}, nil
}

func (s *OrderService) saveLocal(ctx context.Context, deviceID string, o order.Order) error {
	lc := localcache.ForDevice(s.cache, deviceID)
	if err := lc.Set(ctx, localcache.KeyLastOrder, o); err != nil {
		return fmt.Errorf("write last order: %w", err)
	}
	var list []order.Order
	if _, err := lc.Get(ctx, localcache.KeyOrders, &list); err != nil {
		list = nil
	}
	list = append(list, o)
	if err := lc.Set(ctx, localcache.KeyOrders, list); err != nil {
		return fmt.Errorf("append order list: %w", err)
	}
	return nil
}

func rejectReason(err error) string {
	var pe *order.PartialAmountError
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &pe):
		return "partial_amount"
	default:
		return "other"
	}
}

func newReference() string {
	return "em_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
