package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digital-menu/api/internal/bill"
	"github.com/digital-menu/api/internal/handler"
	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/memstore"
	mw "github.com/digital-menu/api/internal/middleware"
	"github.com/digital-menu/api/internal/order"
	"github.com/digital-menu/api/internal/payment"
	"github.com/digital-menu/api/internal/service"
	"github.com/digital-menu/api/internal/session"
)

// --- Mocks ---

type failingWriter struct{}

func (failingWriter) AddOrder(context.Context, order.Order) error {
	return errors.New("remote store unreachable")
}

type mockGateway struct {
	openErr   error
	verifyErr error
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) OpenSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	if m.openErr != nil {
		return payment.Session{}, m.openErr
	}
	return payment.Session{Provider: "mock", ID: "sess_1", AmountMinor: req.AmountMinor, Currency: req.Currency}, nil
}

func (m *mockGateway) Verify(ctx context.Context, conf payment.Confirmation) error {
	return m.verifyErr
}

// --- Helpers ---

type checkoutFixture struct {
	router   *chi.Mux
	store    *memstore.Store
	cache    *localcache.Memory
	sessions *session.Store
}

type checkoutOptions struct {
	gateway payment.Gateway
	writer  service.OrderWriter
}

func setupCheckoutRouter(t *testing.T, opts checkoutOptions) *checkoutFixture {
	t.Helper()
	store := memstore.New()
	if err := store.EnsureOrderCounter(context.Background(), order.DefaultCounterStart); err != nil {
		t.Fatalf("ensure counter: %v", err)
	}
	cache := localcache.NewMemory()
	sessions := session.NewStore(nil)

	var writer service.OrderWriter = store
	if opts.writer != nil {
		writer = opts.writer
	}
	svc := service.NewOrderService(service.OrderServiceConfig{
		Counter: store,
		Orders:  writer,
		Cache:   cache,
		Gateway: opts.gateway,
		Now:     func() time.Time { return time.Date(2026, 10, 17, 13, 5, 9, 0, time.UTC) },
	})
	history := bill.NewHistory(store, cache, time.Second, nil)

	r := chi.NewRouter()
	r.Use(mw.Device(cache, false))
	r.Route("/cart", handler.NewCartHandler(sessions, nil).RegisterRoutes)
	r.Route("/checkout", handler.NewCheckoutHandler(sessions, svc).RegisterRoutes)
	r.Route("/orders", handler.NewOrderHandler(sessions, svc, history, 50).RegisterRoutes)

	return &checkoutFixture{router: r, store: store, cache: cache, sessions: sessions}
}

func (f *checkoutFixture) addPizzaAndSoda(t *testing.T) {
	t.Helper()
	doRequest(t, f.router, "POST", "/cart/items", map[string]interface{}{"name": "Pizza", "price": 250})
	doRequest(t, f.router, "POST", "/cart/items", map[string]interface{}{"name": "Pizza", "price": 250})
	doRequest(t, f.router, "POST", "/cart/items", map[string]interface{}{"name": "Soda", "price": 50})
}

// --- Direct submission ---

func TestCheckout_FullPaymentEndToEnd(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{})
	f.addPizzaAndSoda(t)

	rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{
		"customer_name": "Asha",
		"table_number":  "4",
		"payment_type":  "full",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["state"] != "complete" {
		t.Errorf("state: got %v, want complete", resp["state"])
	}
	b := resp["bill"].(map[string]interface{})
	if b["order_number"] != "1001" {
		t.Errorf("order_number: got %v, want 1001", b["order_number"])
	}
	if b["total"] != "550" {
		t.Errorf("total: got %v, want 550", b["total"])
	}
	if b["status"] != "Paid" {
		t.Errorf("status: got %v, want Paid", b["status"])
	}
	if b["payment_type"] != "Full Payment" {
		t.Errorf("payment_type: got %v, want Full Payment", b["payment_type"])
	}
	if b["contact_number"] != "-" {
		t.Errorf("contact_number default: got %v, want -", b["contact_number"])
	}
	if _, ok := resp["remote_error"]; ok {
		t.Errorf("unexpected remote_error: %v", resp["remote_error"])
	}

	if !f.sessions.Get(testDevice).Cart.IsEmpty() {
		t.Error("cart should be cleared after the order")
	}

	remote, _ := f.store.ListOrdersByDevice(context.Background(), testDevice, 50)
	if len(remote) != 1 || remote[0].AdminStatus != "pending" {
		t.Fatalf("remote orders: got %+v", remote)
	}

	// The last order stays available as a bill.
	rr = doRequest(t, f.router, "GET", "/orders/last", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("last order status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{})

	rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "Your cart is empty!" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestCheckout_PartialAmountBounds(t *testing.T) {
	tests := []struct {
		amount string
		want   int
	}{
		{"299.99", http.StatusBadRequest},
		{"300.00", http.StatusCreated},
		{"1000.00", http.StatusCreated},
		{"1000.01", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			f := setupCheckoutRouter(t, checkoutOptions{})
			doRequest(t, f.router, "POST", "/cart/items", map[string]interface{}{"name": "Thali", "price": "1000"})

			rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{
				"payment_type":   "partial",
				"partial_amount": tt.amount,
			})
			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
			resp := decodeResponse(t, rr)
			if tt.want == http.StatusBadRequest {
				if resp["error"] != "Please pay between ₹300.00 and ₹1000.00." {
					t.Errorf("error: got %v", resp["error"])
				}
				if f.sessions.Get(testDevice).Cart.IsEmpty() {
					t.Error("rejected order must keep the cart")
				}
				return
			}
			b := resp["bill"].(map[string]interface{})
			wantStatus := "Partially Paid"
			if tt.amount == "1000.00" {
				wantStatus = "Paid"
			}
			if b["status"] != wantStatus {
				t.Errorf("status: got %v, want %s", b["status"], wantStatus)
			}
		})
	}
}

func TestCheckout_RemoteFailureStillCompletes(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{writer: failingWriter{}})
	f.addPizzaAndSoda(t)

	rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["remote_error"] == nil {
		t.Error("expected remote_error to be reported")
	}

	// History falls back to the local copy.
	rr = doRequest(t, f.router, "GET", "/orders/history", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("history status: got %d, want %d", rr.Code, http.StatusOK)
	}
	hist := decodeResponse(t, rr)
	if hist["source"] != "local" {
		t.Errorf("source: got %v, want local", hist["source"])
	}
}

func TestCheckout_CounterMissing(t *testing.T) {
	store := memstore.New()
	cache := localcache.NewMemory()
	sessions := session.NewStore(nil)
	svc := service.NewOrderService(service.OrderServiceConfig{Counter: store, Orders: store, Cache: cache})

	r := chi.NewRouter()
	r.Use(mw.Device(nil, false))
	r.Route("/cart", handler.NewCartHandler(sessions, nil).RegisterRoutes)
	r.Route("/checkout", handler.NewCheckoutHandler(sessions, svc).RegisterRoutes)

	doRequest(t, r, "POST", "/cart/items", map[string]interface{}{"name": "Soda", "price": 50})
	rr := doRequest(t, r, "POST", "/checkout", map[string]interface{}{})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if sessions.Get(testDevice).Cart.IsEmpty() {
		t.Error("cart must survive a failed allocation")
	}
}

// --- Gateway flow ---

func TestCheckout_GatewayConfirm(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{}})
	f.addPizzaAndSoda(t)

	rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{"payment_type": "full"})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusAccepted, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	sess := resp["session"].(map[string]interface{})
	if sess["amount"] != float64(55000) {
		t.Errorf("amount: got %v, want 55000 paise", sess["amount"])
	}

	rr = doRequest(t, f.router, "GET", "/checkout", nil)
	if state := decodeResponse(t, rr)["state"]; state != "gateway_pending" {
		t.Errorf("state: got %v, want gateway_pending", state)
	}

	rr = doRequest(t, f.router, "POST", "/checkout/confirm", map[string]string{
		"session_id": "sess_1",
		"payment_id": "pay_1",
		"signature":  "sig",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("confirm status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	placed := decodeResponse(t, rr)["order"].(map[string]interface{})
	if placed["paymentId"] != "pay_1" {
		t.Errorf("paymentId: got %v, want pay_1", placed["paymentId"])
	}
}

func TestCheckout_GatewayCancelKeepsCart(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{}})
	f.addPizzaAndSoda(t)
	doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{})

	rr := doRequest(t, f.router, "POST", "/checkout/cancel", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if state := decodeResponse(t, rr)["state"]; state != "idle" {
		t.Errorf("state: got %v, want idle", state)
	}
	if f.sessions.Get(testDevice).Cart.Totals().Count != 3 {
		t.Error("cancel must leave the cart unchanged")
	}
	remote, _ := f.store.ListOrdersByDevice(context.Background(), testDevice, 50)
	if len(remote) != 0 {
		t.Errorf("nothing should be persisted, got %d orders", len(remote))
	}

	rr = doRequest(t, f.router, "POST", "/checkout/cancel", nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("second cancel: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCheckout_GatewayVerifyFails(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{verifyErr: payment.ErrSignatureMismatch}})
	f.addPizzaAndSoda(t)
	doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{})

	rr := doRequest(t, f.router, "POST", "/checkout/confirm", map[string]string{"session_id": "sess_1", "payment_id": "pay_1"})
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusPaymentRequired)
	}
}

func TestCheckout_GatewaySessionMismatch(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{}})
	f.addPizzaAndSoda(t)
	doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{})

	rr := doRequest(t, f.router, "POST", "/checkout/confirm", map[string]string{"session_id": "sess_other"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCheckout_GatewayDown(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{openErr: errors.New("timeout")}})
	f.addPizzaAndSoda(t)

	rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestCheckout_FractionalAmountRejected(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{openErr: payment.ErrFractionalAmount}})
	f.addPizzaAndSoda(t)

	rr := doRequest(t, f.router, "POST", "/checkout", map[string]interface{}{"payment_type": "partial", "partial_amount": "300.50"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if resp := decodeResponse(t, rr); resp["error"] != "This payment method only accepts whole amounts." {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestCheckout_ConfirmWithoutPending(t *testing.T) {
	f := setupCheckoutRouter(t, checkoutOptions{gateway: &mockGateway{}})

	rr := doRequest(t, f.router, "POST", "/checkout/confirm", map[string]string{"session_id": "sess_1"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}
