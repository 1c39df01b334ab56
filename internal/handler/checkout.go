package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/bill"
	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/order"
	"github.com/digital-menu/api/internal/payment"
	"github.com/digital-menu/api/internal/service"
)

// OrderFlow runs order submission for one device. Satisfied by
// *service.OrderService.
type OrderFlow interface {
	Submit(ctx context.Context, deviceID string, f *service.Flow, c *cart.Cart, in order.Checkout) (*service.Result, error)
	Confirm(ctx context.Context, deviceID string, f *service.Flow, c *cart.Cart, conf payment.Confirmation) (*service.Result, error)
	Cancel(f *service.Flow) error
	LastOrder(ctx context.Context, deviceID string, f *service.Flow) (*order.Order, error)
}

// CheckoutHandler places orders.
type CheckoutHandler struct {
	sessions Sessions
	flow     OrderFlow
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(sessions Sessions, flow OrderFlow) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, flow: flow}
}

// RegisterRoutes registers checkout endpoints on the given Chi router.
// Expected to be mounted at /checkout behind the device middleware.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.State)
	r.Post("/", h.Submit)
	r.Post("/confirm", h.Confirm)
	r.Post("/cancel", h.Cancel)
}

// --- Request / Response types ---

type checkoutRequest struct {
	CustomerName  string          `json:"customer_name"`
	ContactNumber string          `json:"contact_number"`
	TableNumber   string          `json:"table_number"`
	PaymentMethod string          `json:"payment_method"`
	PaymentType   string          `json:"payment_type"`
	PartialAmount json.RawMessage `json:"partial_amount"`
}

func (req checkoutRequest) checkout() order.Checkout {
	c := order.Checkout{
		CustomerName:  req.CustomerName,
		ContactNumber: req.ContactNumber,
		TableNumber:   req.TableNumber,
		PaymentMethod: req.PaymentMethod,
		PaymentType:   order.ParsePaymentType(req.PaymentType),
	}
	if len(req.PartialAmount) > 0 {
		c.PartialAmount = rawPrice(req.PartialAmount)
	}
	return c
}

type checkoutResponse struct {
	State       string           `json:"state"`
	PaymentType string           `json:"payment_type,omitempty"`
	Order       *order.Order     `json:"order,omitempty"`
	Bill        *bill.Bill       `json:"bill,omitempty"`
	Session     *payment.Session `json:"session,omitempty"`
	RemoteError string           `json:"remote_error,omitempty"`
}

type partialAmountResponse struct {
	Error string          `json:"error"`
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
}

func resultResponse(res *service.Result) (int, checkoutResponse) {
	resp := checkoutResponse{State: res.State.String(), Session: res.Session}
	if res.Order == nil {
		return http.StatusAccepted, resp
	}
	b := bill.Render(*res.Order)
	resp.Order = res.Order
	resp.Bill = &b
	if res.RemoteErr != nil {
		resp.RemoteError = "Order saved on this device but could not be sent to the restaurant. Please inform the staff."
	}
	return http.StatusCreated, resp
}

// --- Handlers ---

// State reports where the caller's order flow stands.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	resp := checkoutResponse{State: s.Flow.State.String(), PaymentType: string(s.Flow.PaymentType)}
	if s.Flow.Pending != nil {
		sess := s.Flow.Pending.Session
		resp.Session = &sess
	}
	s.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// Submit validates the cart and either places the order (201) or opens a
// gateway payment session (202).
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	res, err := h.flow.Submit(r.Context(), s.DeviceID, s.Flow, s.Cart, req.checkout())
	s.Unlock()
	if err != nil {
		h.writeFlowError(w, r, err)
		return
	}

	status, resp := resultResponse(res)
	writeJSON(w, status, resp)
}

// Confirm completes a gateway payment with the widget's success payload.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var conf payment.Confirmation
	if err := json.NewDecoder(r.Body).Decode(&conf); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if conf.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	res, err := h.flow.Confirm(r.Context(), s.DeviceID, s.Flow, s.Cart, conf)
	s.Unlock()
	if err != nil {
		h.writeFlowError(w, r, err)
		return
	}

	status, resp := resultResponse(res)
	writeJSON(w, status, resp)
}

// Cancel abandons the open payment session. The cart is kept.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	err := h.flow.Cancel(s.Flow)
	state := s.Flow.State.String()
	s.Unlock()
	if err != nil {
		h.writeFlowError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{State: state})
}

func (h *CheckoutHandler) writeFlowError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *order.PartialAmountError
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Your cart is empty!"})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, partialAmountResponse{Error: pe.Error(), Min: pe.Min, Max: pe.Max})
	case errors.Is(err, payment.ErrFractionalAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "This payment method only accepts whole amounts."})
	case errors.Is(err, service.ErrNoPendingPayment):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no payment in progress"})
	case errors.Is(err, service.ErrSessionMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment session does not match"})
	case errors.Is(err, payment.ErrSignatureMismatch), errors.Is(err, payment.ErrPaymentFailed):
		logger.WithCtx(r.Context()).Warn("payment verification failed", "error", err)
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "payment verification failed"})
	case errors.Is(err, service.ErrGatewayDown):
		logger.WithCtx(r.Context()).Error("open payment session", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment gateway unavailable, please try again"})
	default:
		internalError(w, r, "checkout", err)
	}
}
