package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/digital-menu/api/internal/bill"
	"github.com/digital-menu/api/internal/order"
	"github.com/digital-menu/api/internal/service"
)

// LastOrderReader returns a device's previous order. Satisfied by
// *service.OrderService.
type LastOrderReader interface {
	LastOrder(ctx context.Context, deviceID string, f *service.Flow) (*order.Order, error)
}

// HistoryLoader reads a device's past orders. Satisfied by *bill.History.
type HistoryLoader interface {
	Load(ctx context.Context, deviceID string, limit int) ([]order.Order, bill.Source, error)
	Find(ctx context.Context, deviceID, number string) (*order.Order, error)
}

// OrderHandler serves bills and order history.
type OrderHandler struct {
	sessions Sessions
	last     LastOrderReader
	history  HistoryLoader
	limit    int
}

// NewOrderHandler creates a new OrderHandler. limit caps the history size.
func NewOrderHandler(sessions Sessions, last LastOrderReader, history HistoryLoader, limit int) *OrderHandler {
	if limit <= 0 {
		limit = bill.DefaultLimit
	}
	return &OrderHandler{sessions: sessions, last: last, history: history, limit: limit}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders behind the device middleware.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/last", h.Last)
	r.Get("/history", h.History)
	r.Get("/{number}/bill", h.Bill)
}

// --- Response types ---

type billResponse struct {
	Order order.Order `json:"order"`
	Bill  bill.Bill   `json:"bill"`
}

type historyRow struct {
	bill.Row
	BillURL string `json:"bill_url"`
}

type historyResponse struct {
	Source string       `json:"source"`
	Orders []historyRow `json:"orders"`
}

// --- Handlers ---

// Last returns the bill of the caller's previous order.
func (h *OrderHandler) Last(w http.ResponseWriter, r *http.Request) {
	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	o, err := h.last.LastOrder(r.Context(), s.DeviceID, s.Flow)
	s.Unlock()
	if err != nil {
		if errors.Is(err, order.ErrNoPreviousOrder) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No previous order available!"})
			return
		}
		internalError(w, r, "load last order", err)
		return
	}

	h.writeBill(w, r, *o)
}

// History lists the caller's past orders, newest first.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := h.limit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, h.limit)
	}

	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	orders, src, err := h.history.Load(r.Context(), s.DeviceID, limit)
	if err != nil {
		if errors.Is(err, bill.ErrNoHistory) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No previous orders found!"})
			return
		}
		internalError(w, r, "load order history", err)
		return
	}

	resp := historyResponse{Source: string(src), Orders: make([]historyRow, len(orders))}
	for i, o := range orders {
		row := bill.Summarize(o)
		resp.Orders[i] = historyRow{Row: row, BillURL: "/orders/" + row.OrderNumber + "/bill"}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Bill re-opens the full bill of a past order. format=text downloads the
// plain-text receipt.
func (h *OrderHandler) Bill(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	o, err := h.history.Find(r.Context(), s.DeviceID, number)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) || errors.Is(err, bill.ErrNoHistory) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		internalError(w, r, "find order", err)
		return
	}

	h.writeBill(w, r, *o)
}

func (h *OrderHandler) writeBill(w http.ResponseWriter, r *http.Request, o order.Order) {
	b := bill.Render(o)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="Order_Bill.txt"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(b.Text()))
		return
	}
	writeJSON(w, http.StatusOK, billResponse{Order: o, Bill: b})
}
