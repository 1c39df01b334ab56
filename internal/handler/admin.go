package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/order"
)

// AdminStore defines the store writes available to the admin panel.
// Satisfied by *database.Store, *mongostore.Store and *memstore.Store.
type AdminStore interface {
	UpsertMenuItem(ctx context.Context, it menu.Item) (menu.Item, error)
	UpdateOrderStatus(ctx context.Context, number int64, status string) error
}

// Publisher pushes an event to a websocket room. Satisfied by *ws.Hub.
type Publisher interface {
	Publish(room, eventType string, payload any)
}

// AdminHandler handles menu maintenance and order status changes.
type AdminHandler struct {
	store AdminStore
	pub   Publisher
}

// NewAdminHandler creates a new AdminHandler. pub may be nil.
func NewAdminHandler(store AdminStore, pub Publisher) *AdminHandler {
	return &AdminHandler{store: store, pub: pub}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
// Expected to be mounted at /admin behind admin authentication.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Put("/menu-items/{id}", h.UpsertMenuItem)
	r.Patch("/orders/{number}/status", h.UpdateOrderStatus)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

type orderStatusEvent struct {
	OrderNumber int64  `json:"orderNumber"`
	AdminStatus string `json:"adminStatus"`
}

func isValidAdminStatus(s string) bool {
	switch s {
	case enum.AdminStatusPending, enum.AdminStatusAccepted, enum.AdminStatusPreparing,
		enum.AdminStatusServed, enum.AdminStatusRejected:
		return true
	}
	return false
}

func isValidMenuStatus(s string) bool {
	return s == "" || s == enum.MenuStatusAvailable || s == enum.MenuStatusUnavailable
}

// --- Handlers ---

// UpsertMenuItem creates or replaces a menu item. Subscribed menus pick the
// change up through the store's feed.
func (h *AdminHandler) UpsertMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must not be negative"})
		return
	}
	if req.Category != "" {
		if _, ok := menu.ParseCategory(req.Category); !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
			return
		}
	}
	if !isValidMenuStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	item, err := h.store.UpsertMenuItem(r.Context(), menu.Item{
		ID:          id,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		ImageURL:    req.ImageURL,
		Category:    menu.Category(req.Category),
		Status:      req.Status,
	})
	if err != nil {
		internalError(w, r, "upsert menu item", err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// UpdateOrderStatus moves an order through the kitchen workflow.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order number"})
		return
	}

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidAdminStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	if err := h.store.UpdateOrderStatus(r.Context(), number, req.Status); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		internalError(w, r, "update order status", err)
		return
	}

	evt := orderStatusEvent{OrderNumber: number, AdminStatus: req.Status}
	if h.pub != nil {
		h.pub.Publish(enum.RoomAdmin, enum.EventOrderStatus, evt)
	}
	writeJSON(w, http.StatusOK, evt)
}
