package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/cart"
)

// PriceLookup resolves the current menu price of an item by name.
// Satisfied by *menu.Catalog.
type PriceLookup interface {
	Price(name string) (decimal.Decimal, bool)
}

// CartHandler exposes the caller's cart.
type CartHandler struct {
	sessions Sessions
	prices   PriceLookup
}

// NewCartHandler creates a new CartHandler. prices may be nil, in which case
// the client's price is taken as sent.
func NewCartHandler(sessions Sessions, prices PriceLookup) *CartHandler {
	return &CartHandler{sessions: sessions, prices: prices}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
// Expected to be mounted at /cart behind the device middleware.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Post("/items", h.AddItem)
	r.Delete("/items/{name}", h.RemoveItem)
}

// --- Request / Response types ---

type addItemRequest struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

type cartResponse struct {
	cart.Summary
	Notices []string `json:"notices,omitempty"`
}

// rawPrice accepts the price as a JSON string or number.
func rawPrice(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// --- Handlers ---

// Get returns the cart summary.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	resp := cartResponse{Summary: s.Cart.Summary()}
	s.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// AddItem adds one unit of an item. Items on the menu are charged at the
// menu price; the client's price is only used for names the menu does not
// know. An item with an empty name or a bad price leaves the cart
// unchanged. The response carries the "added" notice the first time an
// item enters the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	if price, ok := h.menuPrice(req.Name); ok {
		s.Cart.Add(req.Name, price)
	} else {
		s.Cart.AddString(req.Name, rawPrice(req.Price))
	}
	resp := cartResponse{Summary: s.Cart.Summary(), Notices: s.TakeNotices()}
	s.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// RemoveItem takes one unit of an item out of the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item name"})
		return
	}

	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	s.Cart.Remove(name)
	resp := cartResponse{Summary: s.Cart.Summary()}
	s.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := deviceSession(w, r, h.sessions)
	if !ok {
		return
	}
	s.Lock()
	s.Cart.Clear()
	resp := cartResponse{Summary: s.Cart.Summary()}
	s.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) menuPrice(name string) (decimal.Decimal, bool) {
	if h.prices == nil || name == "" {
		return decimal.Decimal{}, false
	}
	return h.prices.Price(name)
}
