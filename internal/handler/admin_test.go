package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/handler"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/order"
)

// --- Mock store ---

type mockAdminStore struct {
	upserted  []menu.Item
	statuses  map[int64]string
	upsertErr error
}

func newMockAdminStore() *mockAdminStore {
	return &mockAdminStore{statuses: map[int64]string{1001: enum.AdminStatusPending}}
}

func (m *mockAdminStore) UpsertMenuItem(_ context.Context, it menu.Item) (menu.Item, error) {
	if m.upsertErr != nil {
		return menu.Item{}, m.upsertErr
	}
	it = menu.Normalize(it)
	m.upserted = append(m.upserted, it)
	return it, nil
}

func (m *mockAdminStore) UpdateOrderStatus(_ context.Context, number int64, status string) error {
	if _, ok := m.statuses[number]; !ok {
		return order.ErrOrderNotFound
	}
	m.statuses[number] = status
	return nil
}

func setupAdminRouter(store *mockAdminStore, pub *fakePublisher) *chi.Mux {
	h := handler.NewAdminHandler(store, pub)
	r := chi.NewRouter()
	r.Route("/admin", h.RegisterRoutes)
	return r
}

// --- Menu items ---

func TestAdminUpsertMenuItem(t *testing.T) {
	store := newMockAdminStore()
	router := setupAdminRouter(store, &fakePublisher{})

	rr := doRequest(t, router, "PUT", "/admin/menu-items/paneer-tikka", map[string]interface{}{
		"name":     "Paneer Tikka",
		"price":    "249.50",
		"category": enum.CategoryAppetizers,
		"status":   enum.MenuStatusAvailable,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserts: got %d, want 1", len(store.upserted))
	}
	got := store.upserted[0]
	if got.ID != "paneer-tikka" {
		t.Errorf("id: got %q, want paneer-tikka", got.ID)
	}
	if got.Price.String() != "249.5" {
		t.Errorf("price: got %s, want 249.5", got.Price)
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "Paneer Tikka" {
		t.Errorf("name: got %v", resp["name"])
	}
}

func TestAdminUpsertMenuItem_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"missing name", map[string]interface{}{"price": 10}, "name is required"},
		{"negative price", map[string]interface{}{"name": "Tea", "price": -1}, "price must not be negative"},
		{"unknown category", map[string]interface{}{"name": "Tea", "price": 10, "category": "Soups"}, "invalid category"},
		{"unknown status", map[string]interface{}{"name": "Tea", "price": 10, "status": "sold out"}, "invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockAdminStore()
			router := setupAdminRouter(store, &fakePublisher{})

			rr := doRequest(t, router, "PUT", "/admin/menu-items/tea", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if resp := decodeResponse(t, rr); resp["error"] != tt.want {
				t.Errorf("error: got %v, want %q", resp["error"], tt.want)
			}
			if len(store.upserted) != 0 {
				t.Errorf("store written on invalid input")
			}
		})
	}
}

func TestAdminUpsertMenuItem_StoreError(t *testing.T) {
	store := newMockAdminStore()
	store.upsertErr = errors.New("connection reset")
	router := setupAdminRouter(store, &fakePublisher{})

	rr := doRequest(t, router, "PUT", "/admin/menu-items/tea", map[string]interface{}{"name": "Tea", "price": 10})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

// --- Order status ---

func TestAdminUpdateOrderStatus(t *testing.T) {
	store := newMockAdminStore()
	pub := &fakePublisher{}
	router := setupAdminRouter(store, pub)

	rr := doRequest(t, router, "PATCH", "/admin/orders/1001/status", map[string]string{"status": enum.AdminStatusPreparing})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.statuses[1001] != enum.AdminStatusPreparing {
		t.Errorf("stored status: got %q, want %q", store.statuses[1001], enum.AdminStatusPreparing)
	}
	if len(pub.events) != 1 {
		t.Fatalf("events: got %d, want 1", len(pub.events))
	}
	if pub.events[0].room != enum.RoomAdmin || pub.events[0].eventType != enum.EventOrderStatus {
		t.Errorf("event: got %s/%s, want %s/%s", pub.events[0].room, pub.events[0].eventType, enum.RoomAdmin, enum.EventOrderStatus)
	}
	resp := decodeResponse(t, rr)
	if resp["orderNumber"] != float64(1001) {
		t.Errorf("orderNumber: got %v, want 1001", resp["orderNumber"])
	}
}

func TestAdminUpdateOrderStatus_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		status   string
		wantCode int
	}{
		{"unknown order", "/admin/orders/4242/status", enum.AdminStatusServed, http.StatusNotFound},
		{"bad number", "/admin/orders/abc/status", enum.AdminStatusServed, http.StatusBadRequest},
		{"zero number", "/admin/orders/0/status", enum.AdminStatusServed, http.StatusBadRequest},
		{"bad status", "/admin/orders/1001/status", "cooking", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			router := setupAdminRouter(newMockAdminStore(), pub)

			rr := doRequest(t, router, "PATCH", tt.path, map[string]string{"status": tt.status})
			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			if len(pub.events) != 0 {
				t.Errorf("events: got %d, want 0", len(pub.events))
			}
		})
	}
}
