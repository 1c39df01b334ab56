package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digital-menu/api/internal/menu"
)

// MenuSource holds the latest rendered sections. Satisfied by *menu.Catalog.
type MenuSource interface {
	Sections() []menu.Section
	UpdatedAt() time.Time
}

// MenuHandler serves the synced menu.
type MenuHandler struct {
	source MenuSource
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(source MenuSource) *MenuHandler {
	return &MenuHandler{source: source}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

// --- Response types ---

type menuResponse struct {
	Active     menu.Category   `json:"active"`
	Categories []menu.Category `json:"categories"`
	Sections   []menu.Section  `json:"sections"`
	UpdatedAt  *time.Time      `json:"updated_at"`
}

// --- Handlers ---

// Get returns every category section. The category query parameter picks
// the active tab; it defaults to appetizers.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	active := menu.Appetizers
	if q := r.URL.Query().Get("category"); q != "" {
		c, ok := menu.ParseCategory(q)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
			return
		}
		active = c
	}

	resp := menuResponse{
		Active:     active,
		Categories: menu.Categories,
		Sections:   h.source.Sections(),
	}
	if t := h.source.UpdatedAt(); !t.IsZero() {
		resp.UpdatedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}
