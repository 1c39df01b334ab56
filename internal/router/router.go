package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/digital-menu/api/internal/bill"
	"github.com/digital-menu/api/internal/config"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/handler"
	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/metrics"
	mw "github.com/digital-menu/api/internal/middleware"
	"github.com/digital-menu/api/internal/service"
	"github.com/digital-menu/api/internal/session"
	"github.com/digital-menu/api/internal/ws"
)

// Deps holds the collaborators the routes are built from.
type Deps struct {
	Config   *config.Config
	Log      *slog.Logger
	Hub      *ws.Hub
	Cache    localcache.Store
	Sessions *session.Store
	Menu     handler.MenuSource
	Prices   handler.PriceLookup
	Orders   *service.OrderService
	History  *bill.History
	Admin    handler.AdminStore
}

// New creates a Chi router with all application routes wired up.
// Customer routes resolve the caller's device first; admin routes require
// an admin token.
func New(d Deps) chi.Router {
	cfg := d.Config
	if d.Log == nil {
		d.Log = logger.L()
	}
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.DeviceHeader},
		ExposedHeaders:   []string{mw.DeviceHeader},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","store":"` + cfg.StoreDriver + `"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	menuHandler := handler.NewMenuHandler(d.Menu)
	r.Route("/menu", menuHandler.RegisterRoutes)

	r.Get("/ws/menu", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, enum.RoomMenu, w, r)
	})

	// Admin websocket (handles auth internally via query param)
	r.Get("/ws/admin", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeAdminWS(d.Hub, cfg.JWTSecret, w, r)
	})

	// Device-scoped routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Device(d.Cache, cfg.IsProduction()))

		cartHandler := handler.NewCartHandler(d.Sessions, d.Prices)
		r.Route("/cart", cartHandler.RegisterRoutes)

		checkoutHandler := handler.NewCheckoutHandler(d.Sessions, d.Orders)
		r.Route("/checkout", checkoutHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(d.Sessions, d.Orders, d.History, cfg.HistoryLimit)
		r.Route("/orders", orderHandler.RegisterRoutes)

		r.Get("/ws/device", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(d.Hub, enum.RoomDevicePrefix+mw.DeviceFromContext(r.Context()), w, r)
		})
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		// Login is public
		authHandler := handler.NewAuthHandler(cfg.AdminPasswordHash, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireAdmin())

			adminHandler := handler.NewAdminHandler(d.Admin, d.Hub)
			adminHandler.RegisterRoutes(r)
		})
	})

	d.Log.Info("router initialized")
	return r
}
