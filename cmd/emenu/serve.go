package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/digital-menu/api/internal/bill"
	"github.com/digital-menu/api/internal/config"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/metrics"
	"github.com/digital-menu/api/internal/notify"
	"github.com/digital-menu/api/internal/order"
	"github.com/digital-menu/api/internal/router"
	"github.com/digital-menu/api/internal/service"
	"github.com/digital-menu/api/internal/session"
	"github.com/digital-menu/api/internal/ws"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg := config.Load()
	log := logger.Init(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	store, closeStore, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureOrderCounter(ctx, order.DefaultCounterStart); err != nil {
		return fmt.Errorf("ensure order counter: %w", err)
	}

	cache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	gateway, err := openGateway(cfg)
	if err != nil {
		return err
	}

	// --- Realtime ---
	hub := ws.NewHub()
	go hub.Run(ctx)

	notifier := notify.Multi{notify.NewHub(hub)}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.DialAMQP(cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer amqpNotifier.Close()
		notifier = append(notifier, amqpNotifier)
		log.Info("publishing new orders", "exchange", notify.Exchange)
	}

	catalog := menu.NewCatalog(hub)
	syncer := menu.NewSyncer(store, cache, catalog, cfg.MenuResubscribeInterval, log.With("component", "menu"))
	go syncer.Run(ctx)

	sessions := session.NewStore(hub)
	go sweepSessions(ctx, sessions, cfg.SessionIdleTTL, log)

	// --- HTTP ---
	orders := service.NewOrderService(service.OrderServiceConfig{
		Counter:        store,
		Orders:         store,
		Cache:          cache,
		Gateway:        gateway,
		Notifier:       notifier,
		Currency:       cfg.Currency,
		Merchant:       cfg.MerchantName,
		StoreTimeout:   cfg.StoreTimeout,
		GatewayTimeout: cfg.GatewayTimeout,
	})
	r := router.New(router.Deps{
		Config:   cfg,
		Log:      log,
		Hub:      hub,
		Cache:    cache,
		Sessions: sessions,
		Menu:     catalog,
		Prices:   catalog,
		Orders:   orders,
		History:  bill.NewHistory(store, cache, cfg.StoreTimeout, log.With("component", "history")),
		Admin:    store,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Port, "store", cfg.StoreDriver, "cache", cfg.CacheDriver, "gateway", cfg.PaymentGateway)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sweepSessions drops idle device sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *session.Store, idle time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(idle); n > 0 {
				log.Debug("swept idle sessions", "removed", n)
			}
			metrics.ActiveSessions.Set(float64(sessions.Len()))
		}
	}
}
