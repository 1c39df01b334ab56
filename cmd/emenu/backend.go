package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digital-menu/api/internal/config"
	"github.com/digital-menu/api/internal/database"
	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/memstore"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/mongostore"
	"github.com/digital-menu/api/internal/order"
	"github.com/digital-menu/api/internal/payment"
)

// Backend is the remote store the server runs against. Satisfied by
// *database.Store, *mongostore.Store and *memstore.Store.
type Backend interface {
	EnsureOrderCounter(ctx context.Context, start int64) error
	NextOrderNumber(ctx context.Context) (int64, error)
	AddOrder(ctx context.Context, o order.Order) error
	ListOrdersByDevice(ctx context.Context, deviceID string, limit int) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, number int64, status string) error
	ListMenuItems(ctx context.Context) ([]menu.Item, error)
	UpsertMenuItem(ctx context.Context, it menu.Item) (menu.Item, error)
	Subscribe(ctx context.Context, onSnapshot func([]menu.Item)) error
}

// openBackend connects the store named by STORE_DRIVER. The returned
// close func releases its connections.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (Backend, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("connected to postgres")
		return database.NewStore(pool), pool.Close, nil

	case "mongo":
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		log.Info("connected to mongodb", "database", cfg.MongoDatabase)
		return st, func() { _ = st.Close(context.Background()) }, nil

	case "memory":
		log.Warn("using in-memory store; orders are lost on restart")
		return memstore.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// openCache connects the per-device local cache named by CACHE_DRIVER.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (localcache.Store, func(), error) {
	switch cfg.CacheDriver {
	case "redis":
		rc, err := localcache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("connected to redis", "addr", cfg.RedisAddr)
		return rc, func() { _ = rc.Close() }, nil
	case "memory":
		return localcache.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.CacheDriver)
	}
}

// openGateway builds the payment gateway named by PAYMENT_GATEWAY. "none"
// places orders without collecting payment.
func openGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.PaymentGateway {
	case "", "none":
		return nil, nil
	case "razorpay":
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return nil, fmt.Errorf("razorpay requires RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
		return payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret), nil
	case "midtrans":
		if cfg.MidtransServerKey == "" {
			return nil, fmt.Errorf("midtrans requires MIDTRANS_SERVER_KEY")
		}
		return payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransEnv), nil
	default:
		return nil, fmt.Errorf("unknown PAYMENT_GATEWAY %q", cfg.PaymentGateway)
	}
}
