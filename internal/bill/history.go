package bill

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/order"
)

var ErrNoHistory = errors.New("no previous orders found")

const DefaultLimit = 50

// Source tells where a history listing came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceLegacy Source = "legacy"
)

// OrderLister queries remote orders for a device, newest first.
type OrderLister interface {
	ListOrdersByDevice(ctx context.Context, deviceID string, limit int) ([]order.Order, error)
}

type History struct {
	remote  OrderLister
	cache   localcache.Store
	timeout time.Duration
	log     *slog.Logger
}

func NewHistory(remote OrderLister, cache localcache.Store, timeout time.Duration, log *slog.Logger) *History {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &History{remote: remote, cache: cache, timeout: timeout, log: log}
}

// Load returns the device's orders. The remote store is asked first; an
// error or an empty result falls back to the local "orders" list and then
// to the legacy "order" list.
func (h *History) Load(ctx context.Context, deviceID string, limit int) ([]order.Order, Source, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if h.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, h.timeout)
		orders, err := h.remote.ListOrdersByDevice(rctx, deviceID, limit)
		cancel()
		if err != nil {
			h.log.Warn("remote history unavailable, using local cache", "device_id", deviceID, "error", err)
		} else if len(orders) > 0 {
			return orders, SourceRemote, nil
		}
	}

	lc := localcache.ForDevice(h.cache, deviceID)

	var local []order.Order
	if _, err := lc.Get(ctx, localcache.KeyOrders, &local); err != nil {
		h.log.Warn("read local order list", "device_id", deviceID, "error", err)
		local = nil
	}
	if len(local) > 0 {
		return newestFirst(local, limit), SourceLocal, nil
	}

	var legacy []order.Order
	if _, err := lc.Get(ctx, localcache.KeyOrderLegacy, &legacy); err != nil {
		h.log.Warn("read legacy order list", "device_id", deviceID, "error", err)
		legacy = nil
	}
	if len(legacy) > 0 {
		if len(legacy) > limit {
			legacy = legacy[:limit]
		}
		return legacy, SourceLegacy, nil
	}
	return nil, "", ErrNoHistory
}

// Find looks up one order of the device by its display number.
func (h *History) Find(ctx context.Context, deviceID, number string) (*order.Order, error) {
	orders, _, err := h.Load(ctx, deviceID, DefaultLimit)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if Number(orders[i]) == number {
			return &orders[i], nil
		}
	}
	return nil, order.ErrOrderNotFound
}

// The local list is appended in submission order.
func newestFirst(orders []order.Order, limit int) []order.Order {
	out := make([]order.Order, 0, min(len(orders), limit))
	for i := len(orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, orders[i])
	}
	return out
}
