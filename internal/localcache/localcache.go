// Package localcache is the per-device key/value store that stands in for
// browser local storage. Values are stored as JSON.
package localcache

import (
	"context"
	"errors"
)

// Order numbers come from the remote counter only; the legacy per-device
// "orderCounter" key is neither read nor written.
const (
	KeyDeviceID    = "deviceId"
	KeyLastOrder   = "lastOrder"
	KeyOrders      = "orders"
	KeyOrderLegacy = "order"
	KeyMenuItems   = "menuItems"
)

var ErrUnavailable = errors.New("local cache unavailable")

// Store is implemented by Redis and Memory.
type Store interface {
	// Get decodes the value under key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Del(ctx context.Context, keys ...string) error
}

// Scoped prefixes every key with a device namespace, so one backing store
// can serve many devices.
type Scoped struct {
	store  Store
	prefix string
}

func ForDevice(store Store, deviceID string) *Scoped {
	return &Scoped{store: store, prefix: "device:" + deviceID + ":"}
}

func (s *Scoped) Get(ctx context.Context, key string, dest any) (bool, error) {
	return s.store.Get(ctx, s.prefix+key, dest)
}

func (s *Scoped) Set(ctx context.Context, key string, value any) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *Scoped) Del(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.prefix + k
	}
	return s.store.Del(ctx, scoped...)
}
