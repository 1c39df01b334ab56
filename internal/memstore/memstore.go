// Package memstore is an in-process remote store for development and tests.
// It keeps the same contracts as the database-backed stores: a
// compare-and-swap order counter, a live menu feed and device-scoped order
// queries.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/metrics"
	"github.com/digital-menu/api/internal/order"
)

var ErrDuplicateOrder = errors.New("order number already stored")

type Store struct {
	mu sync.RWMutex

	counter    *int64
	hasCounter bool

	items  map[string]menu.Item
	orders []order.Order

	subs   map[int]chan struct{}
	nextID int
	now    func() time.Time
}

func New() *Store {
	return &Store{
		items: make(map[string]menu.Item),
		subs:  make(map[int]chan struct{}),
		now:   time.Now,
	}
}

// --- Order counter ---

// EnsureOrderCounter creates the counter at start unless it exists.
func (s *Store) EnsureOrderCounter(_ context.Context, start int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCounter {
		return nil
	}
	v := start
	s.counter = &v
	s.hasCounter = true
	return nil
}

// NextOrderNumber returns the current counter value and stores value+1.
// Each attempt reads the counter and swaps it only if no other writer got
// there first.
func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("allocate order number: %w", err)
		}
		stored, ok := s.loadCounter()
		if !ok {
			return 0, order.ErrCounterMissing
		}
		current := order.DefaultCounterStart
		if stored != nil && *stored > 0 {
			current = *stored
		}
		if s.swapCounter(stored, current+1) {
			return current, nil
		}
		metrics.CounterRetries.Inc()
	}
}

func (s *Store) loadCounter() (*int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasCounter {
		return nil, false
	}
	if s.counter == nil {
		return nil, true
	}
	v := *s.counter
	return &v, true
}

func (s *Store) swapCounter(old *int64, next int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCounter || !sameCounter(s.counter, old) {
		return false
	}
	s.counter = &next
	return true
}

func sameCounter(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SetCounter overwrites the stored counter. A nil value stores a counter
// document without a number.
func (s *Store) SetCounter(v *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCounter = true
	if v == nil {
		s.counter = nil
		return
	}
	c := *v
	s.counter = &c
}

// --- Orders ---

func (s *Store) AddOrder(_ context.Context, o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return fmt.Errorf("order %d: %w", o.OrderNumber, ErrDuplicateOrder)
		}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.orders = append(s.orders, o)
	return nil
}

// ListOrdersByDevice returns up to limit orders of a device, newest first.
func (s *Store) ListOrdersByDevice(_ context.Context, deviceID string, limit int) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []order.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].DeviceID == deviceID {
			out = append(out, s.orders[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, number int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].OrderNumber == number {
			s.orders[i].AdminStatus = status
			return nil
		}
	}
	return order.ErrOrderNotFound
}

// --- Menu ---

// ListMenuItems returns the available items, oldest first.
func (s *Store) ListMenuItems(_ context.Context) ([]menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableLocked(), nil
}

func (s *Store) availableLocked() []menu.Item {
	out := []menu.Item{}
	for _, it := range s.items {
		if it.Available() {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// UpsertMenuItem stores an item and wakes every subscriber.
func (s *Store) UpsertMenuItem(_ context.Context, it menu.Item) (menu.Item, error) {
	it = menu.Normalize(it)
	s.mu.Lock()
	if prev, ok := s.items[it.ID]; ok {
		it.CreatedAt = prev.CreatedAt
	} else if it.CreatedAt.IsZero() {
		it.CreatedAt = s.now()
	}
	s.items[it.ID] = it
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
	return it, nil
}

// Subscribe delivers the available items now and after every change until
// ctx is done.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func([]menu.Item)) error {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	for {
		items, _ := s.ListMenuItems(ctx)
		onSnapshot(items)
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
		}
	}
}
