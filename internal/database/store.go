package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/metrics"
	"github.com/digital-menu/api/internal/order"
)

// CounterKey is the app_config row holding the order counter.
const CounterKey = "orderCounter"

const maxCounterRetries = 5

var errCounterConflict = errors.New("order counter changed concurrently")

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CounterStore defines the queries used to allocate order numbers.
// Satisfied by *database.Queries.
type CounterStore interface {
	GetOrderCounterForUpdate(ctx context.Context, key string) (pgtype.Int8, error)
	UpdateOrderCounter(ctx context.Context, arg UpdateOrderCounterParams) (int64, error)
}

// NewCounterStore creates a CounterStore from a DBTX (pool or tx).
type NewCounterStore func(db DBTX) CounterStore

// Store is the PostgreSQL remote store.
type Store struct {
	pool            *pgxpool.Pool
	q               *Queries
	begin           TxBeginner
	newCounterStore NewCounterStore
}

// NewStore creates a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:            pool,
		q:               New(pool),
		begin:           pool,
		newCounterStore: func(db DBTX) CounterStore { return New(db) },
	}
}

// --- Order counter ---

// NextOrderNumber returns the current counter value and stores value+1 in
// one transaction. A NULL or non-positive counter starts at 1001; a missing
// row is an error.
func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < maxCounterRetries; attempt++ {
		n, err := s.nextOrderNumberTx(ctx)
		if err == nil {
			return n, nil
		}
		if isCounterConflict(err) {
			metrics.CounterRetries.Inc()
			lastErr = err
			continue
		}
		return 0, err
	}
	return 0, lastErr
}

func (s *Store) nextOrderNumberTx(ctx context.Context) (int64, error) {
	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cs := s.newCounterStore(tx)

	stored, err := cs.GetOrderCounterForUpdate(ctx, CounterKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, order.ErrCounterMissing
		}
		return 0, fmt.Errorf("read order counter: %w", err)
	}
	current := order.DefaultCounterStart
	if stored.Valid && stored.Int64 > 0 {
		current = stored.Int64
	}

	rows, err := cs.UpdateOrderCounter(ctx, UpdateOrderCounterParams{
		Key:     CounterKey,
		Next:    current + 1,
		Current: stored,
	})
	if err != nil {
		return 0, fmt.Errorf("update order counter: %w", err)
	}
	if rows == 0 {
		return 0, errCounterConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return current, nil
}

// isCounterConflict reports errors worth retrying: a lost conditional update,
// a serialization failure (40001) or a deadlock (40P01).
func isCounterConflict(err error) bool {
	if errors.Is(err, errCounterConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// EnsureOrderCounter creates the counter row at start unless it exists.
func (s *Store) EnsureOrderCounter(ctx context.Context, start int64) error {
	if err := s.q.InitOrderCounter(ctx, InitOrderCounterParams{Key: CounterKey, Counter: start}); err != nil {
		return fmt.Errorf("init order counter: %w", err)
	}
	return nil
}

// --- Orders ---

// AddOrder inserts a finished order.
func (s *Store) AddOrder(ctx context.Context, o order.Order) error {
	cartJSON, err := json.Marshal(o.Cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = s.q.CreateOrder(ctx, CreateOrderParams{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		ContactNumber: o.ContactNumber,
		TableNumber:   o.TableNumber,
		PaymentType:   string(o.PaymentType),
		PaymentMethod: o.PaymentMethod,
		PaymentID:     pgtype.Text{String: o.PaymentID, Valid: o.PaymentID != ""},
		Total:         DecimalToNumeric(o.Total),
		PartialAmount: DecimalToNumeric(o.AmountPaid),
		Remaining:     DecimalToNumeric(o.Remaining),
		Cart:          cartJSON,
		Date:          o.Date,
		AdminStatus:   o.AdminStatus,
		DeviceID:      o.DeviceID,
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// ListOrdersByDevice returns up to limit orders of a device, newest first.
func (s *Store) ListOrdersByDevice(ctx context.Context, deviceID string, limit int) ([]order.Order, error) {
	rows, err := s.q.ListOrdersByDevice(ctx, ListOrdersByDeviceParams{DeviceID: deviceID, Limit: int32(limit)})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]order.Order, 0, len(rows))
	for _, r := range rows {
		o, err := orderFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// UpdateOrderStatus sets the adminStatus of an order.
func (s *Store) UpdateOrderStatus(ctx context.Context, number int64, status string) error {
	rows, err := s.q.UpdateOrderAdminStatus(ctx, UpdateOrderAdminStatusParams{OrderNumber: number, AdminStatus: status})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func orderFromRow(r Order) (order.Order, error) {
	var lines cart.Lines
	if len(r.Cart) > 0 {
		if err := json.Unmarshal(r.Cart, &lines); err != nil {
			return order.Order{}, fmt.Errorf("decode cart of order %d: %w", r.OrderNumber, err)
		}
	}
	return order.Order{
		OrderNumber:   r.OrderNumber,
		CustomerName:  r.CustomerName,
		ContactNumber: r.ContactNumber,
		TableNumber:   r.TableNumber,
		PaymentType:   order.PaymentType(r.PaymentType),
		PaymentMethod: r.PaymentMethod,
		PaymentID:     r.PaymentID.String,
		Total:         NumericToDecimal(r.Total),
		AmountPaid:    NumericToDecimal(r.PartialAmount),
		Remaining:     NumericToDecimal(r.Remaining),
		Cart:          lines,
		Date:          r.Date,
		DeviceID:      r.DeviceID,
		AdminStatus:   r.AdminStatus,
		CreatedAt:     r.CreatedAt.Time,
	}, nil
}

// --- Menu ---

// ListMenuItems returns the available menu items, oldest first.
func (s *Store) ListMenuItems(ctx context.Context) ([]menu.Item, error) {
	rows, err := s.q.ListAvailableMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	items := make([]menu.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, itemFromRow(r))
	}
	return items, nil
}

// UpsertMenuItem creates or replaces a menu item.
func (s *Store) UpsertMenuItem(ctx context.Context, it menu.Item) (menu.Item, error) {
	it = menu.Normalize(it)
	row, err := s.q.UpsertMenuItem(ctx, UpsertMenuItemParams{
		ID:          it.ID,
		Name:        it.Name,
		Price:       DecimalToNumeric(it.Price),
		Description: it.Description,
		Image:       it.Image,
		ImageUrl:    it.ImageURL,
		Category:    string(it.Category),
		Status:      it.Status,
	})
	if err != nil {
		return menu.Item{}, fmt.Errorf("upsert menu item: %w", err)
	}
	return itemFromRow(row), nil
}

func itemFromRow(r MenuItem) menu.Item {
	return menu.Normalize(menu.Item{
		ID:          r.ID,
		Name:        r.Name,
		Price:       NumericToDecimal(r.Price),
		Description: r.Description,
		Image:       r.Image,
		ImageURL:    r.ImageUrl,
		Category:    menu.Category(r.Category),
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Time,
	})
}
