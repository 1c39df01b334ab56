// source: orders.sql

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    order_number, customer_name, contact_number, table_number,
    payment_type, payment_method, payment_id,
    total, partial_amount, remaining, cart, date, admin_status, device_id
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
RETURNING id, order_number, customer_name, contact_number, table_number, payment_type, payment_method, payment_id, total, partial_amount, remaining, cart, date, admin_status, device_id, created_at
`

type CreateOrderParams struct {
	OrderNumber   int64          `json:"order_number"`
	CustomerName  string         `json:"customer_name"`
	ContactNumber string         `json:"contact_number"`
	TableNumber   string         `json:"table_number"`
	PaymentType   string         `json:"payment_type"`
	PaymentMethod string         `json:"payment_method"`
	PaymentID     pgtype.Text    `json:"payment_id"`
	Total         pgtype.Numeric `json:"total"`
	PartialAmount pgtype.Numeric `json:"partial_amount"`
	Remaining     pgtype.Numeric `json:"remaining"`
	Cart          []byte         `json:"cart"`
	Date          string         `json:"date"`
	AdminStatus   string         `json:"admin_status"`
	DeviceID      string         `json:"device_id"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.CustomerName,
		arg.ContactNumber,
		arg.TableNumber,
		arg.PaymentType,
		arg.PaymentMethod,
		arg.PaymentID,
		arg.Total,
		arg.PartialAmount,
		arg.Remaining,
		arg.Cart,
		arg.Date,
		arg.AdminStatus,
		arg.DeviceID,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.CustomerName,
		&i.ContactNumber,
		&i.TableNumber,
		&i.PaymentType,
		&i.PaymentMethod,
		&i.PaymentID,
		&i.Total,
		&i.PartialAmount,
		&i.Remaining,
		&i.Cart,
		&i.Date,
		&i.AdminStatus,
		&i.DeviceID,
		&i.CreatedAt,
	)
	return i, err
}

const listOrdersByDevice = `-- name: ListOrdersByDevice :many
SELECT id, order_number, customer_name, contact_number, table_number, payment_type, payment_method, payment_id, total, partial_amount, remaining, cart, date, admin_status, device_id, created_at FROM orders
WHERE device_id = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListOrdersByDeviceParams struct {
	DeviceID string `json:"device_id"`
	Limit    int32  `json:"limit"`
}

func (q *Queries) ListOrdersByDevice(ctx context.Context, arg ListOrdersByDeviceParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByDevice, arg.DeviceID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.OrderNumber,
			&i.CustomerName,
			&i.ContactNumber,
			&i.TableNumber,
			&i.PaymentType,
			&i.PaymentMethod,
			&i.PaymentID,
			&i.Total,
			&i.PartialAmount,
			&i.Remaining,
			&i.Cart,
			&i.Date,
			&i.AdminStatus,
			&i.DeviceID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderAdminStatus = `-- name: UpdateOrderAdminStatus :execrows
UPDATE orders SET admin_status = $2
WHERE order_number = $1
`

type UpdateOrderAdminStatusParams struct {
	OrderNumber int64  `json:"order_number"`
	AdminStatus string `json:"admin_status"`
}

func (q *Queries) UpdateOrderAdminStatus(ctx context.Context, arg UpdateOrderAdminStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateOrderAdminStatus, arg.OrderNumber, arg.AdminStatus)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
