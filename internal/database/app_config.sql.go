// source: app_config.sql

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getOrderCounterForUpdate = `-- name: GetOrderCounterForUpdate :one
SELECT counter FROM app_config
WHERE key = $1
FOR UPDATE
`

func (q *Queries) GetOrderCounterForUpdate(ctx context.Context, key string) (pgtype.Int8, error) {
	row := q.db.QueryRow(ctx, getOrderCounterForUpdate, key)
	var counter pgtype.Int8
	err := row.Scan(&counter)
	return counter, err
}

const updateOrderCounter = `-- name: UpdateOrderCounter :execrows
UPDATE app_config
SET counter = $2, updated_at = now()
WHERE key = $1 AND counter IS NOT DISTINCT FROM $3
`

type UpdateOrderCounterParams struct {
	Key     string      `json:"key"`
	Next    int64       `json:"next"`
	Current pgtype.Int8 `json:"current"`
}

func (q *Queries) UpdateOrderCounter(ctx context.Context, arg UpdateOrderCounterParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateOrderCounter, arg.Key, arg.Next, arg.Current)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const initOrderCounter = `-- name: InitOrderCounter :exec
INSERT INTO app_config (key, counter)
VALUES ($1, $2)
ON CONFLICT (key) DO NOTHING
`

type InitOrderCounterParams struct {
	Key     string `json:"key"`
	Counter int64  `json:"counter"`
}

func (q *Queries) InitOrderCounter(ctx context.Context, arg InitOrderCounterParams) error {
	_, err := q.db.Exec(ctx, initOrderCounter, arg.Key, arg.Counter)
	return err
}
