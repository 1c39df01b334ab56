// source: menu_items.sql

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listAvailableMenuItems = `-- name: ListAvailableMenuItems :many
SELECT id, name, price, description, image, image_url, category, status, created_at FROM menu_items
WHERE status = 'available'
ORDER BY created_at ASC, id ASC
`

func (q *Queries) ListAvailableMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.Description,
			&i.Image,
			&i.ImageUrl,
			&i.Category,
			&i.Status,
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

const upsertMenuItem = `-- name: UpsertMenuItem :one
INSERT INTO menu_items (id, name, price, description, image, image_url, category, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    description = EXCLUDED.description,
    image = EXCLUDED.image,
    image_url = EXCLUDED.image_url,
    category = EXCLUDED.category,
    status = EXCLUDED.status
RETURNING id, name, price, description, image, image_url, category, status, created_at
`

type UpsertMenuItemParams struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Price       pgtype.Numeric `json:"price"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	ImageUrl    string         `json:"image_url"`
	Category    string         `json:"category"`
	Status      string         `json:"status"`
}

func (q *Queries) UpsertMenuItem(ctx context.Context, arg UpsertMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, upsertMenuItem,
		arg.ID,
		arg.Name,
		arg.Price,
		arg.Description,
		arg.Image,
		arg.ImageUrl,
		arg.Category,
		arg.Status,
	)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Description,
		&i.Image,
		&i.ImageUrl,
		&i.Category,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}
