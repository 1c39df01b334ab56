package database

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AppConfig struct {
	Key       string             `json:"key"`
	Counter   pgtype.Int8        `json:"counter"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type MenuItem struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Price       pgtype.Numeric     `json:"price"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	ImageUrl    string             `json:"image_url"`
	Category    string             `json:"category"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Order struct {
	ID            uuid.UUID          `json:"id"`
	OrderNumber   int64              `json:"order_number"`
	CustomerName  string             `json:"customer_name"`
	ContactNumber string             `json:"contact_number"`
	TableNumber   string             `json:"table_number"`
	PaymentType   string             `json:"payment_type"`
	PaymentMethod string             `json:"payment_method"`
	PaymentID     pgtype.Text        `json:"payment_id"`
	Total         pgtype.Numeric     `json:"total"`
	PartialAmount pgtype.Numeric     `json:"partial_amount"`
	Remaining     pgtype.Numeric     `json:"remaining"`
	Cart          []byte             `json:"cart"`
	Date          string             `json:"date"`
	AdminStatus   string             `json:"admin_status"`
	DeviceID      string             `json:"device_id"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}
