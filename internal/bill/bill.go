// Package bill renders order records as bills and history rows.
package bill

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/money"
	"github.com/digital-menu/api/internal/order"
)

const (
	StatusPaid          = "Paid"
	StatusPartiallyPaid = "Partially Paid"

	LabelFull    = "Full Payment"
	LabelPartial = "Partial Payment"
)

// Item is one bill line: name × quantity and its line total.
type Item struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Bill struct {
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	ContactNumber string          `json:"contact_number"`
	TableNumber   string          `json:"table_number"`
	Items         []Item          `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentType   string          `json:"payment_type"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Remaining     decimal.Decimal `json:"remaining"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Date          string          `json:"date"`
}

// Status is "Partially Paid" when anything remains, otherwise "Paid".
func Status(remaining decimal.Decimal) string {
	if remaining.IsPositive() {
		return StatusPartiallyPaid
	}
	return StatusPaid
}

func PaymentLabel(pt order.PaymentType) string {
	if pt == order.PaymentPartial {
		return LabelPartial
	}
	return LabelFull
}

// Number is the display number of an order: the counter value, else the
// legacy orderId, else "N/A".
func Number(o order.Order) string {
	switch {
	case o.OrderNumber > 0:
		return strconv.FormatInt(o.OrderNumber, 10)
	case o.LegacyID != "":
		return o.LegacyID
	default:
		return "N/A"
	}
}

func method(m string) string {
	if m == "" {
		return "-"
	}
	return m
}

func quantity(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

// Render builds the bill for an order. It has no side effects.
func Render(o order.Order) Bill {
	items := make([]Item, 0, len(o.Cart))
	for _, l := range o.Cart {
		q := quantity(l.Quantity)
		items = append(items, Item{
			Name:      l.Name,
			Quantity:  q,
			UnitPrice: l.Price,
			LineTotal: l.Price.Mul(decimal.NewFromInt(int64(q))),
		})
	}
	return Bill{
		OrderNumber:   Number(o),
		CustomerName:  o.CustomerName,
		ContactNumber: o.ContactNumber,
		TableNumber:   o.TableNumber,
		Items:         items,
		Total:         o.Total,
		PaymentType:   PaymentLabel(o.PaymentType),
		AmountPaid:    o.AmountPaid,
		Remaining:     o.Remaining,
		Status:        Status(o.Remaining),
		PaymentMethod: method(o.PaymentMethod),
		Date:          o.Date,
	}
}

// Text is the downloadable plain-text receipt.
func (b Bill) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Order #%s\n", b.OrderNumber)
	fmt.Fprintf(&sb, "Date: %s\n", b.Date)
	fmt.Fprintf(&sb, "Customer: %s\n", b.CustomerName)
	fmt.Fprintf(&sb, "Contact: %s\n", b.ContactNumber)
	fmt.Fprintf(&sb, "Table: %s\n", b.TableNumber)
	sb.WriteString(strings.Repeat("-", 32) + "\n")
	for _, it := range b.Items {
		fmt.Fprintf(&sb, "%s × %d  %s\n", it.Name, it.Quantity, money.Format(it.LineTotal))
	}
	sb.WriteString(strings.Repeat("-", 32) + "\n")
	fmt.Fprintf(&sb, "Total: %s\n", money.Format(b.Total))
	fmt.Fprintf(&sb, "Payment Type: %s\n", b.PaymentType)
	fmt.Fprintf(&sb, "Amount Paid: %s\n", money.Format(b.AmountPaid))
	fmt.Fprintf(&sb, "Remaining: %s\n", money.Format(b.Remaining))
	fmt.Fprintf(&sb, "Status: %s\n", b.Status)
	fmt.Fprintf(&sb, "Payment Method: %s\n", b.PaymentMethod)
	return sb.String()
}

// Row is one entry of the order history list.
type Row struct {
	OrderNumber   string          `json:"order_number"`
	Total         decimal.Decimal `json:"total"`
	Date          string          `json:"date"`
	Items         string          `json:"items"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
}

// Summarize condenses an order to a history row.
func Summarize(o order.Order) Row {
	return Row{
		OrderNumber:   Number(o),
		Total:         o.Total,
		Date:          o.Date,
		Items:         itemsText(o),
		Status:        Status(o.Remaining),
		PaymentMethod: method(o.PaymentMethod),
	}
}

func itemsText(o order.Order) string {
	if len(o.Cart) == 0 {
		return "No items"
	}
	parts := make([]string, 0, len(o.Cart))
	for _, l := range o.Cart {
		parts = append(parts, fmt.Sprintf("%s × %d", l.Name, quantity(l.Quantity)))
	}
	return strings.Join(parts, ", ")
}
