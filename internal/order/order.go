// Package order defines the order record shared by the submission flow, the
// stores and the bill renderer, plus payment validation.
package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/money"
)

type PaymentType string

const (
	PaymentFull    PaymentType = enum.PaymentTypeFull
	PaymentPartial PaymentType = enum.PaymentTypePartial
)

// ParsePaymentType treats anything other than "partial" as full.
func ParsePaymentType(s string) PaymentType {
	if s == string(PaymentPartial) {
		return PaymentPartial
	}
	return PaymentFull
}

// Errors returned by validation and lookups.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNoPreviousOrder = errors.New("no previous order")
	ErrCounterMissing  = errors.New("order counter document missing")
	ErrOrderNotFound   = errors.New("order not found")
)

// MinPartialRatio is the smallest share of the total a partial payment may cover.
var MinPartialRatio = decimal.RequireFromString("0.3")

// DefaultCounterStart is used when the stored counter is missing a value.
const DefaultCounterStart int64 = 1001

// PartialAmountError rejects a partial amount outside [Min, Max].
type PartialAmountError struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (e *PartialAmountError) Error() string {
	return fmt.Sprintf("Please pay between %s and %s.", money.Format(e.Min), money.Format(e.Max))
}

// Order is the persisted order record. JSON field names match the records
// already held in device caches.
type Order struct {
	OrderNumber   int64           `json:"orderNumber,omitempty"`
	LegacyID      string          `json:"orderId,omitempty"`
	CustomerName  string          `json:"customerName"`
	ContactNumber string          `json:"contactNumber"`
	TableNumber   string          `json:"tableNumber"`
	PaymentType   PaymentType     `json:"paymentType"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentID     string          `json:"paymentId,omitempty"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Remaining     decimal.Decimal `json:"remaining"`
	Cart          cart.Lines      `json:"cart"`
	Date          string          `json:"date"`
	DeviceID      string          `json:"deviceId,omitempty"`
	AdminStatus   string          `json:"adminStatus,omitempty"`
	CreatedAt     time.Time       `json:"createdAt,omitzero"`
}

// UnmarshalJSON accepts remote records, which carry the paid amount as
// partialAmount.
func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	var raw struct {
		plain
		PartialAmount *decimal.Decimal `json:"partialAmount"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Order(raw.plain)
	if raw.PartialAmount != nil && o.AmountPaid.IsZero() {
		o.AmountPaid = *raw.PartialAmount
	}
	return nil
}

// Checkout is the customer input collected by the order form.
type Checkout struct {
	CustomerName  string
	ContactNumber string
	TableNumber   string
	PaymentMethod string
	PaymentType   PaymentType
	PartialAmount string
}

// WithDefaults fills empty form fields the way the order form does.
func (c Checkout) WithDefaults() Checkout {
	if c.CustomerName == "" {
		c.CustomerName = "Customer"
	}
	if c.ContactNumber == "" {
		c.ContactNumber = "-"
	}
	if c.TableNumber == "" {
		c.TableNumber = "-"
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = enum.PaymentMethodUPI
	}
	if c.PaymentType == "" {
		c.PaymentType = PaymentFull
	}
	return c
}

// Payable is the validated amount split for an order.
type Payable struct {
	Type       PaymentType
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	Remaining  decimal.Decimal
}

// Validate checks the cart total against the requested payment. A partial
// amount must satisfy 0.3*total <= amount <= total and carry at most two
// decimal places.
func Validate(total decimal.Decimal, empty bool, pt PaymentType, partialAmount string) (Payable, error) {
	if empty {
		return Payable{}, ErrEmptyCart
	}
	if pt != PaymentPartial {
		return Payable{Type: PaymentFull, Total: total, AmountPaid: total, Remaining: decimal.Zero}, nil
	}

	min := total.Mul(MinPartialRatio)
	amount, ok := money.Parse(partialAmount)
	if !ok || !amount.Equal(amount.Round(2)) || amount.LessThan(min) || amount.GreaterThan(total) {
		return Payable{}, &PartialAmountError{Min: min, Max: total}
	}
	return Payable{
		Type:       PaymentPartial,
		Total:      total,
		AmountPaid: amount,
		Remaining:  total.Sub(amount),
	}, nil
}
