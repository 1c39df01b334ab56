// Package payment adapts third-party checkout gateways to a single
// open-session / verify-confirmation interface.
package payment

import (
	"context"
	"errors"
)

var (
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrPaymentFailed     = errors.New("payment not successful")
	ErrUnknownGateway    = errors.New("unknown payment gateway")
	// ErrFractionalAmount is returned by gateways that only charge whole
	// major units.
	ErrFractionalAmount = errors.New("amount must be a whole number")
)

type Prefill struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// SessionRequest asks the gateway for a checkout session. AmountMinor is in
// the currency's minor unit (paise for INR).
type SessionRequest struct {
	Reference   string
	AmountMinor int64
	Currency    string
	Description string
	Merchant    string
	Prefill     Prefill
}

// Session is what the client needs to open the gateway's checkout widget.
type Session struct {
	Provider    string  `json:"provider"`
	ID          string  `json:"session_id"`
	AmountMinor int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Merchant    string  `json:"name,omitempty"`
	KeyID       string  `json:"key,omitempty"`
	Token       string  `json:"token,omitempty"`
	RedirectURL string  `json:"redirect_url,omitempty"`
	Prefill     Prefill `json:"prefill"`
}

// Confirmation is the success payload handed back by the checkout widget.
type Confirmation struct {
	SessionID   string `json:"session_id"`
	PaymentID   string `json:"payment_id"`
	Signature   string `json:"signature"`
	StatusCode  string `json:"status_code,omitempty"`
	GrossAmount string `json:"gross_amount,omitempty"`
}

type Gateway interface {
	Name() string
	OpenSession(ctx context.Context, req SessionRequest) (Session, error)
	// Verify checks that conf proves a successful payment for its session.
	Verify(ctx context.Context, conf Confirmation) error
}

// call runs a blocking SDK call and gives up when ctx is done. The SDKs used
// here do not take a context.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
