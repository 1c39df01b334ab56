package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// Midtrans opens checkout sessions as Snap transactions.
type Midtrans struct {
	client    snap.Client
	serverKey string
}

func NewMidtrans(serverKey, env string) *Midtrans {
	m := &Midtrans{serverKey: serverKey}
	e := midtrans.Sandbox
	if env == "production" {
		e = midtrans.Production
	}
	m.client.New(serverKey, e)
	return m
}

func (m *Midtrans) Name() string { return "midtrans" }

func (m *Midtrans) OpenSession(ctx context.Context, req SessionRequest) (Session, error) {
	gross, err := grossAmount(req)
	if err != nil {
		return Session{}, err
	}
	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Prefill.Name,
			Phone: req.Prefill.Contact,
		},
	}
	resp, err := call(ctx, func() (*snap.Response, error) {
		resp, merr := m.client.CreateTransaction(sr)
		if merr != nil {
			return nil, merr
		}
		return resp, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("midtrans: create transaction: %w", err)
	}
	return Session{
		Provider:    m.Name(),
		ID:          req.Reference,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Description: req.Description,
		Merchant:    req.Merchant,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		Prefill:     req.Prefill,
	}, nil
}

// Verify checks the notification signature
// SHA512(order_id + status_code + gross_amount + server_key).
func (m *Midtrans) Verify(_ context.Context, conf Confirmation) error {
	if conf.StatusCode != "200" {
		return ErrPaymentFailed
	}
	sum := sha512.Sum512([]byte(conf.SessionID + conf.StatusCode + conf.GrossAmount + m.serverKey))
	expected := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(conf.Signature)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

// Snap amounts are whole major units. Anything else would be charged
// differently from what the order records.
func grossAmount(req SessionRequest) (int64, error) {
	if req.AmountMinor%100 != 0 {
		return 0, fmt.Errorf("midtrans: %d minor units: %w", req.AmountMinor, ErrFractionalAmount)
	}
	return req.AmountMinor / 100, nil
}
