package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// Razorpay opens checkout sessions as Razorpay orders.
type Razorpay struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpay(keyID, secret string) *Razorpay {
	return &Razorpay{client: razorpay.NewClient(keyID, secret), keyID: keyID, secret: secret}
}

func (r *Razorpay) Name() string { return "razorpay" }

func (r *Razorpay) OpenSession(ctx context.Context, req SessionRequest) (Session, error) {
	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Reference,
		"notes": map[string]interface{}{
			"description": req.Description,
			"name":        req.Prefill.Name,
			"contact":     req.Prefill.Contact,
		},
	}
	body, err := call(ctx, func() (map[string]interface{}, error) {
		return r.client.Order.Create(data, nil)
	})
	if err != nil {
		return Session{}, fmt.Errorf("razorpay: create order: %w", err)
	}
	id, _ := body["id"].(string)
	if id == "" {
		return Session{}, fmt.Errorf("razorpay: create order: response has no id")
	}
	return Session{
		Provider:    r.Name(),
		ID:          id,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Description: req.Description,
		Merchant:    req.Merchant,
		KeyID:       r.keyID,
		Prefill:     req.Prefill,
	}, nil
}

// Verify checks razorpay_signature = HMAC-SHA256(order_id|payment_id, secret).
func (r *Razorpay) Verify(_ context.Context, conf Confirmation) error {
	if conf.PaymentID == "" || conf.Signature == "" {
		return ErrPaymentFailed
	}
	params := map[string]interface{}{
		"razorpay_order_id":   conf.SessionID,
		"razorpay_payment_id": conf.PaymentID,
	}
	if !utils.VerifyPaymentSignature(params, conf.Signature, r.secret) {
		return ErrSignatureMismatch
	}
	return nil
}
