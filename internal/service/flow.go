package service

import (
	"github.com/digital-menu/api/internal/order"
)

// State is the position of a device in the order submission flow.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateGatewayPending
	StatePersisting
	StateComplete
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateGatewayPending:
		return "gateway_pending"
	case StatePersisting:
		return "persisting"
	case StateComplete:
		return "complete"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Flow is one device's submission state. PaymentType is the currently
// selected option of the order form.
type Flow struct {
	State       State
	PaymentType order.PaymentType
	Pending     *Pending
	Last        *order.Order
}

func NewFlow() *Flow {
	return &Flow{State: StateIdle, PaymentType: order.PaymentFull}
}
