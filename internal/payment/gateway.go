// Package payment creates hosted checkout sessions at the payment provider.
package payment

import (
	"context"
	"errors"
)

// ErrGateway wraps every failure talking to the provider.
var ErrGateway = errors.New("payment gateway error")

// LineItem amounts are minor currency units.
type LineItem struct {
	Name      string
	UnitPrice int64
	Quantity  int
}

type CheckoutRequest struct {
	// ClientReference is echoed back by the provider, the order reference.
	ClientReference string
	Items           []LineItem
	SuccessURL      string
	CancelURL       string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Gateway creates a checkout session and returns its id and redirect URL.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
}

func Total(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}
