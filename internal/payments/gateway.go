package payments

import (
	"context"
	"errors"
)

var (
	// ErrIgnoredEvent is returned for webhook events that carry no order.
	ErrIgnoredEvent     = errors.New("webhook event ignored")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrInvalidPayload marks a signed event whose body cannot become an order.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// Gateway defines a common interface for all payment providers
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseCompletedCheckout(ctx context.Context, payload []byte, signature string) (*CompletedCheckout, error)
}
