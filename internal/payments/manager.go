package payments

import (
	"context"
	"fmt"
)

type PaymentManager struct {
	gateways map[string]Gateway
}

func NewPaymentManager() *PaymentManager {
	return &PaymentManager{gateways: make(map[string]Gateway)}
}

func (m *PaymentManager) RegisterGateway(name string, gateway Gateway) {
	m.gateways[name] = gateway
}

func (m *PaymentManager) Gateway(name string) (Gateway, error) {
	gateway, ok := m.gateways[name]
	if !ok {
		return nil, fmt.Errorf("gateway not registered: %s", name)
	}
	return gateway, nil
}

func (m *PaymentManager) CreateCheckoutSession(ctx context.Context, method string, req CheckoutRequest) (*CheckoutSession, error) {
	gateway, err := m.Gateway(method)
	if err != nil {
		return nil, err
	}
	return gateway.CreateCheckoutSession(ctx, req)
}

func (m *PaymentManager) ParseCompletedCheckout(ctx context.Context, method string, payload []byte, signature string) (*CompletedCheckout, error) {
	gateway, err := m.Gateway(method)
	if err != nil {
		return nil, err
	}
	return gateway.ParseCompletedCheckout(ctx, payload, signature)
}
