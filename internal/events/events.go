// Package events publishes order lifecycle events for downstream consumers
// such as fulfilment and analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"

	producerName = "storefront-api"
)

type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventVersion  int             `json:"eventVersion"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlationId,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type OrderCreatedPayload struct {
	OrderID            string      `json:"orderId"`
	OrderNumber        string      `json:"orderNumber"`
	CustomerExternalID string      `json:"customerExternalId"`
	Items              []OrderItem `json:"items"`
	TotalAmount        float64     `json:"totalAmount"`
}

type OrderStatusChangedPayload struct {
	OrderID  string    `json:"orderId"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Location string    `json:"location"`
	At       time.Time `json:"at"`
}

// NewEnvelope wraps payload with a fresh event id.
func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Envelope) error
	Close() error
}

// Nop drops every event. It is wired when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Envelope) error { return nil }
func (Nop) Close() error                            { return nil }
