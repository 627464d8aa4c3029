package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusShipped        Status = "shipped"
	StatusInTransit      Status = "in-transit"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCanceled       Status = "canceled"
)

// DefaultLocation is recorded when a status change carries no location.
const DefaultLocation = "Status updated"

type TrackingEntry struct {
	Status    Status    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Location  string    `bson:"location" json:"location"`
}

// OrderItem is a snapshot of a purchased line; it does not follow later
// product edits.
type OrderItem struct {
	Product   primitive.ObjectID `bson:"product" json:"product"`
	Title     string             `bson:"title" json:"title"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
}

type ShippingAddress struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country" json:"country"`
}

type Order struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber        string             `bson:"orderNumber" json:"orderNumber"`
	CustomerExternalID string             `bson:"customerExternalId" json:"customerExternalId"`
	Products           []OrderItem        `bson:"products" json:"products"`
	ShippingAddress    ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	ShippingRate       string             `bson:"shippingRate,omitempty" json:"shippingRate,omitempty"`
	TotalAmount        float64            `bson:"totalAmount" json:"totalAmount"`
	PaymentSessionID   string             `bson:"paymentSessionId,omitempty" json:"paymentSessionId,omitempty"`
	Status             Status             `bson:"status" json:"status"`
	TrackingHistory    []TrackingEntry    `bson:"trackingHistory" json:"trackingHistory"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MonthlySales is one bucket of the dashboard sales chart.
type MonthlySales struct {
	Year  int     `bson:"year" json:"year"`
	Month int     `bson:"month" json:"month"`
	Sales float64 `bson:"sales" json:"sales"`
}

type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Order, error)

	// ADMIN-facing
	List(ctx context.Context, status Status, limit, offset int) ([]*Order, int, error)
	AppendTracking(ctx context.Context, id primitive.ObjectID, from Status, entry TrackingEntry) error

	// USER-facing
	ListByCustomer(ctx context.Context, customerExternalID string) ([]*Order, error)

	// Dashboard
	Count(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	SalesPerMonth(ctx context.Context, year int) ([]MonthlySales, error)
}
