package customers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer mirrors a shopper known to the external identity provider.
type Customer struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ExternalID string               `bson:"externalId" json:"externalId"`
	Name       string               `bson:"name" json:"name"`
	Email      string               `bson:"email" json:"email"`
	Orders     []primitive.ObjectID `bson:"orders" json:"orders"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Store interface {
	// Upsert creates the customer on first sight and refreshes name/email after.
	Upsert(ctx context.Context, c *Customer) (*Customer, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Customer, error)
	GetByExternalID(ctx context.Context, externalID string) (*Customer, error)
	List(ctx context.Context, query string, limit, offset int) ([]*Customer, int, error)
	AddOrder(ctx context.Context, externalID string, orderID primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}
