package collections

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is a hand-picked group of products, e.g. "Summer Sale".
type Collection struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Products    []primitive.ObjectID `bson:"products" json:"products"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Store interface {
	Create(ctx context.Context, c *Collection) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Collection, error)
	List(ctx context.Context, limit, offset int) ([]*Collection, int, error)
	Update(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	TitleExists(ctx context.Context, title string, excludeID primitive.ObjectID) (bool, error)

	AddProduct(ctx context.Context, collectionIDs []primitive.ObjectID, productID primitive.ObjectID) error
	RemoveProduct(ctx context.Context, productID primitive.ObjectID) error
}
