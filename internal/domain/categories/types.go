package categories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Slug          string               `bson:"slug" json:"slug"`
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	Image         string               `bson:"image,omitempty" json:"image,omitempty"`
	Subcategories []primitive.ObjectID `bson:"subcategories" json:"subcategories"`
	Products      []primitive.ObjectID `bson:"products" json:"products"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Subcategory struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Slug        string               `bson:"slug" json:"slug"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Category    primitive.ObjectID   `bson:"category" json:"category"`
	Products    []primitive.ObjectID `bson:"products" json:"products"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Store interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context, limit, offset int) ([]*Category, int, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error)

	// membership sets
	AddSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error
	RemoveSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error
	AddProduct(ctx context.Context, categoryIDs []primitive.ObjectID, productID primitive.ObjectID) error
	RemoveProduct(ctx context.Context, productID primitive.ObjectID) error
}

type SubcategoryStore interface {
	Create(ctx context.Context, s *Subcategory) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Subcategory, error)
	ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]*Subcategory, error)
	Update(ctx context.Context, s *Subcategory) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	AddProduct(ctx context.Context, subcategoryIDs []primitive.ObjectID, productID primitive.ObjectID) error
	RemoveProduct(ctx context.Context, productID primitive.ObjectID) error
}
