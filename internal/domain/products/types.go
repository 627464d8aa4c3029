package products

import (
	"context"
	"time"

	"storefront/internal/pricing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuantityPricing struct {
	Ranges []pricing.Tier `bson:"ranges" json:"ranges"`
}

type Product struct {
	ID              primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	Slug            string                `bson:"slug" json:"slug"`
	Title           string                `bson:"title" json:"title"`
	Description     string                `bson:"description,omitempty" json:"description,omitempty"`
	Media           []string              `bson:"media" json:"media"`
	Categories      []primitive.ObjectID  `bson:"categories" json:"categories"`
	Subcategories   []primitive.ObjectID  `bson:"subcategories" json:"subcategories"`
	Collections     []primitive.ObjectID  `bson:"collections" json:"collections"`
	Tags            []string              `bson:"tags" json:"tags"`
	Sizes           []string              `bson:"sizes" json:"sizes"`
	Colors          []string              `bson:"colors" json:"colors"`
	Price           pricing.CurrencyValue `bson:"price" json:"price"`
	Expense         pricing.CurrencyValue `bson:"expense" json:"expense"`
	InputCurrency   pricing.Currency      `bson:"inputCurrency" json:"inputCurrency"`
	CurrencyRates   *pricing.Rates        `bson:"currencyRates,omitempty" json:"currencyRates,omitempty"`
	QuantityPricing QuantityPricing       `bson:"quantityPricing" json:"quantityPricing"`
	CreatedAt       time.Time             `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time             `bson:"updatedAt" json:"updatedAt"`
}

// Filter narrows product listings. Zero values are ignored.
type Filter struct {
	Category    primitive.ObjectID
	Subcategory primitive.ObjectID
	Collection  primitive.ObjectID
	Query       string
}

type Store interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Product, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)

	UnlinkCategory(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error)
	UnlinkSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) (int64, error)
	UnlinkCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error)
}
