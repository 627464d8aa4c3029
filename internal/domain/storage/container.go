package storage

import (
	"context"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/domain/admindashboard"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/collections"
	"storefront/internal/domain/customers"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// TxRunner runs fn as one atomic unit of work.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Container struct {
	Tx            TxRunner
	database      *mongo.Database
	Categories    categories.Store
	Subcategories categories.SubcategoryStore
	Products      products.Store
	Collections   collections.Store
	Customers     customers.Store
	Orders        orders.Store
	Dashboard     admindashboard.Store

	// Ping checks the database is reachable; nil in tests.
	Ping func(ctx context.Context) error

	CategoryCascade *categories.CascadeDeleter
}

func NewContainer(client *mongo.Client, dbName string) *Container {
	database := client.Database(dbName)

	cats := categories.NewRepository(database)
	subs := categories.NewSubcategoryRepository(database)
	prods := products.NewRepository(database)
	custs := customers.NewRepository(database)
	ords := orders.NewRepository(database)

	c := &Container{
		Tx:            NewMongoTx(client),
		database:      database,
		Categories:    cats,
		Subcategories: subs,
		Products:      prods,
		Collections:   collections.NewRepository(database),
		Customers:     custs,
		Orders:        ords,
		Dashboard:     admindashboard.NewRepository(ords, custs, prods),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
	c.CategoryCascade = categories.NewCascadeDeleter(c.Tx, cats, subs, prods)
	return c
}

// WithTx runs fn inside a transaction. Repositories called with the ctx
// handed to fn take part in it.
func (c *Container) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.Tx == nil {
		return fmt.Errorf("storage container has no transaction runner (did you forget to set Tx?)")
	}
	return c.Tx.WithTx(ctx, fn)
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (c *Container) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexModels() {
		if _, err := c.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		db.CategoriesCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.SubcategoriesCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		db.ProductsCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "categories", Value: 1}}},
			{Keys: bson.D{{Key: "subcategories", Value: 1}}},
			{Keys: bson.D{{Key: "collections", Value: 1}}},
		},
		db.CollectionsCollection: {
			{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.CustomersCollection: {
			{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.OrdersCollection: {
			{Keys: bson.D{{Key: "customerExternalId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "paymentSessionId", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
	}
}
