package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ErrInvalidID = errors.New("invalid id")

// Collection names shared by every repository.
const (
	CategoriesCollection    = "categories"
	SubcategoriesCollection = "subcategories"
	ProductsCollection      = "products"
	CollectionsCollection   = "collections"
	CustomersCollection     = "customers"
	OrdersCollection        = "orders"
)

// New sets up a MongoDB client with a bounded pool and verifies it with a ping.
// The returned client is the single connection handle for the process.
func New(uri string, maxPoolSize uint64, connectTimeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetServerSelectionTimeout(connectTimeout)

	// Applied to connecting and the initial ping; the pool fails to start if either exceeds it.
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, nil
}

// ParseObjectID converts a hex path parameter into an ObjectID.
func ParseObjectID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// ParseObjectIDs converts a list of hex ids, failing on the first bad one.
func ParseObjectIDs(in []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(in))
	for _, s := range in {
		id, err := ParseObjectID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
