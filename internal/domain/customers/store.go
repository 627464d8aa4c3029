package customers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) *Repository {
	return &Repository{coll: database.Collection(db.CustomersCollection)}
}

func (r *Repository) Upsert(ctx context.Context, c *Customer) (*Customer, error) {
	if c.ExternalID == "" {
		return nil, errors.New("upsert customer: external id is required")
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out Customer
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"externalId": c.ExternalID}, upsertUpdate(c, time.Now().UTC()), opts).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return &out, nil
}

// upsertUpdate refreshes the contact details on every checkout. The external
// id, the order list and createdAt are only written when the customer is new.
func upsertUpdate(c *Customer, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"name":      c.Name,
			"email":     c.Email,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"externalId": c.ExternalID,
			"orders":     []primitive.ObjectID{},
			"createdAt":  now,
		},
	}
}

func searchFilter(query string) bson.M {
	filter := bson.M{}
	if query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}
	return filter
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Customer, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*Customer, error) {
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*Customer, error) {
	var c Customer
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, query string, limit, offset int) ([]*Customer, int, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	filter := searchFilter(query)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	list := []*Customer{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("decode customers: %w", err)
	}
	return list, int(total), nil
}

func (r *Repository) AddOrder(ctx context.Context, externalID string, orderID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"externalId": externalID},
		bson.M{
			"$addToSet": bson.M{"orders": orderID},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("add customer order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}
