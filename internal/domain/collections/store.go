package collections

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

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDuplicateTitle     = errors.New("collection title already exists")
)

type Repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) *Repository {
	return &Repository{coll: database.Collection(db.CollectionsCollection)}
}

func (r *Repository) Create(ctx context.Context, c *Collection) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Products == nil {
		c.Products = []primitive.ObjectID{}
	}
	c.CreatedAt, c.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Collection, error) {
	var c Collection
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Collection, int, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}
	list := []*Collection{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("decode collections: %w", err)
	}
	return list, int(total), nil
}

func (r *Repository) Update(ctx context.Context, c *Collection) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, c.ID, bson.M{"$set": bson.M{
		"title":       c.Title,
		"description": c.Description,
		"image":       c.Image,
		"updatedAt":   c.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("update collection: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (r *Repository) TitleExists(ctx context.Context, title string, excludeID primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, titleFilter(title, excludeID), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check collection title: %w", err)
	}
	return n > 0, nil
}

func (r *Repository) AddProduct(ctx context.Context, collectionIDs []primitive.ObjectID, productID primitive.ObjectID) error {
	if len(collectionIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": collectionIDs}},
		bson.M{"$addToSet": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("add product to collections: %w", err)
	}
	return nil
}

func (r *Repository) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	filter, update := removeProductQuery(productID)
	if _, err := r.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("remove product from collections: %w", err)
	}
	return nil
}

// titleFilter matches title exactly, ignoring case, on any collection other
// than excludeID.
func titleFilter(title string, excludeID primitive.ObjectID) bson.M {
	filter := bson.M{"title": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(title) + "$", Options: "i"}}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return filter
}

func removeProductQuery(productID primitive.ObjectID) (bson.M, bson.M) {
	return bson.M{"products": productID}, bson.M{"$pull": bson.M{"products": productID}}
}
