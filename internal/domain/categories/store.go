package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrDuplicateSlug       = errors.New("slug already exists")
)

type Repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) *Repository {
	return &Repository{coll: database.Collection(db.CategoriesCollection)}
}

func (r *Repository) Create(ctx context.Context, c *Category) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Subcategories == nil {
		c.Subcategories = []primitive.ObjectID{}
	}
	if c.Products == nil {
		c.Products = []primitive.ObjectID{}
	}
	c.CreatedAt, c.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*Category, error) {
	var c Category
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Category, int, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	list := []*Category{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("decode categories: %w", err)
	}
	return list, int(total), nil
}

func (r *Repository) Update(ctx context.Context, c *Category) error {
	c.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"image":       c.Image,
		"updatedAt":   c.UpdatedAt,
	}}
	res, err := r.coll.UpdateByID(ctx, c.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update category: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete removes the category document only; use CascadeDeleter to also
// detach products and drop subcategories.
func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return n > 0, nil
}

// ------------------------------------
// Membership sets
// ------------------------------------

func (r *Repository) AddSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, categoryID, bson.M{
		"$addToSet": bson.M{"subcategories": subcategoryID},
	})
	if err != nil {
		return fmt.Errorf("add subcategory: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) RemoveSubcategory(ctx context.Context, categoryID, subcategoryID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, categoryID, bson.M{
		"$pull": bson.M{"subcategories": subcategoryID},
	})
	if err != nil {
		return fmt.Errorf("remove subcategory: %w", err)
	}
	return nil
}

func (r *Repository) AddProduct(ctx context.Context, categoryIDs []primitive.ObjectID, productID primitive.ObjectID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": categoryIDs}},
		bson.M{"$addToSet": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("add product to categories: %w", err)
	}
	return nil
}

func (r *Repository) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"products": productID},
		bson.M{"$pull": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("remove product from categories: %w", err)
	}
	return nil
}
