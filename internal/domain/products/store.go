package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"storefront/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSlug   = errors.New("product slug already exists")
)

type Repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) *Repository {
	return &Repository{coll: database.Collection(db.ProductsCollection)}
}

// Create persists an already prepared product.
func (r *Repository) Create(ctx context.Context, p *Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*Product, error) {
	var p Product
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Product, error) {
	list := []*Product{}
	if len(ids) == 0 {
		return list, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return list, nil
}

func (r *Repository) List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	filter := buildFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	list := []*Product{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}
	return list, int(total), nil
}

func buildFilter(f Filter) bson.M {
	filter := bson.M{}
	if !f.Category.IsZero() {
		filter["categories"] = f.Category
	}
	if !f.Subcategory.IsZero() {
		filter["subcategories"] = f.Subcategory
	}
	if !f.Collection.IsZero() {
		filter["collections"] = f.Collection
	}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"tags": re},
			bson.M{"description": re},
		}
	}
	return filter
}

// Update replaces the stored document with an already prepared product.
func (r *Repository) Update(ctx context.Context, p *Product) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// ------------------------------------
// Reference cleanup
// ------------------------------------

func (r *Repository) UnlinkCategory(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error) {
	filter, update := unlinkCategoryQuery(categoryID, subcategoryIDs)
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("unlink category from products: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *Repository) UnlinkSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) (int64, error) {
	filter, update := pullQuery("subcategories", subcategoryID)
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("unlink subcategory from products: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *Repository) UnlinkCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error) {
	filter, update := pullQuery("collections", collectionID)
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("unlink collection from products: %w", err)
	}
	return res.ModifiedCount, nil
}

// unlinkCategoryQuery matches products holding the category or any of its
// subcategories and pulls all of them in one update.
func unlinkCategoryQuery(categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (bson.M, bson.M) {
	or := bson.A{bson.M{"categories": categoryID}}
	pull := bson.M{"categories": categoryID}
	if len(subcategoryIDs) > 0 {
		or = append(or, bson.M{"subcategories": bson.M{"$in": subcategoryIDs}})
		pull["subcategories"] = bson.M{"$in": subcategoryIDs}
	}
	return bson.M{"$or": or}, bson.M{"$pull": pull}
}

func pullQuery(field string, id primitive.ObjectID) (bson.M, bson.M) {
	return bson.M{field: id}, bson.M{"$pull": bson.M{field: id}}
}
