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

type SubcategoryRepository struct {
	coll *mongo.Collection
}

func NewSubcategoryRepository(database *mongo.Database) *SubcategoryRepository {
	return &SubcategoryRepository{coll: database.Collection(db.SubcategoriesCollection)}
}

func (r *SubcategoryRepository) Create(ctx context.Context, s *Subcategory) error {
	now := time.Now().UTC()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.Products == nil {
		s.Products = []primitive.ObjectID{}
	}
	s.CreatedAt, s.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create subcategory: %w", err)
	}
	return nil
}

func (r *SubcategoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Subcategory, error) {
	var s Subcategory
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("get subcategory: %w", err)
	}
	return &s, nil
}

func (r *SubcategoryRepository) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]*Subcategory, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"category": categoryID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	list := []*Subcategory{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode subcategories: %w", err)
	}
	return list, nil
}

func (r *SubcategoryRepository) Update(ctx context.Context, s *Subcategory) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, s.ID, bson.M{"$set": bson.M{
		"name":        s.Name,
		"slug":        s.Slug,
		"description": s.Description,
		"image":       s.Image,
		"updatedAt":   s.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update subcategory: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSubcategoryNotFound
	}
	return nil
}

func (r *SubcategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrSubcategoryNotFound
	}
	return nil
}

func (r *SubcategoryRepository) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"category": categoryID})
	if err != nil {
		return 0, fmt.Errorf("delete subcategories of category: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *SubcategoryRepository) AddProduct(ctx context.Context, subcategoryIDs []primitive.ObjectID, productID primitive.ObjectID) error {
	if len(subcategoryIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": subcategoryIDs}},
		bson.M{"$addToSet": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("add product to subcategories: %w", err)
	}
	return nil
}

func (r *SubcategoryRepository) RemoveProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"products": productID},
		bson.M{"$pull": bson.M{"products": productID}},
	)
	if err != nil {
		return fmt.Errorf("remove product from subcategories: %w", err)
	}
	return nil
}
