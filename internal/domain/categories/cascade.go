package categories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TxRunner runs fn inside one multi-document transaction. fn must perform all
// of its reads and writes through the context it is handed.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductUnlinker removes a category, and the given subcategories, from the
// membership sets of every product that references them.
type ProductUnlinker interface {
	UnlinkCategory(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error)
}

type categoryRemover interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type subcategoryRemover interface {
	ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]*Subcategory, error)
	DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type DeleteResult struct {
	Category             *Category `json:"category"`
	ProductsUpdated      int64     `json:"productsUpdated"`
	SubcategoriesDeleted int64     `json:"subcategoriesDeleted"`
}

type CascadeDeleter struct {
	tx            TxRunner
	categories    categoryRemover
	subcategories subcategoryRemover
	products      ProductUnlinker
}

func NewCascadeDeleter(tx TxRunner, cats categoryRemover, subs subcategoryRemover, products ProductUnlinker) *CascadeDeleter {
	return &CascadeDeleter{
		tx:            tx,
		categories:    cats,
		subcategories: subs,
		products:      products,
	}
}

// Delete detaches the category from its products, drops its subcategories and
// deletes it, all inside one transaction. A missing category is reported
// before any transaction is started. If the category disappears between the
// lookup and the commit (a concurrent delete won), the transaction aborts with
// ErrCategoryNotFound.
func (d *CascadeDeleter) Delete(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	existing, err := d.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var res DeleteResult
	err = d.tx.WithTx(ctx, func(ctx context.Context) error {
		// the runner may retry fn on transient errors
		res = DeleteResult{Category: existing}

		subs, err := d.subcategories.ListByCategory(ctx, id)
		if err != nil {
			return err
		}
		subIDs := make([]primitive.ObjectID, 0, len(subs))
		for _, s := range subs {
			subIDs = append(subIDs, s.ID)
		}

		res.ProductsUpdated, err = d.products.UnlinkCategory(ctx, id, subIDs)
		if err != nil {
			return fmt.Errorf("unlink products: %w", err)
		}

		res.SubcategoriesDeleted, err = d.subcategories.DeleteByCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("delete subcategories: %w", err)
		}

		return d.categories.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
