package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain/products"
	"storefront/internal/params"
	"storefront/internal/pricing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductPayload is the body for both create (POST) and full update (PUT).
type ProductPayload struct {
	Title           string                   `json:"title" validate:"required,max=200"`
	Slug            string                   `json:"slug" validate:"omitempty,slug"`
	Description     string                   `json:"description" validate:"max=5000"`
	Media           []string                 `json:"media" validate:"dive,url"`
	Categories      []string                 `json:"categories" validate:"dive,objectid"`
	Subcategories   []string                 `json:"subcategories" validate:"dive,objectid"`
	Collections     []string                 `json:"collections" validate:"dive,objectid"`
	Tags            []string                 `json:"tags"`
	Sizes           []string                 `json:"sizes"`
	Colors          []string                 `json:"colors"`
	Price           pricing.CurrencyValue    `json:"price"`
	Expense         pricing.CurrencyValue    `json:"expense"`
	InputCurrency   string                   `json:"inputCurrency" validate:"required"`
	CurrencyRates   *pricing.Rates           `json:"currencyRates"`
	QuantityPricing products.QuantityPricing `json:"quantityPricing"`
}

type ProductListResponse struct {
	Products   []*products.Product `json:"products"`
	Pagination params.Pagination   `json:"pagination"`
}

// toProduct copies the payload onto p, keeping identity fields.
func (payload ProductPayload) toProduct(p *products.Product) error {
	currency, err := pricing.ParseCurrency(payload.InputCurrency)
	if err != nil {
		return err
	}
	cats, err := db.ParseObjectIDs(payload.Categories)
	if err != nil {
		return err
	}
	subs, err := db.ParseObjectIDs(payload.Subcategories)
	if err != nil {
		return err
	}
	cols, err := db.ParseObjectIDs(payload.Collections)
	if err != nil {
		return err
	}

	p.Title = payload.Title
	if payload.Slug != "" {
		p.Slug = payload.Slug
	}
	p.Description = payload.Description
	p.Media = payload.Media
	p.Categories = cats
	p.Subcategories = subs
	p.Collections = cols
	p.Tags = payload.Tags
	p.Sizes = payload.Sizes
	p.Colors = payload.Colors
	p.Price = payload.Price
	p.Expense = payload.Expense
	p.InputCurrency = currency
	p.CurrencyRates = payload.CurrencyRates
	p.QuantityPricing = payload.QuantityPricing
	return nil
}

// productWriteError maps pipeline and persistence errors onto responses.
func (app *application) productWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var tierErr *pricing.ValidationError
	switch {
	case errors.As(err, &tierErr), errors.Is(err, products.ErrInvalidProduct), errors.Is(err, db.ErrInvalidID):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, products.ErrDuplicateSlug):
		app.conflictResponse(w, r, err)
	case errors.Is(err, products.ErrProductNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// linkProduct adds the product id to every category, subcategory and
// collection it references.
func (app *application) linkProduct(ctx context.Context, p *products.Product) error {
	if err := app.store.Categories.AddProduct(ctx, p.Categories, p.ID); err != nil {
		return err
	}
	if err := app.store.Subcategories.AddProduct(ctx, p.Subcategories, p.ID); err != nil {
		return err
	}
	return app.store.Collections.AddProduct(ctx, p.Collections, p.ID)
}

func (app *application) unlinkProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := app.store.Categories.RemoveProduct(ctx, id); err != nil {
		return err
	}
	if err := app.store.Subcategories.RemoveProduct(ctx, id); err != nil {
		return err
	}
	return app.store.Collections.RemoveProduct(ctx, id)
}

// createProductHandler godoc
//
//	@Summary		Create product
//	@Description	Validates the payload (including quantity tier overlap), derives slug and converted prices, then persists.
//	@Tags			admin-products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ProductPayload	true	"Product payload"
//	@Success		201		{object}	products.Product
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := &products.Product{}
	if err := payload.toProduct(p); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := products.Prepare(p, time.Now().UTC()); err != nil {
		app.productWriteError(w, r, err)
		return
	}
	p.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	err := app.store.WithTx(ctx, func(ctx context.Context) error {
		if err := app.store.Products.Create(ctx, p); err != nil {
			return err
		}
		return app.linkProduct(ctx, p)
	})
	if err != nil {
		app.productWriteError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusCreated, p)
}

// updateProductHandler godoc
//
//	@Summary		Replace product
//	@Description	Runs the same validate and derive pipeline as create before anything is written.
//	@Tags			admin-products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		string			true	"Product ID"
//	@Param			payload		body		ProductPayload	true	"Product payload"
//	@Success		200			{object}	products.Product
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	existing, err := app.store.Products.GetByID(ctx, id)
	if err != nil {
		app.productWriteError(w, r, err)
		return
	}

	p := &products.Product{ID: existing.ID, Slug: existing.Slug, CreatedAt: existing.CreatedAt}
	if err := payload.toProduct(p); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := products.Prepare(p, time.Now().UTC()); err != nil {
		app.productWriteError(w, r, err)
		return
	}

	err = app.store.WithTx(ctx, func(ctx context.Context) error {
		if err := app.store.Products.Update(ctx, p); err != nil {
			return err
		}
		if err := app.unlinkProduct(ctx, p.ID); err != nil {
			return err
		}
		return app.linkProduct(ctx, p)
	})
	if err != nil {
		app.productWriteError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, p)
}

func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	err = app.store.WithTx(ctx, func(ctx context.Context) error {
		if err := app.store.Products.Delete(ctx, id); err != nil {
			return err
		}
		return app.unlinkProduct(ctx, id)
	})
	if err != nil {
		app.productWriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := app.store.Products.GetByID(ctx, id)
	if err != nil {
		app.productWriteError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, p)
}

// getStoreProductHandler godoc
//
//	@Summary		Get product by slug
//	@Tags			products
//	@Produce		json
//	@Param			slug	path		string	true	"Product slug"
//	@Success		200		{object}	products.Product
//	@Failure		404		{object}	error
//	@Router			/store/products/{slug} [get]
func (app *application) getStoreProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := app.store.Products.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		app.productWriteError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, p)
}

func parseProductFilter(r *http.Request) (products.Filter, error) {
	q := r.URL.Query()
	f := products.Filter{Query: strings.TrimSpace(q.Get("q"))}

	for key, dst := range map[string]*primitive.ObjectID{
		"category":    &f.Category,
		"subcategory": &f.Subcategory,
		"collection":  &f.Collection,
	} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			id, err := db.ParseObjectID(v)
			if err != nil {
				return f, err
			}
			*dst = id
		}
	}
	return f, nil
}

// listProductsHandler godoc
//
//	@Summary		List and search products
//	@Tags			products
//	@Produce		json
//	@Param			q			query		string	false	"Search title, tags and description"
//	@Param			category	query		string	false	"Category ID"
//	@Param			subcategory	query		string	false	"Subcategory ID"
//	@Param			collection	query		string	false	"Collection ID"
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			limit		query		int		false	"Items per page"	default(15)
//	@Success		200			{object}	ProductListResponse
//	@Failure		400			{object}	error
//	@Router			/store/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parseProductFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := app.store.Products.List(ctx, f, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, ProductListResponse{Products: list, Pagination: p})
}

func (app *application) listStoreProductsHandler(w http.ResponseWriter, r *http.Request) {
	app.listProductsHandler(w, r)
}
