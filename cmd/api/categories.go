package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/products"
	"storefront/internal/helpers"
	"storefront/internal/params"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateCategoryPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image" validate:"omitempty,url"`
}

type UpdateCategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

// CategoryDetail is composed explicitly from three reads: the category, its
// subcategories and its products.
type CategoryDetail struct {
	*categories.Category
	SubcategoryDocs []*categories.Subcategory `json:"subcategoryDocs"`
	ProductDocs     []*products.Product       `json:"productDocs"`
}

type CategoryListResponse struct {
	Categories []*categories.Category `json:"categories"`
	Pagination params.Pagination      `json:"pagination"`
}

func parseIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	return db.ParseObjectID(chi.URLParam(r, name))
}

// createCategoryHandler godoc
//
//	@Summary		Create category
//	@Tags			admin-categories
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCategoryPayload	true	"Category payload"
//	@Success		201		{object}	categories.Category
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	slug := helpers.Slugify(payload.Name)
	if slug == "" {
		app.badRequestResponse(w, r, errInvalidRequest("name must contain letters or digits"))
		return
	}
	exists, err := app.store.Categories.SlugExists(ctx, slug, primitive.NilObjectID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if exists {
		app.conflictResponse(w, r, categories.ErrDuplicateSlug)
		return
	}

	c := &categories.Category{
		Name:        payload.Name,
		Slug:        slug,
		Description: payload.Description,
		Image:       payload.Image,
	}
	if err := app.store.Categories.Create(ctx, c); err != nil {
		if errors.Is(err, categories.ErrDuplicateSlug) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusCreated, c)
}

// listCategoriesHandler godoc
//
//	@Summary		List categories
//	@Tags			categories
//	@Produce		json
//	@Param			page	query		int	false	"Page number"		default(1)
//	@Param			limit	query		int	false	"Items per page"	default(15)
//	@Success		200		{object}	CategoryListResponse
//	@Router			/store/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())

	list, total, err := app.store.Categories.List(ctx, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, CategoryListResponse{Categories: list, Pagination: p})
}

func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := app.store.Categories.GetByID(ctx, id)
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	app.writeCategoryDetail(ctx, w, r, c)
}

// getStoreCategoryHandler godoc
//
//	@Summary		Get category by slug
//	@Description	Category with its subcategories and products.
//	@Tags			categories
//	@Produce		json
//	@Param			slug	path		string	true	"Category slug"
//	@Success		200		{object}	CategoryDetail
//	@Failure		404		{object}	error
//	@Router			/store/categories/{slug} [get]
func (app *application) getStoreCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := app.store.Categories.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	app.writeCategoryDetail(ctx, w, r, c)
}

func (app *application) writeCategoryDetail(ctx context.Context, w http.ResponseWriter, r *http.Request, c *categories.Category) {
	subs, err := app.store.Subcategories.ListByCategory(ctx, c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	prods, err := app.store.Products.ListByIDs(ctx, c.Products)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, CategoryDetail{
		Category:        c,
		SubcategoryDocs: subs,
		ProductDocs:     prods,
	})
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := app.store.Categories.GetByID(ctx, id)
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	// The slug is fixed at creation so storefront links survive a rename.
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			app.badRequestResponse(w, r, errInvalidRequest("name must not be empty"))
			return
		}
		c.Name = name
	}
	if payload.Description != nil {
		c.Description = *payload.Description
	}
	if payload.Image != nil {
		c.Image = *payload.Image
	}

	if err := app.store.Categories.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, categories.ErrDuplicateSlug):
			app.conflictResponse(w, r, err)
		case errors.Is(err, categories.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, c)
}

// deleteCategoryHandler godoc
//
//	@Summary		Delete category
//	@Description	Removes the category, every subcategory under it, and its id from every product, atomically.
//	@Tags			admin-categories
//	@Produce		json
//	@Param			categoryID	path		string	true	"Category ID"
//	@Success		200			{object}	categories.DeleteResult
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := app.store.CategoryCascade.Delete(ctx, id)
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	app.logger.Infow("category deleted",
		"category", id.Hex(),
		"productsUpdated", res.ProductsUpdated,
		"subcategoriesDeleted", res.SubcategoriesDeleted,
	)
	_ = app.jsonResponse(w, http.StatusOK, res)
}

func (app *application) categoryLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, categories.ErrCategoryNotFound), errors.Is(err, categories.ErrSubcategoryNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
