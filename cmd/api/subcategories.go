package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/categories"
	"storefront/internal/domain/products"
	"storefront/internal/helpers"
)

type CreateSubcategoryPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image" validate:"omitempty,url"`
}

type UpdateSubcategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

type SubcategoryDetail struct {
	*categories.Subcategory
	ProductDocs []*products.Product `json:"productDocs"`
}

// createSubcategoryHandler godoc
//
//	@Summary		Create subcategory
//	@Description	Creates a subcategory and links it into its parent category in one transaction.
//	@Tags			admin-categories
//	@Accept			json
//	@Produce		json
//	@Param			categoryID	path		string						true	"Parent category ID"
//	@Param			payload		body		CreateSubcategoryPayload	true	"Subcategory payload"
//	@Success		201			{object}	categories.Subcategory
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/categories/{categoryID}/subcategories [post]
func (app *application) createSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateSubcategoryPayload
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

	if _, err := app.store.Categories.GetByID(ctx, categoryID); err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	// Names repeat across parents, so the slug carries a suffix.
	sub := &categories.Subcategory{
		Name:        payload.Name,
		Slug:        helpers.UniqueSlug(payload.Name),
		Description: payload.Description,
		Image:       payload.Image,
		Category:    categoryID,
	}

	err = app.store.WithTx(ctx, func(ctx context.Context) error {
		if err := app.store.Subcategories.Create(ctx, sub); err != nil {
			return err
		}
		return app.store.Categories.AddSubcategory(ctx, categoryID, sub.ID)
	})
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusCreated, sub)
}

func (app *application) listSubcategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subs, err := app.store.Subcategories.ListByCategory(ctx, categoryID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, subs)
}

func (app *application) getSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "subcategoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sub, err := app.store.Subcategories.GetByID(ctx, id)
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}
	prods, err := app.store.Products.ListByIDs(ctx, sub.Products)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, SubcategoryDetail{Subcategory: sub, ProductDocs: prods})
}

func (app *application) updateSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "subcategoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateSubcategoryPayload
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

	sub, err := app.store.Subcategories.GetByID(ctx, id)
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			app.badRequestResponse(w, r, errInvalidRequest("name must not be empty"))
			return
		}
		sub.Name = name
	}
	if payload.Description != nil {
		sub.Description = *payload.Description
	}
	if payload.Image != nil {
		sub.Image = *payload.Image
	}

	if err := app.store.Subcategories.Update(ctx, sub); err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, sub)
}

// deleteSubcategoryHandler removes the subcategory, its id from the parent's
// set and from every product, in one transaction.
func (app *application) deleteSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "subcategoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	sub, err := app.store.Subcategories.GetByID(ctx, id)
	if err != nil {
		app.categoryLookupError(w, r, err)
		return
	}

	var unlinked int64
	err = app.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if unlinked, err = app.store.Products.UnlinkSubcategory(ctx, id); err != nil {
			return err
		}
		if err := app.store.Categories.RemoveSubcategory(ctx, sub.Category, id); err != nil {
			return err
		}
		return app.store.Subcategories.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, categories.ErrSubcategoryNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, map[string]any{
		"subcategory":     sub,
		"productsUpdated": unlinked,
	})
}
