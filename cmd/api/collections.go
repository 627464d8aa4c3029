package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/collections"
	"storefront/internal/domain/products"
	"storefront/internal/params"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateCollectionPayload struct {
	Title       string `json:"title" validate:"required,max=150"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image" validate:"omitempty,url"`
}

type UpdateCollectionPayload struct {
	Title       *string `json:"title" validate:"omitempty,max=150"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

type CollectionDetail struct {
	*collections.Collection
	ProductDocs []*products.Product `json:"productDocs"`
}

type CollectionListResponse struct {
	Collections []*collections.Collection `json:"collections"`
	Pagination  params.Pagination         `json:"pagination"`
}

func (app *application) collectionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, collections.ErrCollectionNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, collections.ErrDuplicateTitle):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// createCollectionHandler godoc
//
//	@Summary		Create collection
//	@Tags			admin-collections
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCollectionPayload	true	"Collection payload"
//	@Success		201		{object}	collections.Collection
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/collections [post]
func (app *application) createCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCollectionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Title = strings.TrimSpace(payload.Title)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	exists, err := app.store.Collections.TitleExists(ctx, payload.Title, primitive.NilObjectID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if exists {
		app.conflictResponse(w, r, collections.ErrDuplicateTitle)
		return
	}

	c := &collections.Collection{
		Title:       payload.Title,
		Description: payload.Description,
		Image:       payload.Image,
	}
	if err := app.store.Collections.Create(ctx, c); err != nil {
		app.collectionError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusCreated, c)
}

// listCollectionsHandler godoc
//
//	@Summary		List collections
//	@Tags			collections
//	@Produce		json
//	@Param			page	query		int	false	"Page number"		default(1)
//	@Param			limit	query		int	false	"Items per page"	default(15)
//	@Success		200		{object}	CollectionListResponse
//	@Router			/store/collections [get]
func (app *application) listCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := app.store.Collections.List(ctx, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, CollectionListResponse{Collections: list, Pagination: p})
}

func (app *application) getCollectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "collectionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := app.store.Collections.GetByID(ctx, id)
	if err != nil {
		app.collectionError(w, r, err)
		return
	}

	docs, err := app.store.Products.ListByIDs(ctx, c.Products)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, CollectionDetail{Collection: c, ProductDocs: docs})
}

func (app *application) updateCollectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "collectionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCollectionPayload
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

	c, err := app.store.Collections.GetByID(ctx, id)
	if err != nil {
		app.collectionError(w, r, err)
		return
	}

	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		if title == "" {
			app.badRequestResponse(w, r, errInvalidRequest("title must not be empty"))
			return
		}
		if title != c.Title {
			exists, err := app.store.Collections.TitleExists(ctx, title, c.ID)
			if err != nil {
				app.internalServerError(w, r, err)
				return
			}
			if exists {
				app.conflictResponse(w, r, collections.ErrDuplicateTitle)
				return
			}
		}
		c.Title = title
	}
	if payload.Description != nil {
		c.Description = *payload.Description
	}
	if payload.Image != nil {
		c.Image = *payload.Image
	}

	if err := app.store.Collections.Update(ctx, c); err != nil {
		app.collectionError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, c)
}

// deleteCollectionHandler removes the collection first and then pulls its id
// from every product. A failure in the second step leaves dangling ids on
// products, which readers skip since ListByIDs ignores unknown ids.
func (app *application) deleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "collectionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := app.store.Collections.Delete(ctx, id); err != nil {
		app.collectionError(w, r, err)
		return
	}

	n, err := app.store.Products.UnlinkCollection(ctx, id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.logger.Infow("collection deleted", "collectionId", id.Hex(), "productsUnlinked", n)

	w.WriteHeader(http.StatusNoContent)
}
