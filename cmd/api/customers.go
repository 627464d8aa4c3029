package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/customers"
	"storefront/internal/domain/orders"
	"storefront/internal/params"
)

type CustomerListResponse struct {
	Customers  []*customers.Customer `json:"customers"`
	Pagination params.Pagination     `json:"pagination"`
}

type CustomerDetail struct {
	*customers.Customer
	OrderDocs []*orders.Order `json:"orderDocs"`
}

// listCustomersHandler godoc
//
//	@Summary		List customers
//	@Description	Search matches name or email, case-insensitive.
//	@Tags			admin-customers
//	@Produce		json
//	@Param			q		query		string	false	"Search name or email"
//	@Param			page	query		int		false	"Page number"		default(1)
//	@Param			limit	query		int		false	"Items per page"	default(15)
//	@Success		200		{object}	CustomerListResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/customers [get]
func (app *application) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := app.store.Customers.List(ctx, q, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, CustomerListResponse{Customers: list, Pagination: p})
}

func (app *application) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "customerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := app.store.Customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, customers.ErrCustomerNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	list, err := app.store.Orders.ListByCustomer(ctx, c.ExternalID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, CustomerDetail{Customer: c, OrderDocs: list})
}
