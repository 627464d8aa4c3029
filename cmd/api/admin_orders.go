package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/orders"
	"storefront/internal/params"
)

// AdminOrderListResponse is the payload inside the standard envelope { "data": ... }.
type AdminOrderListResponse struct {
	Orders     []*orders.Order   `json:"orders"`
	Pagination params.Pagination `json:"pagination"`
	Status     string            `json:"status"` // applied filter (echoed back)
}

// AdminUpdateOrderStatusRequest is PATCH body.
type AdminUpdateOrderStatusRequest struct {
	Status   string `json:"status" example:"shipped"`
	Location string `json:"location,omitempty" example:"Dhaka sorting hub"`
}

// adminListOrdersHandler godoc
//
//	@Summary		List orders (admin)
//	@Description	List all orders, newest first. Supports optional status filter and pagination.
//	@Tags			admin-orders
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(pending,confirmed,shipped,in-transit,out-for-delivery,delivered,canceled)
//	@Param			page	query		int		false	"Page number (default: 1)"
//	@Param			limit	query		int		false	"Items per page (default: 15, max: 50)"
//	@Success		200		{object}	envelope{data=AdminOrderListResponse}
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/admin/orders [get]
//	@Security		ApiKeyAuth
func (app *application) adminListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	p := params.ParsePagination(r.URL.Query())

	var status orders.Status
	if raw != "" {
		s, err := orders.ParseStatus(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		status = s
	}

	list, total, err := app.store.Orders.List(ctx, status, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, AdminOrderListResponse{
		Orders:     list,
		Pagination: p,
		Status:     string(status),
	})
}

// adminGetOrderHandler godoc
//
//	@Summary		Get order detail (admin)
//	@Tags			admin-orders
//	@Produce		json
//	@Param			orderID	path		string	true	"Order ID"
//	@Success		200		{object}	envelope{data=orders.Order}
//	@Failure		400		{object}	error	"Bad Request: invalid orderID"
//	@Failure		404		{object}	error	"Not Found: order not found"
//	@Router			/admin/orders/{orderID} [get]
//	@Security		ApiKeyAuth
func (app *application) adminGetOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "orderID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	o, err := app.store.Orders.GetByID(ctx, id)
	if err != nil {
		app.orderError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, o)
}

// adminUpdateOrderStatusHandler godoc
//
//	@Summary		Update order status (admin)
//	@Description	Appends a tracking entry and moves the order to the new status. Delivered and canceled orders are final.
//	@Tags			admin-orders
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		string							true	"Order ID"
//	@Param			body	body		AdminUpdateOrderStatusRequest	true	"New status and optional location"
//	@Success		200		{object}	envelope{data=orders.Order}
//	@Failure		400		{object}	error	"Bad Request: missing or unknown status"
//	@Failure		404		{object}	error	"Not Found"
//	@Failure		409		{object}	error	"Conflict: transition not allowed"
//	@Router			/admin/orders/{orderID}/status [patch]
//	@Security		ApiKeyAuth
func (app *application) adminUpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "orderID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req AdminUpdateOrderStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	target, err := orders.ParseStatus(req.Status)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := orders.UpdateStatus(ctx, app.store.Orders, id, target, req.Location, time.Now().UTC())
	if err != nil {
		app.orderError(w, r, err)
		return
	}

	last := o.TrackingHistory[len(o.TrackingHistory)-1]
	app.logger.Infow("order status updated", "orderId", o.ID.Hex(), "status", o.Status, "location", last.Location)
	app.notifyStatusChanged(o, last)

	_ = app.jsonResponse(w, http.StatusOK, o)
}

func (app *application) orderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, orders.ErrInvalidTransition), errors.Is(err, orders.ErrStaleOrder):
		app.conflictResponse(w, r, err)
	case errors.Is(err, orders.ErrStatusRequired), errors.Is(err, orders.ErrInvalidStatus):
		app.badRequestResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
