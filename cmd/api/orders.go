package main

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/orders"
	"storefront/internal/events"
	"storefront/internal/mailer"

	"github.com/go-chi/chi/v5"
)

// listCustomerOrdersHandler godoc
//
//	@Summary		List a customer's orders
//	@Description	Returns the caller's own orders, newest first.
//	@Tags			orders
//	@Produce		json
//	@Param			customerID	path		string	true	"External customer ID"
//	@Success		200			{object}	envelope{data=[]orders.Order}
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Router			/orders/customers/{customerID} [get]
//	@Security		ApiKeyAuth
func (app *application) listCustomerOrdersHandler(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	caller := getIdentityFromContext(r)
	if caller == nil || caller.ID != customerID {
		app.forbiddenResponse(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Orders.ListByCustomer(ctx, customerID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, list)
}

func (app *application) publish(ctx context.Context, eventType, correlationID string, payload any) {
	env, err := events.NewEnvelope(eventType, correlationID, payload)
	if err != nil {
		app.logger.Errorw("build event", "type", eventType, "error", err)
		return
	}
	if err := app.events.Publish(ctx, env); err != nil {
		app.logger.Errorw("publish event", "type", eventType, "orderId", correlationID, "error", err)
	}
}

// notifyStatusChanged publishes the transition and mails the customer. Both run
// after the response path so a slow broker or SMTP host never fails the update.
func (app *application) notifyStatusChanged(o *orders.Order, entry orders.TrackingEntry) {
	var from orders.Status
	if n := len(o.TrackingHistory); n > 1 {
		from = o.TrackingHistory[n-2].Status
	}

	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		app.publish(ctx, events.OrderStatusChanged, o.ID.Hex(), events.OrderStatusChangedPayload{
			OrderID:  o.ID.Hex(),
			From:     string(from),
			To:       string(entry.Status),
			Location: entry.Location,
			At:       entry.Timestamp,
		})

		c, err := app.store.Customers.GetByExternalID(ctx, o.CustomerExternalID)
		if err != nil {
			app.logger.Warnw("status mail skipped", "orderId", o.ID.Hex(), "error", err)
			return
		}
		vars := struct {
			Name        string
			OrderNumber string
			Status      string
			Location    string
		}{
			Name:        c.Name,
			OrderNumber: o.OrderNumber,
			Status:      string(entry.Status),
			Location:    entry.Location,
		}
		if _, err := app.mailer.Send(mailer.OrderStatusTemplate, c.Name, c.Email, vars); err != nil {
			app.logger.Errorw("error sending status mail", "orderId", o.ID.Hex(), "error", err)
		}
	})
}
