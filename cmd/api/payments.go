package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain/customers"
	"storefront/internal/domain/orders"
	"storefront/internal/events"
	"storefront/internal/idempotency"
	"storefront/internal/mailer"
	"storefront/internal/payments"
	"storefront/internal/pricing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const paymentProvider = "stripe"

// Stripe signs payloads well under this size.
const maxWebhookBytes = 65536

// errInvalidCart marks cart lines that cannot be priced from the catalog.
var errInvalidCart = errors.New("invalid cart")

type CheckoutItemPayload struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
	Color     string `json:"color" validate:"max=50"`
	Size      string `json:"size" validate:"max=50"`
}

type CheckoutPayload struct {
	Email     string                `json:"email" validate:"omitempty,email"`
	CartItems []CheckoutItemPayload `json:"cartItems" validate:"required,min=1,max=100,dive"`
}

// createCheckoutHandler godoc
//
//	@Summary		Start a checkout
//	@Description	Prices the cart server-side (quantity tiers apply) and opens a hosted payment session.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CheckoutPayload	true	"Cart"
//	@Success		200		{object}	payments.CheckoutSession
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/checkout [post]
func (app *application) createCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	caller := getIdentityFromContext(r)
	if caller == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
		return
	}

	var payload CheckoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	items, err := app.priceCart(ctx, payload.CartItems)
	switch {
	case errors.Is(err, errInvalidCart), errors.Is(err, db.ErrInvalidID):
		app.badRequestResponse(w, r, err)
		return
	case err != nil:
		app.internalServerError(w, r, err)
		return
	}

	base := strings.TrimRight(app.config.frontendURL, "/")
	sess, err := app.payments.CreateCheckoutSession(ctx, paymentProvider, payments.CheckoutRequest{
		CustomerID: caller.ID,
		Email:      payload.Email,
		Items:      items,
		SuccessURL: base + "/payment_success",
		CancelURL:  base + "/cart",
	})
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("failed to create checkout session: %w", err))
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, sess)
}

// priceCart loads every product in the cart and prices each line from the
// stored USD values. Client supplied prices are never trusted.
func (app *application) priceCart(ctx context.Context, lines []CheckoutItemPayload) ([]payments.CartItem, error) {
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		id, err := db.ParseObjectID(l.ProductID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	found, err := app.store.Products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[string]int, len(found))
	for i, p := range found {
		byID[p.ID.Hex()] = i
	}

	items := make([]payments.CartItem, 0, len(lines))
	for _, l := range lines {
		i, ok := byID[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s not found", errInvalidCart, l.ProductID)
		}
		p := found[i]

		unit := pricing.UnitPrice(p.QuantityPricing.Ranges, l.Quantity, p.Price).USD
		if unit <= 0 {
			return nil, fmt.Errorf("%w: product %s has no USD price", errInvalidCart, l.ProductID)
		}

		item := payments.CartItem{
			ProductID:  l.ProductID,
			Title:      p.Title,
			Color:      l.Color,
			Size:       l.Size,
			Quantity:   int64(l.Quantity),
			UnitAmount: unit,
		}
		if len(p.Media) > 0 {
			item.Image = p.Media[0]
		}
		items = append(items, item)
	}
	return items, nil
}

// stripeWebhookHandler godoc
//
//	@Summary		Stripe webhook
//	@Description	Verifies the signature and turns a completed checkout into a pending order. Redeliveries of the same event are acknowledged without creating a second order.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Failure		500	{object}	error
//	@Router			/webhooks/stripe [post]
func (app *application) stripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("read webhook body: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	completed, err := app.payments.ParseCompletedCheckout(ctx, paymentProvider, body, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, payments.ErrIgnoredEvent):
		_ = app.jsonResponse(w, http.StatusOK, map[string]any{"received": true})
		return
	case errors.Is(err, payments.ErrInvalidSignature), errors.Is(err, payments.ErrInvalidPayload):
		app.badRequestResponse(w, r, err)
		return
	case err != nil:
		app.internalServerError(w, r, fmt.Errorf("parse webhook: %w", err))
		return
	}

	claimed, err := app.dedup.Claim(ctx, paymentProvider, completed.EventID, idempotency.TTLDedup)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !claimed {
		app.logger.Infow("duplicate webhook delivery", "eventId", completed.EventID, "sessionId", completed.SessionID)
		_ = app.jsonResponse(w, http.StatusOK, map[string]any{"received": true, "duplicate": true})
		return
	}

	o, c, err := app.recordCompletedCheckout(ctx, completed)
	if err != nil {
		if rerr := app.dedup.Release(context.Background(), paymentProvider, completed.EventID); rerr != nil {
			app.logger.Errorw("release webhook claim", "eventId", completed.EventID, "error", rerr)
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("order created", "orderId", o.ID.Hex(), "orderNumber", o.OrderNumber, "customer", o.CustomerExternalID)
	app.notifyOrderCreated(o, c)

	_ = app.jsonResponse(w, http.StatusOK, map[string]any{"received": true, "orderNumber": o.OrderNumber})
}

// recordCompletedCheckout upserts the customer, stores the order and links it
// to the customer in one transaction.
func (app *application) recordCompletedCheckout(ctx context.Context, cc *payments.CompletedCheckout) (*orders.Order, *customers.Customer, error) {
	if cc.CustomerID == "" {
		return nil, nil, errors.New("checkout session carries no customerId metadata")
	}

	items := make([]orders.OrderItem, 0, len(cc.Items))
	for _, it := range cc.Items {
		pid, err := db.ParseObjectID(it.ProductID)
		if err != nil {
			app.logger.Warnw("line item without product reference", "sessionId", cc.SessionID, "title", it.Title)
		}
		items = append(items, orders.OrderItem{
			Product:   pid,
			Title:     it.Title,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  int(it.Quantity),
			UnitPrice: it.UnitAmount,
		})
	}

	addr := orders.ShippingAddress{
		Street:     strings.TrimSpace(cc.Shipping.Line1 + " " + cc.Shipping.Line2),
		City:       cc.Shipping.City,
		State:      cc.Shipping.State,
		PostalCode: cc.Shipping.PostalCode,
		Country:    cc.Shipping.Country,
	}

	o := orders.New(app.orderNumbers.Generate(cc.CustomerID), cc.CustomerID, items, addr, cc.AmountTotal, time.Now().UTC())
	o.PaymentSessionID = cc.SessionID
	o.ShippingRate = cc.ShippingRate

	var customer *customers.Customer
	err := app.store.WithTx(ctx, func(ctx context.Context) error {
		c, err := app.store.Customers.Upsert(ctx, &customers.Customer{
			ExternalID: cc.CustomerID,
			Name:       cc.Name,
			Email:      cc.Email,
		})
		if err != nil {
			return err
		}
		customer = c

		if err := app.store.Orders.Create(ctx, o); err != nil {
			return err
		}
		return app.store.Customers.AddOrder(ctx, cc.CustomerID, o.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return o, customer, nil
}

func (app *application) notifyOrderCreated(o *orders.Order, c *customers.Customer) {
	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		lines := make([]events.OrderItem, 0, len(o.Products))
		for _, it := range o.Products {
			lines = append(lines, events.OrderItem{ProductID: it.Product.Hex(), Quantity: it.Quantity, UnitPrice: it.UnitPrice})
		}
		app.publish(ctx, events.OrderCreated, o.ID.Hex(), events.OrderCreatedPayload{
			OrderID:            o.ID.Hex(),
			OrderNumber:        o.OrderNumber,
			CustomerExternalID: o.CustomerExternalID,
			Items:              lines,
			TotalAmount:        o.TotalAmount,
		})

		if c == nil || c.Email == "" {
			return
		}
		vars := struct {
			Name        string
			OrderNumber string
			Items       []orders.OrderItem
			Total       float64
		}{
			Name:        c.Name,
			OrderNumber: o.OrderNumber,
			Items:       o.Products,
			Total:       o.TotalAmount,
		}
		if _, err := app.mailer.Send(mailer.OrderConfirmationTemplate, c.Name, c.Email, vars); err != nil {
			app.logger.Errorw("error sending order confirmation", "orderId", o.ID.Hex(), "error", err)
		}
	})
}
