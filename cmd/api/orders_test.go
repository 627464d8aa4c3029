package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain/admindashboard"
	"storefront/internal/domain/customers"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"
	"storefront/internal/events"
	"storefront/internal/mailer"
	"storefront/internal/payments"
	"storefront/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedOrder(t *testing.T, env *testEnv, customerID string, status orders.Status, total float64) *orders.Order {
	t.Helper()
	ctx := context.Background()

	_, err := env.app.store.Customers.Upsert(ctx, &customers.Customer{ExternalID: customerID, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	o := orders.New("ORD-TEST-0001", customerID, nil, orders.ShippingAddress{City: "Dhaka", Country: "BD"}, total, time.Now().UTC())
	if status != orders.StatusPending {
		require.NoError(t, orders.Track(o, status, "", time.Now().UTC()))
	}
	require.NoError(t, env.app.store.Orders.Create(ctx, o))
	return o
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	o := seedOrder(t, env, "user_1", orders.StatusPending, 50)

	rr := env.admin(t, http.MethodPatch, "/v1/admin/orders/"+o.ID.Hex()+"/status", map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated orders.Order
	decodeData(t, rr, &updated)
	assert.Equal(t, orders.StatusShipped, updated.Status)
	require.Len(t, updated.TrackingHistory, 2)
	assert.Equal(t, orders.StatusPending, updated.TrackingHistory[0].Status)
	last := updated.TrackingHistory[1]
	assert.Equal(t, orders.StatusShipped, last.Status)
	assert.Equal(t, orders.DefaultLocation, last.Location)

	stored := env.db.orders[o.ID]
	assert.Equal(t, orders.StatusShipped, stored.Status)
	assert.Len(t, stored.TrackingHistory, 2)

	env.app.wg.Wait()
	require.Equal(t, []string{events.OrderStatusChanged}, env.publisher.types())
	var payload events.OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(env.publisher.events[0].Payload, &payload))
	assert.Equal(t, "pending", payload.From)
	assert.Equal(t, "shipped", payload.To)

	rr = env.admin(t, http.MethodPatch, "/v1/admin/orders/"+o.ID.Hex()+"/status", map[string]any{"status": "in-transit", "location": "Chittagong hub"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeData(t, rr, &updated)
	assert.Equal(t, "Chittagong hub", updated.TrackingHistory[2].Location)

	env.app.wg.Wait()
	assert.Equal(t, []string{events.OrderStatusChanged, events.OrderStatusChanged}, env.publisher.types())
	assert.Equal(t, []string{mailer.OrderStatusTemplate, mailer.OrderStatusTemplate}, env.mailer.templates())
}

func TestUpdateOrderStatusRejections(t *testing.T) {
	env := newTestEnv(t)
	pending := seedOrder(t, env, "user_1", orders.StatusPending, 50)
	delivered := seedOrder(t, env, "user_1", orders.StatusDelivered, 80)

	cases := []struct {
		name string
		id   string
		body any
		want int
	}{
		{"missing status", pending.ID.Hex(), map[string]any{}, http.StatusBadRequest},
		{"blank status", pending.ID.Hex(), map[string]any{"status": "  "}, http.StatusBadRequest},
		{"unknown status", pending.ID.Hex(), map[string]any{"status": "lost"}, http.StatusBadRequest},
		{"terminal order", delivered.ID.Hex(), map[string]any{"status": "canceled"}, http.StatusConflict},
		{"unknown order", primitive.NewObjectID().Hex(), map[string]any{"status": "shipped"}, http.StatusNotFound},
		{"bad id", "123", map[string]any{"status": "shipped"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.admin(t, http.MethodPatch, "/v1/admin/orders/"+tc.id+"/status", tc.body)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}

	assert.Len(t, env.db.orders[pending.ID].TrackingHistory, 1)
	assert.Equal(t, orders.StatusPending, env.db.orders[pending.ID].Status)
	assert.Len(t, env.db.orders[delivered.ID].TrackingHistory, 2)

	env.app.wg.Wait()
	assert.Empty(t, env.publisher.types())
}

func TestUpdateOrderStatusBackwardsConflicts(t *testing.T) {
	env := newTestEnv(t)
	o := seedOrder(t, env, "user_1", orders.StatusShipped, 50)

	rr := env.admin(t, http.MethodPatch, "/v1/admin/orders/"+o.ID.Hex()+"/status", map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.admin(t, http.MethodPatch, "/v1/admin/orders/"+o.ID.Hex()+"/status", map[string]any{"status": "canceled"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, orders.StatusCanceled, env.db.orders[o.ID].Status)
}

func TestAdminListOrders(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(t, env, "user_1", orders.StatusPending, 10)
	seedOrder(t, env, "user_2", orders.StatusShipped, 20)

	rr := env.admin(t, http.MethodGet, "/v1/admin/orders?status=shipped", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var out AdminOrderListResponse
	decodeData(t, rr, &out)
	require.Len(t, out.Orders, 1)
	assert.Equal(t, "user_2", out.Orders[0].CustomerExternalID)
	assert.Equal(t, "shipped", out.Status)

	rr = env.admin(t, http.MethodGet, "/v1/admin/orders?status=teleported", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListCustomerOrdersOnlyForSelf(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(t, env, "user_1", orders.StatusPending, 10)
	seedOrder(t, env, "user_2", orders.StatusPending, 20)

	rr := env.do(t, http.MethodGet, "/v1/orders/customers/user_1", nil, env.token(t, "user_1"))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []*orders.Order
	decodeData(t, rr, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "user_1", list[0].CustomerExternalID)

	rr = env.do(t, http.MethodGet, "/v1/orders/customers/user_2", nil, env.token(t, "user_1"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCustomerDetailIncludesOrders(t *testing.T) {
	env := newTestEnv(t)
	o := seedOrder(t, env, "user_1", orders.StatusPending, 10)
	c := env.db.customers["user_1"]

	rr := env.admin(t, http.MethodGet, "/v1/admin/customers/"+c.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var detail CustomerDetail
	decodeData(t, rr, &detail)
	assert.Equal(t, "ada@example.com", detail.Email)
	require.Len(t, detail.OrderDocs, 1)
	assert.Equal(t, o.ID, detail.OrderDocs[0].ID)

	rr = env.admin(t, http.MethodGet, "/v1/admin/customers?q=ADA", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list CustomerListResponse
	decodeData(t, rr, &list)
	assert.Len(t, list.Customers, 1)

	rr = env.admin(t, http.MethodGet, "/v1/admin/customers/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func seedTieredProduct(t *testing.T, env *testEnv) *products.Product {
	t.Helper()
	nine := 9
	p := &products.Product{
		ID:            primitive.NewObjectID(),
		Slug:          "linen-shirt-abc123",
		Title:         "Linen Shirt",
		Media:         []string{"https://res.cloudinary.com/demo/image/upload/v1/shirt.png"},
		InputCurrency: pricing.CNY,
		Price:         pricing.CurrencyValue{CNY: 100, USD: 14.29, BDT: 1650},
		QuantityPricing: products.QuantityPricing{Ranges: []pricing.Tier{
			{MinQuantity: 1, MaxQuantity: &nine, Price: pricing.CurrencyValue{CNY: 90, USD: 12.86, BDT: 1485}},
			{MinQuantity: 10, Price: pricing.CurrencyValue{CNY: 80, USD: 11.43, BDT: 1320}},
		}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, env.app.store.Products.Create(context.Background(), p))
	return p
}

func TestCheckoutPricesFromCatalog(t *testing.T) {
	env := newTestEnv(t)
	p := seedTieredProduct(t, env)

	body := map[string]any{
		"email": "ada@example.com",
		"cartItems": []map[string]any{
			{"productId": p.ID.Hex(), "quantity": 12, "color": "white", "size": "M"},
		},
	}
	rr := env.do(t, http.MethodPost, "/v1/checkout", body, env.token(t, "user_1"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var sess payments.CheckoutSession
	decodeData(t, rr, &sess)
	assert.Equal(t, "cs_test_1", sess.ID)

	require.Len(t, env.gateway.requests, 1)
	req := env.gateway.requests[0]
	assert.Equal(t, "user_1", req.CustomerID)
	assert.Equal(t, "https://shop.example.com/payment_success", req.SuccessURL)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 11.43, req.Items[0].UnitAmount)
	assert.EqualValues(t, 12, req.Items[0].Quantity)
	assert.Equal(t, p.Media[0], req.Items[0].Image)

	t.Run("unknown product", func(t *testing.T) {
		body := map[string]any{"cartItems": []map[string]any{{"productId": primitive.NewObjectID().Hex(), "quantity": 1}}}
		rr := env.do(t, http.MethodPost, "/v1/checkout", body, env.token(t, "user_1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/checkout", map[string]any{"cartItems": []any{}}, env.token(t, "user_1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	assert.Len(t, env.gateway.requests, 1)
}

func postWebhook(t *testing.T, env *testEnv, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

func TestStripeWebhookCreatesOrderOnce(t *testing.T) {
	env := newTestEnv(t)
	p := seedTieredProduct(t, env)

	env.gateway.completed = &payments.CompletedCheckout{
		EventID:      "evt_1",
		SessionID:    "cs_test_1",
		CustomerID:   "user_1",
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Shipping:     payments.Address{Line1: "12 Road", Line2: "Flat 3", City: "Dhaka", PostalCode: "1207", Country: "BD"},
		ShippingRate: "shr_standard",
		AmountTotal:  137.16,
		Items: []payments.PurchasedItem{
			{ProductID: p.ID.Hex(), Title: "Linen Shirt", Color: "white", Size: "M", Quantity: 12, UnitAmount: 11.43},
		},
	}

	rr := postWebhook(t, env, "t=1,v1=abc")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.Len(t, env.db.orders, 1)
	var o *orders.Order
	for _, v := range env.db.orders {
		o = v
	}
	assert.Regexp(t, `^ORD-[A-Z0-9]{4}-[A-Z0-9]{4}$`, o.OrderNumber)
	assert.Equal(t, orders.StatusPending, o.Status)
	require.Len(t, o.TrackingHistory, 1)
	assert.Equal(t, orders.DefaultLocation, o.TrackingHistory[0].Location)
	assert.Equal(t, "12 Road Flat 3", o.ShippingAddress.Street)
	assert.Equal(t, "cs_test_1", o.PaymentSessionID)
	require.Len(t, o.Products, 1)
	assert.Equal(t, p.ID, o.Products[0].Product)
	assert.Equal(t, 12, o.Products[0].Quantity)

	c := env.db.customers["user_1"]
	require.NotNil(t, c)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, []primitive.ObjectID{o.ID}, c.Orders)

	// redelivery of the same event
	rr = postWebhook(t, env, "t=1,v1=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"duplicate":true`)
	assert.Len(t, env.db.orders, 1)

	env.app.wg.Wait()
	assert.Equal(t, []string{events.OrderCreated}, env.publisher.types())
	assert.Equal(t, []string{mailer.OrderConfirmationTemplate}, env.mailer.templates())
}

func TestStripeWebhookRejections(t *testing.T) {
	env := newTestEnv(t)

	rr := postWebhook(t, env, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	env.gateway.parseErr = payments.ErrIgnoredEvent
	rr = postWebhook(t, env, "t=1,v1=abc")
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Empty(t, env.db.orders)
	assert.Empty(t, env.db.customers)
}

func TestStripeWebhookErrorStatuses(t *testing.T) {
	cases := []struct {
		name     string
		parseErr error
		want     int
	}{
		{"unreachable gateway", errors.New("stripe line items: dial tcp: connection refused"), http.StatusInternalServerError},
		{"malformed session", fmt.Errorf("%w: checkout session has no id", payments.ErrInvalidPayload), http.StatusBadRequest},
		{"bad signature", fmt.Errorf("%w: no signatures found", payments.ErrInvalidSignature), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.gateway.parseErr = tc.parseErr

			rr := postWebhook(t, env, "t=1,v1=abc")
			assert.Equal(t, tc.want, rr.Code)
			if tc.want == http.StatusInternalServerError {
				assert.NotContains(t, rr.Body.String(), "connection refused")
			}
			assert.Empty(t, env.db.orders)
		})
	}
}

// failingProducts fails catalog reads while keeping the rest of the store.
type failingProducts struct {
	products.Store
	err error
}

func (f failingProducts) ListByIDs(context.Context, []primitive.ObjectID) ([]*products.Product, error) {
	return nil, f.err
}

func TestCheckoutCatalogFailureIsServerError(t *testing.T) {
	env := newTestEnv(t)
	p := seedTieredProduct(t, env)
	env.app.store.Products = failingProducts{Store: env.app.store.Products, err: errors.New("server selection timeout")}

	body := map[string]any{"cartItems": []map[string]any{{"productId": p.ID.Hex(), "quantity": 1}}}
	rr := env.do(t, http.MethodPost, "/v1/checkout", body, env.token(t, "user_1"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "server selection timeout")
	assert.Empty(t, env.gateway.requests)
}

func TestCheckoutRejectsUnpricedProduct(t *testing.T) {
	env := newTestEnv(t)
	p := seedTieredProduct(t, env)
	env.db.mu.Lock()
	env.db.products[p.ID].Price.USD = 0
	env.db.products[p.ID].QuantityPricing.Ranges = nil
	env.db.mu.Unlock()

	body := map[string]any{"cartItems": []map[string]any{{"productId": p.ID.Hex(), "quantity": 1}}}
	rr := env.do(t, http.MethodPost, "/v1/checkout", body, env.token(t, "user_1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, env.gateway.requests)
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(t, env, "user_1", orders.StatusPending, 40)
	seedOrder(t, env, "user_2", orders.StatusShipped, 60)
	seedOrder(t, env, "user_2", orders.StatusCanceled, 500)
	seedTieredProduct(t, env)

	year := time.Now().UTC().Year()
	rr := env.admin(t, http.MethodGet, "/v1/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out admindashboard.Overview
	decodeData(t, rr, &out)
	assert.Equal(t, 100.0, out.TotalRevenue)
	assert.EqualValues(t, 3, out.TotalOrders)
	assert.EqualValues(t, 2, out.TotalCustomers)
	assert.EqualValues(t, 1, out.TotalProducts)
	assert.Equal(t, year, out.Year)
	require.Len(t, out.SalesPerMonth, 12)

	rr = env.admin(t, http.MethodGet, "/v1/admin/dashboard?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
