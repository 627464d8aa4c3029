package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

const eventCheckoutCompleted = "checkout.session.completed"

// StripeAdapter creates Checkout sessions and reads completed ones back from
// signed webhook deliveries.
type StripeAdapter struct {
	webhookSecret    string
	allowedCountries []string
	shippingRates    []string

	// listLineItems is swapped in tests; the default calls the Stripe API.
	listLineItems func(ctx context.Context, sessionID string) ([]PurchasedItem, error)
}

func NewStripeAdapter(secretKey, webhookSecret string, allowedCountries, shippingRates []string) *StripeAdapter {
	stripe.Key = secretKey
	s := &StripeAdapter{
		webhookSecret:    webhookSecret,
		allowedCountries: allowedCountries,
		shippingRates:    shippingRates,
	}
	s.listLineItems = fetchLineItems
	return s
}

func (s *StripeAdapter) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("stripe checkout: cart is empty")
	}

	params := s.sessionParams(req)
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeAdapter) sessionParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Title),
			Metadata: map[string]string{
				"productId": item.ProductID,
				"color":     item.Color,
				"size":      item.Size,
			},
		}
		if item.Image != "" {
			product.Images = []*string{stripe.String(item.Image)}
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount:  stripe.Int64(toCents(item.UnitAmount)),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:             stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:        lineItems,
		SuccessURL:       stripe.String(req.SuccessURL),
		CancelURL:        stripe.String(req.CancelURL),
		CustomerCreation: stripe.String("always"),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if len(s.allowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(s.allowedCountries),
		}
	}
	for _, rate := range s.shippingRates {
		params.ShippingOptions = append(params.ShippingOptions, &stripe.CheckoutSessionShippingOptionParams{
			ShippingRate: stripe.String(rate),
		})
	}
	params.AddMetadata("customerId", req.CustomerID)
	return params
}

// completedSession is the subset of the checkout.session object we read.
// Decoding it ourselves keeps us independent of which API version the
// endpoint is pinned to.
type completedSession struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`

	CustomerDetails *struct {
		Name    string         `json:"name"`
		Email   string         `json:"email"`
		Address *stripeAddress `json:"address"`
	} `json:"customer_details"`

	ShippingDetails *struct {
		Name    string         `json:"name"`
		Address *stripeAddress `json:"address"`
	} `json:"shipping_details"`

	CollectedInformation *struct {
		ShippingDetails *struct {
			Address *stripeAddress `json:"address"`
		} `json:"shipping_details"`
	} `json:"collected_information"`

	ShippingCost *struct {
		ShippingRate string `json:"shipping_rate"`
	} `json:"shipping_cost"`
}

type stripeAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a *stripeAddress) toAddress() Address {
	if a == nil {
		return Address{}
	}
	return Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (s *StripeAdapter) ParseCompletedCheckout(ctx context.Context, payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if string(event.Type) != eventCheckoutCompleted {
		return nil, ErrIgnoredEvent
	}

	out, err := decodeCompletedSession(event.Data.Raw)
	if err != nil {
		return nil, err
	}
	out.EventID = event.ID

	items, err := s.listLineItems(ctx, out.SessionID)
	if err != nil {
		return nil, fmt.Errorf("stripe line items: %w", err)
	}
	out.Items = items
	return out, nil
}

func decodeCompletedSession(raw json.RawMessage) (*CompletedCheckout, error) {
	var cs completedSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", ErrInvalidPayload, err)
	}
	if cs.ID == "" {
		return nil, fmt.Errorf("%w: checkout session has no id", ErrInvalidPayload)
	}

	out := &CompletedCheckout{
		SessionID:   cs.ID,
		CustomerID:  cs.Metadata["customerId"],
		AmountTotal: fromCents(cs.AmountTotal),
	}
	if cs.CustomerDetails != nil {
		out.Name = cs.CustomerDetails.Name
		out.Email = cs.CustomerDetails.Email
		out.Shipping = cs.CustomerDetails.Address.toAddress()
	}
	switch {
	case cs.ShippingDetails != nil && cs.ShippingDetails.Address != nil:
		out.Shipping = cs.ShippingDetails.Address.toAddress()
	case cs.CollectedInformation != nil && cs.CollectedInformation.ShippingDetails != nil &&
		cs.CollectedInformation.ShippingDetails.Address != nil:
		out.Shipping = cs.CollectedInformation.ShippingDetails.Address.toAddress()
	}
	if cs.ShippingCost != nil {
		out.ShippingRate = cs.ShippingCost.ShippingRate
	}
	if out.CustomerID == "" {
		return nil, fmt.Errorf("%w: checkout session has no customerId metadata", ErrInvalidPayload)
	}
	return out, nil
}

func fetchLineItems(ctx context.Context, sessionID string) ([]PurchasedItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var items []PurchasedItem
	iter := session.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := PurchasedItem{
			Title:    li.Description,
			Quantity: li.Quantity,
		}
		if li.Price != nil {
			item.UnitAmount = fromCents(li.Price.UnitAmount)
			if p := li.Price.Product; p != nil {
				item.ProductID = p.Metadata["productId"]
				item.Color = p.Metadata["color"]
				item.Size = p.Metadata["size"]
			}
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
