package main

import (
	"errors"
	"net/http"

	"storefront/internal/domain/products"
	"storefront/internal/pricing"
)

// PricingPreviewPayload mirrors the money fields of ProductPayload. Omitting
// currencyRates previews the unconverted values, as a product save would.
type PricingPreviewPayload struct {
	InputCurrency   string                `json:"inputCurrency" validate:"required"`
	Price           pricing.CurrencyValue `json:"price"`
	Expense         pricing.CurrencyValue `json:"expense"`
	CurrencyRates   *pricing.Rates        `json:"currencyRates,omitempty"`
	QuantityPricing []pricing.Tier        `json:"quantityPricing"`
}

type PricingPreviewResponse struct {
	Price           pricing.CurrencyValue `json:"price"`
	Expense         pricing.CurrencyValue `json:"expense"`
	QuantityPricing []pricing.Tier        `json:"quantityPricing"`
}

// pricingPreviewHandler godoc
//
//	@Summary		Preview converted prices
//	@Description	Runs tier validation and currency conversion for the product form without saving anything.
//	@Tags			admin-products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PricingPreviewPayload	true	"Prices in the input currency"
//	@Success		200		{object}	PricingPreviewResponse
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/pricing/preview [post]
func (app *application) pricingPreviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload PricingPreviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	currency, err := pricing.ParseCurrency(payload.InputCurrency)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := &products.Product{
		InputCurrency: currency,
		Price:         payload.Price,
		Expense:       payload.Expense,
		CurrencyRates: payload.CurrencyRates,
	}
	p.QuantityPricing.Ranges = append([]pricing.Tier{}, payload.QuantityPricing...)

	if err := products.PreparePricing(p); err != nil {
		var verr *pricing.ValidationError
		if errors.As(err, &verr) || errors.Is(err, products.ErrInvalidProduct) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, PricingPreviewResponse{
		Price:           p.Price,
		Expense:         p.Expense,
		QuantityPricing: p.QuantityPricing.Ranges,
	})
}
