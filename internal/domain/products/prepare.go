package products

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/helpers"
	"storefront/internal/pricing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidProduct = errors.New("invalid product")

// Prepare runs the write pipeline every create and update goes through before
// anything is persisted: validate, then derive the slug and the converted
// prices, then stamp timestamps. Conversion is skipped while no currency
// rates are configured.
func Prepare(p *Product, now time.Time) error {
	if err := validate(p); err != nil {
		return err
	}

	if p.Slug == "" {
		p.Slug = helpers.UniqueSlug(p.Title)
	}
	derivePricing(p)

	normalize(p)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

func validate(p *Product) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidProduct)
	}
	if p.Slug != "" && !helpers.IsValidSlug(p.Slug) {
		return fmt.Errorf("%w: invalid slug %q", ErrInvalidProduct, p.Slug)
	}
	return validatePricing(p)
}

// PreparePricing validates and derives only the money fields of p. The
// pricing preview uses it so that it always agrees with Prepare.
func PreparePricing(p *Product) error {
	if err := validatePricing(p); err != nil {
		return err
	}
	derivePricing(p)
	return nil
}

func validatePricing(p *Product) error {
	if !p.InputCurrency.Valid() {
		return fmt.Errorf("%w: inputCurrency must be CNY or USD", ErrInvalidProduct)
	}
	if p.Price.Authoritative(p.InputCurrency) <= 0 {
		return fmt.Errorf("%w: price.%s must be greater than 0", ErrInvalidProduct, strings.ToLower(string(p.InputCurrency)))
	}
	if p.Expense.Authoritative(p.InputCurrency) < 0 {
		return fmt.Errorf("%w: expense must not be negative", ErrInvalidProduct)
	}
	if r := p.CurrencyRates; r != nil && (r.USDToBDT <= 0 || r.CNYToBDT <= 0) {
		return fmt.Errorf("%w: currency rates must be greater than 0", ErrInvalidProduct)
	}
	return pricing.ValidateTiers(p.QuantityPricing.Ranges)
}

func derivePricing(p *Product) {
	convert(p)
	pricing.SortTiers(p.QuantityPricing.Ranges)
}

func convert(p *Product) {
	if p.CurrencyRates == nil {
		return
	}
	rates := *p.CurrencyRates
	p.Price = pricing.Convert(p.InputCurrency, p.Price, rates)
	p.Expense = pricing.Convert(p.InputCurrency, p.Expense, rates)
	for i := range p.QuantityPricing.Ranges {
		t := &p.QuantityPricing.Ranges[i]
		t.Price = pricing.Convert(p.InputCurrency, t.Price, rates)
	}
}

// normalize replaces nil slices so documents always carry empty arrays, which
// keeps $addToSet and $pull working on them.
func normalize(p *Product) {
	if p.Media == nil {
		p.Media = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Categories == nil {
		p.Categories = []primitive.ObjectID{}
	}
	if p.Subcategories == nil {
		p.Subcategories = []primitive.ObjectID{}
	}
	if p.Collections == nil {
		p.Collections = []primitive.ObjectID{}
	}
	if p.QuantityPricing.Ranges == nil {
		p.QuantityPricing.Ranges = []pricing.Tier{}
	}
}
