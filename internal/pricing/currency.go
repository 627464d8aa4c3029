// Package pricing holds the product money rules: deriving the full
// CNY/USD/BDT triple from the currency an editor actually typed in, and
// validating quantity based price tiers.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CNY Currency = "CNY"
	USD Currency = "USD"
)

// crossRate is the fixed approximation applied between CNY and USD, in both
// directions.
var crossRate = decimal.NewFromInt(7)

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unsupported input currency %q", s)
	}
	return c, nil
}

func (c Currency) Valid() bool {
	return c == CNY || c == USD
}

// CurrencyValue is one amount expressed in every currency the store reports in.
type CurrencyValue struct {
	CNY float64 `bson:"cny" json:"cny"`
	USD float64 `bson:"usd" json:"usd"`
	BDT float64 `bson:"bdt" json:"bdt"`
}

// Authoritative returns the amount held in the given input currency.
func (v CurrencyValue) Authoritative(c Currency) float64 {
	switch c {
	case USD:
		return v.USD
	case CNY:
		return v.CNY
	}
	return 0
}

type Rates struct {
	USDToBDT float64 `bson:"usdToBdt" json:"usdToBdt" validate:"gt=0"`
	CNYToBDT float64 `bson:"cnyToBdt" json:"cnyToBdt" validate:"gt=0"`
}

// Convert fills in the currencies derived from the authoritative one.
// BDT is always recomputed from the authoritative amount; the other foreign
// currency is only derived when the caller left it empty.
func Convert(input Currency, v CurrencyValue, rates Rates) CurrencyValue {
	out := v
	switch input {
	case USD:
		out.BDT = mulRound(v.USD, rates.USDToBDT)
		if v.CNY == 0 {
			out.CNY = crossRound(v.USD)
		}
	case CNY:
		out.BDT = mulRound(v.CNY, rates.CNYToBDT)
		if v.USD == 0 {
			out.USD = crossRound(v.CNY)
		}
	}
	return out
}

// Round2 rounds half away from zero to two decimal places.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func mulRound(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()
}

func crossRound(amount float64) float64 {
	return decimal.NewFromFloat(amount).Div(crossRate).Round(2).InexactFloat64()
}
