package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRates = Rates{USDToBDT: 110.25, CNYToBDT: 16.5}

func TestConvert_CNYAuthoritative(t *testing.T) {
	got := Convert(CNY, CurrencyValue{CNY: 100}, testRates)

	assert.Equal(t, 100.0, got.CNY)
	assert.Equal(t, 1650.0, got.BDT)
	assert.Equal(t, 14.29, got.USD)
}

func TestConvert_USDAuthoritative(t *testing.T) {
	got := Convert(USD, CurrencyValue{USD: 10}, testRates)

	assert.Equal(t, 10.0, got.USD)
	assert.Equal(t, 1102.5, got.BDT)
	assert.Equal(t, 1.43, got.CNY)
}

func TestConvert_KeepsSuppliedCrossCurrency(t *testing.T) {
	got := Convert(USD, CurrencyValue{USD: 10, CNY: 72.5}, testRates)

	assert.Equal(t, 72.5, got.CNY)
	assert.Equal(t, 1102.5, got.BDT)
}

func TestConvert_RecomputesBDT(t *testing.T) {
	got := Convert(CNY, CurrencyValue{CNY: 20, BDT: 999}, testRates)
	assert.Equal(t, 330.0, got.BDT)
}

func TestConvert_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		input Currency
		value CurrencyValue
	}{
		{"cny", CNY, CurrencyValue{CNY: 12.34}},
		{"usd", USD, CurrencyValue{USD: 99.99}},
		{"usd with cny", USD, CurrencyValue{USD: 3, CNY: 21}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Convert(tt.input, tt.value, testRates)
			twice := Convert(tt.input, once, testRates)
			assert.Equal(t, once, twice)
		})
	}
}

func TestConvert_UnknownCurrencyIsNoop(t *testing.T) {
	in := CurrencyValue{CNY: 1, USD: 2, BDT: 3}
	assert.Equal(t, in, Convert(Currency("EUR"), in, testRates))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 1.0, Round2(0.999))
	assert.Equal(t, -1.24, Round2(-1.235))
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("EUR")
	assert.Error(t, err)
}
