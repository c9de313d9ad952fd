package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
)

func requireAmount(t *testing.T, want string, got interface{ StringFixed(int32) string }) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2))
}

func TestComputeTotalsStandardCart(t *testing.T) {
	t.Parallel()

	lines := []PricedLine{
		{Price: money.MustParse("850"), Quantity: 1},
		{Price: money.MustParse("450"), Quantity: 2},
	}
	totals := DefaultPricer().ComputeTotals(lines, "")

	requireAmount(t, "1750.00", totals.Subtotal)
	requireAmount(t, "30.00", totals.DeliveryCharge)
	requireAmount(t, "87.50", totals.TaxAmount)
	requireAmount(t, "0.00", totals.Discount)
	requireAmount(t, "1867.50", totals.Total)
}

func TestComputeTotalsPromoIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	lines := []PricedLine{
		{Price: money.MustParse("850"), Quantity: 1},
		{Price: money.MustParse("450"), Quantity: 2},
	}
	for _, code := range []string{"SAVE50", "save50", " Save50 "} {
		totals := DefaultPricer().ComputeTotals(lines, code)
		requireAmount(t, "50.00", totals.Discount)
		requireAmount(t, "1817.50", totals.Total)
	}
}

func TestComputeTotalsUnknownPromoIsNoDiscount(t *testing.T) {
	t.Parallel()

	lines := []PricedLine{{Price: money.MustParse("50"), Quantity: 1}}
	totals := DefaultPricer().ComputeTotals(lines, "BOGUS")
	requireAmount(t, "0.00", totals.Discount)
	requireAmount(t, "82.50", totals.Total)
}

func TestComputeTotalsEmptyCartStillChargesDelivery(t *testing.T) {
	t.Parallel()

	totals := DefaultPricer().ComputeTotals(nil, "")
	requireAmount(t, "0.00", totals.Subtotal)
	requireAmount(t, "30.00", totals.DeliveryCharge)
	requireAmount(t, "0.00", totals.TaxAmount)
	requireAmount(t, "0.00", totals.Discount)
	requireAmount(t, "30.00", totals.Total)

	discounted := DefaultPricer().ComputeTotals(nil, "SAVE50")
	requireAmount(t, "50.00", discounted.Discount)
	requireAmount(t, "0.00", discounted.Total)
}

func TestComputeTotalsClampsAtZero(t *testing.T) {
	t.Parallel()

	pricer, err := NewPricer(config.PricingConfig{
		DeliveryCharge: "0",
		TaxRate:        "0",
		PromoCodes:     map[string]string{"big": "500"},
	})
	require.NoError(t, err)

	totals := pricer.ComputeTotals([]PricedLine{{Price: money.MustParse("10"), Quantity: 1}}, "BIG")
	requireAmount(t, "500.00", totals.Discount)
	requireAmount(t, "0.00", totals.Total)
}

func TestComputeTotalsRoundsTax(t *testing.T) {
	t.Parallel()

	totals := DefaultPricer().ComputeTotals([]PricedLine{{Price: money.MustParse("10.10"), Quantity: 1}}, "")
	requireAmount(t, "0.51", totals.TaxAmount)
	requireAmount(t, "40.61", totals.Total)
}

func TestNewPricerRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := NewPricer(config.PricingConfig{DeliveryCharge: "abc", TaxRate: "0.05"})
	require.Error(t, err)
	_, err = NewPricer(config.PricingConfig{DeliveryCharge: "30", TaxRate: "1.5"})
	require.Error(t, err)
	_, err = NewPricer(config.PricingConfig{DeliveryCharge: "30", TaxRate: "0.05", PromoCodes: map[string]string{"X": "-1"}})
	require.Error(t, err)
}

func TestTotalsRenderFixedDecimals(t *testing.T) {
	t.Parallel()

	lines := []PricedLine{
		{Price: money.MustParse("850"), Quantity: 1},
		{Price: money.MustParse("450"), Quantity: 2},
	}
	raw, err := json.Marshal(DefaultPricer().ComputeTotals(lines, ""))
	require.NoError(t, err)
	require.JSONEq(t, `{"subtotal":"1750.00","delivery_charge":"30.00","tax_amount":"87.50","discount":"0.00","total":"1867.50"}`, string(raw))

	var decoded Totals
	require.NoError(t, json.Unmarshal(raw, &decoded))
	requireAmount(t, "1867.50", decoded.Total)
}
