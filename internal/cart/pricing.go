package cart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
)

// PricedLine is the minimum a line needs for pricing.
type PricedLine struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the priced breakdown of a cart.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
}

// MarshalJSON renders every amount with two fixed decimals.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal       string `json:"subtotal"`
		DeliveryCharge string `json:"delivery_charge"`
		TaxAmount      string `json:"tax_amount"`
		Discount       string `json:"discount"`
		Total          string `json:"total"`
	}{
		Subtotal:       money.Format(t.Subtotal),
		DeliveryCharge: money.Format(t.DeliveryCharge),
		TaxAmount:      money.Format(t.TaxAmount),
		Discount:       money.Format(t.Discount),
		Total:          money.Format(t.Total),
	})
}

// PromoTable maps upper-cased promo codes to flat discounts.
type PromoTable map[string]decimal.Decimal

// Lookup returns the discount for code, or zero for blank and unknown codes.
func (p PromoTable) Lookup(code string) decimal.Decimal {
	key := strings.ToUpper(strings.TrimSpace(code))
	if key == "" {
		return money.Zero
	}
	if amount, ok := p[key]; ok {
		return amount
	}
	return money.Zero
}

// Pricer computes cart totals: flat delivery, a tax rate on the subtotal and
// a promo discount from the table.
type Pricer struct {
	deliveryCharge decimal.Decimal
	taxRate        decimal.Decimal
	promos         PromoTable
}

// NewPricer builds a Pricer from the pricing config.
func NewPricer(cfg config.PricingConfig) (*Pricer, error) {
	delivery, err := money.Parse(cfg.DeliveryCharge)
	if err != nil {
		return nil, fmt.Errorf("delivery charge: %w", err)
	}
	if delivery.IsNegative() {
		return nil, fmt.Errorf("delivery charge cannot be negative")
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRate))
	if err != nil {
		return nil, fmt.Errorf("tax rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be between 0 and 1")
	}

	promos := PromoTable{}
	for code, raw := range cfg.PromoCodes {
		amount, err := money.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("promo %s: %w", code, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("promo %s: discount cannot be negative", code)
		}
		promos[strings.ToUpper(strings.TrimSpace(code))] = amount
	}
	return &Pricer{deliveryCharge: delivery, taxRate: rate, promos: promos}, nil
}

// DefaultPricer uses the storefront's standing rates.
func DefaultPricer() *Pricer {
	return &Pricer{
		deliveryCharge: money.MustParse("30"),
		taxRate:        decimal.RequireFromString("0.05"),
		promos:         PromoTable{"SAVE50": money.MustParse("50")},
	}
}

// ComputeTotals prices lines. The flat delivery charge applies even to an
// empty cart. Unknown promo codes price as no discount.
func (p *Pricer) ComputeTotals(lines []PricedLine, promoCode string) Totals {
	subtotal := money.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(money.Line(line.Price, line.Quantity))
	}
	subtotal = money.Round2(subtotal)

	tax := money.Round2(subtotal.Mul(p.taxRate))
	discount := money.Round2(p.promos.Lookup(promoCode))
	total := money.ClampZero(money.Round2(subtotal.Add(p.deliveryCharge).Add(tax).Sub(discount)))

	return Totals{
		Subtotal:       subtotal,
		DeliveryCharge: money.Round2(p.deliveryCharge),
		TaxAmount:      tax,
		Discount:       discount,
		Total:          total,
	}
}

// PromoDiscount exposes the table lookup for display.
func (p *Pricer) PromoDiscount(code string) decimal.Decimal {
	return p.promos.Lookup(code)
}

// PricedLines adapts stored cart lines for pricing.
func PricedLines(lines []models.CartLine) []PricedLine {
	out := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, PricedLine{Price: l.Price, Quantity: l.Quantity})
	}
	return out
}
