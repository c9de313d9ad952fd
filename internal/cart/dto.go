package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
)

// CartLineDTO is a cart row as the cart screen renders it.
type CartLineDTO struct {
	ID        uuid.UUID         `json:"id"`
	ProductID uuid.UUID         `json:"product_id"`
	Name      string            `json:"name"`
	Type      enums.ProductType `json:"type"`
	Price     decimal.Decimal   `json:"price"`
	Image     string            `json:"image"`
	Quantity  int               `json:"quantity"`
	LineTotal decimal.Decimal   `json:"line_total"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// QuoteDTO pairs the cart lines with their priced totals.
type QuoteDTO struct {
	Lines        []CartLineDTO `json:"lines"`
	Totals       Totals        `json:"totals"`
	PromoApplied bool          `json:"promo_applied"`
}

func lineDTO(l models.CartLine) CartLineDTO {
	return CartLineDTO{
		ID:        l.ID,
		ProductID: l.ProductID,
		Name:      l.Name,
		Type:      l.Type,
		Price:     l.Price,
		Image:     l.Image,
		Quantity:  l.Quantity,
		LineTotal: money.Line(l.Price, l.Quantity),
		UpdatedAt: l.UpdatedAt,
	}
}

func lineDTOs(lines []models.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineDTO(l))
	}
	return out
}
