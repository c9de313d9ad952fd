package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Type           enums.ProductType `json:"type"`
	Weight         *decimal.Decimal  `json:"weight,omitempty"`
	Price          decimal.Decimal   `json:"price"`
	OriginalPrice  *decimal.Decimal  `json:"original_price,omitempty"`
	DeliveryCharge *decimal.Decimal  `json:"delivery_charge,omitempty"`
	Description    string            `json:"description"`
	Image          string            `json:"image"`
	InStock        bool              `json:"in_stock"`
	Quantity       *int              `json:"quantity,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name           string
	Type           enums.ProductType
	Weight         *decimal.Decimal
	Price          decimal.Decimal
	OriginalPrice  *decimal.Decimal
	DeliveryCharge *decimal.Decimal
	Description    string
	Image          string
	InStock        *bool
	Quantity       *int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name           *string
	Type           *enums.ProductType
	Weight         *decimal.Decimal
	Price          *decimal.Decimal
	OriginalPrice  *decimal.Decimal
	DeliveryCharge *decimal.Decimal
	Description    *string
	Image          *string
	InStock        *bool
	Quantity       *int
}

// StockInput toggles availability and optionally resets the tracked quantity.
type StockInput struct {
	InStock  bool
	Quantity *int
}

func toDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Type:           p.Type,
		Weight:         p.Weight,
		Price:          p.Price,
		OriginalPrice:  p.OriginalPrice,
		DeliveryCharge: p.DeliveryCharge,
		Description:    p.Description,
		Image:          p.Image,
		InStock:        p.InStock,
		Quantity:       p.Quantity,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out
}
