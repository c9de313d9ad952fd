package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// Product is a catalog entry: cylinders, stoves and accessories.
type Product struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string            `gorm:"column:name;not null"`
	Type           enums.ProductType `gorm:"column:type;type:text;not null"`
	Weight         *decimal.Decimal  `gorm:"column:weight;type:numeric(8,2)"`
	Price          decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice  *decimal.Decimal  `gorm:"column:original_price;type:numeric(12,2)"`
	DeliveryCharge *decimal.Decimal  `gorm:"column:delivery_charge;type:numeric(12,2)"`
	Description    string            `gorm:"column:description;not null;default:''"`
	Image          string            `gorm:"column:image;not null;default:''"`
	InStock        bool              `gorm:"column:in_stock;not null;default:true"`
	Quantity       *int              `gorm:"column:quantity"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchasable reports whether qty units can be sold right now.
func (p Product) Purchasable(qty int) bool {
	if !p.InStock {
		return false
	}
	if p.Quantity != nil && qty > *p.Quantity {
		return false
	}
	return true
}
