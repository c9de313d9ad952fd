package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// CartLine is one product in a user's cart with a snapshot of the product
// at the time it was added. (user_id, product_id) is unique.
type CartLine struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    string            `gorm:"column:user_id;type:text;not null;uniqueIndex:cart_lines_user_product_key"`
	ProductID uuid.UUID         `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_lines_user_product_key"`
	Name      string            `gorm:"column:name;not null"`
	Type      enums.ProductType `gorm:"column:type;type:text;not null"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Image     string            `gorm:"column:image;not null;default:''"`
	Quantity  int               `gorm:"column:quantity;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
