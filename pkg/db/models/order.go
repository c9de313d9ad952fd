package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/angelmondragon/gasdrop-backend/pkg/types"
)

// Order is a checked-out cart moving through delivery.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      string                `gorm:"column:customer_id;type:text;not null;index"`
	CustomerName    string                `gorm:"column:customer_name;not null;default:''"`
	CustomerEmail   string                `gorm:"column:customer_email;not null;default:''"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharge  decimal.Decimal       `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal       `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Discount        decimal.Decimal       `gorm:"column:discount;type:numeric(12,2);not null"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	PromoCode       *string               `gorm:"column:promo_code"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'Pending'"`
	AssignedAgentID *string               `gorm:"column:assigned_agent_id;type:text;index"`
	Address         types.DeliveryAddress `gorm:"column:address;type:delivery_address_t;not null"`
	PaymentMode     enums.PaymentMode     `gorm:"column:payment_mode;type:text;not null"`
	DeliverySlot    *string               `gorm:"column:delivery_slot"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt     *time.Time            `gorm:"column:delivered_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is the snapshot of a cart line captured at checkout.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Position  int             `gorm:"column:position;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}
