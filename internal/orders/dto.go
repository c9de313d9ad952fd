package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
	"github.com/angelmondragon/gasdrop-backend/pkg/pagination"
	"github.com/angelmondragon/gasdrop-backend/pkg/types"
)

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDTO is the order payload shared by the customer, agent and admin views.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	CustomerID      string                `json:"customer_id"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	Items           []OrderItemDTO        `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DeliveryCharge  decimal.Decimal       `json:"delivery_charge"`
	TaxAmount       decimal.Decimal       `json:"tax_amount"`
	Discount        decimal.Decimal       `json:"discount"`
	Total           decimal.Decimal       `json:"total"`
	PromoCode       *string               `json:"promo_code,omitempty"`
	Status          enums.OrderStatus     `json:"status"`
	NextStatus      *enums.OrderStatus    `json:"next_status,omitempty"`
	AssignedAgentID *string               `json:"assigned_agent_id,omitempty"`
	Address         types.DeliveryAddress `json:"address"`
	PaymentMode     enums.PaymentMode     `json:"payment_mode"`
	DeliverySlot    *string               `json:"delivery_slot,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// MarshalJSON renders the price breakdown with two fixed decimals.
func (o OrderDTO) MarshalJSON() ([]byte, error) {
	type plain OrderDTO
	return json.Marshal(struct {
		plain
		Subtotal       string `json:"subtotal"`
		DeliveryCharge string `json:"delivery_charge"`
		TaxAmount      string `json:"tax_amount"`
		Discount       string `json:"discount"`
		Total          string `json:"total"`
	}{
		plain:          plain(o),
		Subtotal:       money.Format(o.Subtotal),
		DeliveryCharge: money.Format(o.DeliveryCharge),
		TaxAmount:      money.Format(o.TaxAmount),
		Discount:       money.Format(o.Discount),
		Total:          money.Format(o.Total),
	})
}

// OrderList is a page of orders.
type OrderList = pagination.Page[OrderDTO]

// AssignOutcome reports the result of assigning one order in a bulk request.
type AssignOutcome struct {
	OrderID uuid.UUID           `json:"order_id"`
	Status  enums.OrderStatus   `json:"status,omitempty"`
	Error   *AssignOutcomeError `json:"error,omitempty"`
}

// AssignOutcomeError mirrors the API error envelope for a failed assignment.
type AssignOutcomeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkAssignResult summarizes a bulk assignment.
type BulkAssignResult struct {
	Assigned int             `json:"assigned"`
	Failed   int             `json:"failed"`
	Outcomes []AssignOutcome `json:"outcomes"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	TotalOrders      int64                       `json:"total_orders"`
	CountsByStatus   map[enums.OrderStatus]int64 `json:"counts_by_status"`
	DeliveredRevenue decimal.Decimal             `json:"delivered_revenue"`
}

func orderDTO(o models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: money.Line(item.Price, item.Quantity),
		})
	}
	dto := OrderDTO{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		Items:           items,
		Subtotal:        o.Subtotal,
		DeliveryCharge:  o.DeliveryCharge,
		TaxAmount:       o.TaxAmount,
		Discount:        o.Discount,
		Total:           o.Total,
		PromoCode:       o.PromoCode,
		Status:          o.Status,
		AssignedAgentID: o.AssignedAgentID,
		Address:         o.Address,
		PaymentMode:     o.PaymentMode,
		DeliverySlot:    o.DeliverySlot,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if next, ok := o.Status.Next(); ok {
		dto.NextStatus = &next
	}
	return dto
}

// ToDTO converts a stored order for API responses.
func ToDTO(o models.Order) OrderDTO {
	return orderDTO(o)
}

func orderCursor(o OrderDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}
