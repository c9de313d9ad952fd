package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// OrderCreatedEvent signals a checkout that produced a Pending order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	CustomerID  string            `json:"customer_id"`
	Total       string            `json:"total"`
	PaymentMode enums.PaymentMode `json:"payment_mode"`
	ItemCount   int               `json:"item_count"`
	PromoCode   *string           `json:"promo_code,omitempty"`
}

// OrderAssignedEvent is emitted when an admin (re)assigns a delivery agent.
type OrderAssignedEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	AgentUID        string            `json:"agent_uid"`
	PreviousAgentID *string           `json:"previous_agent_uid,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	AssignedBy      string            `json:"assigned_by"`
}

// OrderStatusChangedEvent is emitted when an agent advances an order.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	AgentUID    string            `json:"agent_uid"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}

// AgentProvisionedEvent is emitted when a delivery account is created.
type AgentProvisionedEvent struct {
	AgentUID string `json:"agent_uid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// AgentStatusChangedEvent is emitted when an agent is activated or deactivated.
type AgentStatusChangedEvent struct {
	AgentUID string `json:"agent_uid"`
	IsActive bool   `json:"is_active"`
}
