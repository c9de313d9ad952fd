package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateDeliveryAgent OutboxAggregateType = "delivery_agent"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateDeliveryAgent,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderAssigned      OutboxEventType = "order_assigned"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventAgentProvisioned   OutboxEventType = "agent_provisioned"
	EventAgentStatusChanged OutboxEventType = "agent_status_changed"
)

var validEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderAssigned,
	EventOrderStatusChanged,
	EventAgentProvisioned,
	EventAgentStatusChanged,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
