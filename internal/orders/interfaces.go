package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/angelmondragon/gasdrop-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	AssignAgent(ctx context.Context, id uuid.UUID, agentUID string) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	DeliveredRevenue(ctx context.Context) (decimal.Decimal, error)
	OpenAssignmentsByAgent(ctx context.Context) (map[string]int, error)
}

// ListFilter narrows order listings. Zero values match everything.
type ListFilter struct {
	CustomerID string
	AgentUID   string
	Status     *enums.OrderStatus
}

// AgentCounters is the slice of the delivery agent store that order
// operations touch.
type AgentCounters interface {
	WithTx(tx *gorm.DB) AgentCounters
	FindByUID(ctx context.Context, uid string) (*models.DeliveryAgent, error)
	AdjustCounters(ctx context.Context, uid string, delta CounterDelta) error
}

// CounterDelta is applied to an agent's counters. RemainingToday never drops
// below zero.
type CounterDelta struct {
	TotalAllotted      int
	RemainingToday     int
	DeliveriesThisWeek int
}
