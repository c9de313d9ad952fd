package agents

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/orders"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
)

// Repository persists delivery agent records.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an agent repository bound to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, agent *models.DeliveryAgent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *Repository) FindByUID(ctx context.Context, uid string) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

// List returns agents ordered by name. activeOnly hides deactivated agents.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.DeliveryAgent, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryAgent{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.DeliveryAgent
	err := query.Order("name ASC").Order("uid ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateFields(ctx context.Context, uid string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("uid = ?", uid).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustCounters applies delta in a single UPDATE.
func (r *Repository) AdjustCounters(ctx context.Context, uid string, delta orders.CounterDelta) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if delta.TotalAllotted != 0 {
		updates["total_allotted"] = gorm.Expr("total_allotted + ?", delta.TotalAllotted)
	}
	if delta.RemainingToday != 0 {
		updates["remaining_today"] = gorm.Expr(
			"CASE WHEN remaining_today + ? < 0 THEN 0 ELSE remaining_today + ? END",
			delta.RemainingToday, delta.RemainingToday,
		)
	}
	if delta.DeliveriesThisWeek != 0 {
		updates["deliveries_this_week"] = gorm.Expr("deliveries_this_week + ?", delta.DeliveriesThisWeek)
	}
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("uid = ?", uid).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResetWeeklyDeliveries zeroes deliveries_this_week for every agent.
func (r *Repository) ResetWeeklyDeliveries(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("deliveries_this_week <> 0").
		Updates(map[string]any{"deliveries_this_week": 0, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// OrderCounters adapts the repository to the counter surface the order
// service depends on.
func OrderCounters(repo *Repository) orders.AgentCounters {
	return orderCounters{repo: repo}
}

type orderCounters struct {
	repo *Repository
}

func (c orderCounters) WithTx(tx *gorm.DB) orders.AgentCounters {
	return orderCounters{repo: c.repo.WithTx(tx)}
}

func (c orderCounters) FindByUID(ctx context.Context, uid string) (*models.DeliveryAgent, error) {
	return c.repo.FindByUID(ctx, uid)
}

func (c orderCounters) AdjustCounters(ctx context.Context, uid string, delta orders.CounterDelta) error {
	return c.repo.AdjustCounters(ctx, uid, delta)
}
