package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
// Every lookup is scoped by user id.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByUser(ctx context.Context, userID string) ([]models.CartLine, error)
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*models.CartLine, error)
	FindByProduct(ctx context.Context, userID string, productID uuid.UUID) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	UpdateQuantity(ctx context.Context, userID string, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
