package users

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
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

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	if user.Permissions == nil {
		user.Permissions = dbtypes.PermissionArray{}
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUID loads a user by identity uid.
func (r *Repository) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole returns users holding role ordered by display name.
func (r *Repository) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("display_name ASC, uid ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, uid string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("uid = ?", uid).
		UpdateColumn("last_login_at", at).Error
}

// UpdateAccess overwrites role and permissions together so the pair never
// drifts apart.
func (r *Repository) UpdateAccess(ctx context.Context, uid string, role enums.Role, perms []enums.Permission) error {
	if perms == nil {
		perms = []enums.Permission{}
	}
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"role":        role,
			"permissions": dbtypes.PermissionArray(perms),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfile applies display name and phone changes.
func (r *Repository) UpdateProfile(ctx context.Context, uid string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
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
