package models

import (
	"time"

	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// User is the account record behind every session. UID is the identity key:
// a UUID for local sign-up, the provider uid for federated sign-in.
type User struct {
	UID          string                  `gorm:"column:uid;type:text;primaryKey"`
	Email        string                  `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName  string                  `gorm:"column:display_name;not null;default:''"`
	Role         enums.Role              `gorm:"column:role;type:text;not null;default:'customer'"`
	Permissions  dbtypes.PermissionArray `gorm:"column:permissions;type:text[];not null;default:'{}'"`
	PhoneNumber  *string                 `gorm:"column:phone_number"`
	PasswordHash *string                 `gorm:"column:password_hash"`
	LastLoginAt  *time.Time              `gorm:"column:last_login_at"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
