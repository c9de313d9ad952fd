package users

import (
	"time"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	UID         string             `json:"uid"`
	Email       string             `json:"email"`
	DisplayName string             `json:"display_name"`
	Role        enums.Role         `json:"role"`
	Permissions []enums.Permission `json:"permissions"`
	PhoneNumber *string            `json:"phone_number,omitempty"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// PermissionView pairs a capability tag with its console label.
type PermissionView struct {
	Tag         enums.Permission `json:"tag"`
	DisplayName string           `json:"display_name"`
}

// SubAdminDTO is a sub-admin row in the management console.
type SubAdminDTO struct {
	UserDTO
	PermissionLabels []PermissionView `json:"permission_labels"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	perms := append([]enums.Permission{}, u.Permissions...)
	return &UserDTO{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Permissions: perms,
		PhoneNumber: u.PhoneNumber,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func subAdminFromModel(u *models.User) SubAdminDTO {
	dto := SubAdminDTO{UserDTO: *FromModel(u)}
	dto.PermissionLabels = PermissionViews(dto.Permissions)
	return dto
}

// PermissionViews labels each tag for display.
func PermissionViews(perms []enums.Permission) []PermissionView {
	out := make([]PermissionView, 0, len(perms))
	for _, p := range perms {
		out = append(out, PermissionView{Tag: p, DisplayName: p.DisplayName()})
	}
	return out
}

// PromoteInput grants sub-admin access to an existing account.
type PromoteInput struct {
	Email       string
	Permissions []string
}

// ProfileUpdate carries the self-service profile fields. Nil leaves a field
// untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhoneNumber *string
}
