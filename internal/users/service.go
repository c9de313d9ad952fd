package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
	"github.com/angelmondragon/gasdrop-backend/pkg/security"
)

// Service covers sub-admin management and self-service profiles.
type Service interface {
	ListSubAdmins(ctx context.Context, actor *sessions.Session) ([]SubAdminDTO, error)
	PromoteSubAdmin(ctx context.Context, actor *sessions.Session, input PromoteInput) (*SubAdminDTO, error)
	UpdatePermissions(ctx context.Context, actor *sessions.Session, uid string, perms []string) (*SubAdminDTO, error)
	DemoteSubAdmin(ctx context.Context, actor *sessions.Session, uid string) (*UserDTO, error)
	CreateStaff(ctx context.Context, input StaffInput) (*UserDTO, error)
	GetProfile(ctx context.Context, actor *sessions.Session) (*UserDTO, error)
	UpdateProfile(ctx context.Context, actor *sessions.Session, input ProfileUpdate) (*UserDTO, error)
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	UpdateAccess(ctx context.Context, uid string, role enums.Role, perms []enums.Permission) error
	UpdateProfile(ctx context.Context, uid string, updates map[string]any) error
}

// StaffInput creates a console account with a local password. Used by the
// admin CLI for the first admin and for sub-admins.
type StaffInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        enums.Role
	Permissions []string
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
}

// NewService builds the users service.
func NewService(repo userRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) ListSubAdmins(ctx context.Context, actor *sessions.Session) ([]SubAdminDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleAdmin); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByRole(ctx, enums.RoleSubAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sub-admins")
	}
	out := make([]SubAdminDTO, 0, len(rows))
	for i := range rows {
		out = append(out, subAdminFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) PromoteSubAdmin(ctx context.Context, actor *sessions.Session, input PromoteInput) (*SubAdminDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleAdmin); err != nil {
		return nil, err
	}
	email := identity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	perms, err := grantablePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupError(err, "user not found")
	}
	switch user.Role {
	case enums.RoleAdmin:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "user is already an admin")
	case enums.RoleDelivery:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery accounts cannot be promoted")
	case enums.RoleSubAdmin, enums.RoleCustomer:
	}

	if err := s.repo.UpdateAccess(ctx, user.UID, enums.RoleSubAdmin, perms); err != nil {
		return nil, mapLookupError(err, "user not found")
	}
	user.Role = enums.RoleSubAdmin
	user.Permissions = dbtypes.PermissionArray(perms)
	dto := subAdminFromModel(user)
	return &dto, nil
}

func (s *service) UpdatePermissions(ctx context.Context, actor *sessions.Session, uid string, raw []string) (*SubAdminDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleAdmin); err != nil {
		return nil, err
	}
	perms, err := grantablePermissions(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.loadSubAdmin(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAccess(ctx, user.UID, enums.RoleSubAdmin, perms); err != nil {
		return nil, mapLookupError(err, "sub-admin not found")
	}
	user.Permissions = dbtypes.PermissionArray(perms)
	dto := subAdminFromModel(user)
	return &dto, nil
}

func (s *service) DemoteSubAdmin(ctx context.Context, actor *sessions.Session, uid string) (*UserDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.loadSubAdmin(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAccess(ctx, user.UID, enums.RoleCustomer, nil); err != nil {
		return nil, mapLookupError(err, "sub-admin not found")
	}
	user.Role = enums.RoleCustomer
	user.Permissions = dbtypes.PermissionArray{}
	return FromModel(user), nil
}

func (s *service) CreateStaff(ctx context.Context, input StaffInput) (*UserDTO, error) {
	email := identity.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, identity.APIError(identity.KindInvalidEmail, nil)
	}
	if err := security.CheckStrength(input.Password, s.passwordCfg); err != nil {
		return nil, identity.APIError(identity.KindWeakPassword, err)
	}

	var perms []enums.Permission
	switch input.Role {
	case enums.RoleAdmin:
		perms = []enums.Permission{}
	case enums.RoleSubAdmin:
		var err error
		if perms, err = grantablePermissions(input.Permissions); err != nil {
			return nil, err
		}
	case enums.RoleDelivery, enums.RoleCustomer:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff role must be admin or sub-admin")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := &models.User{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  name,
		Role:         input.Role,
		Permissions:  dbtypes.PermissionArray(perms),
		PasswordHash: &hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, identity.APIError(identity.KindEmailInUse, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) GetProfile(ctx context.Context, actor *sessions.Session) (*UserDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	user, err := s.repo.FindByUID(ctx, actor.UID)
	if err != nil {
		return nil, mapLookupError(err, "user not found")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, actor *sessions.Session, input ProfileUpdate) (*UserDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	updates := map[string]any{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name cannot be empty")
		}
		updates["display_name"] = name
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if phone == "" {
			updates["phone_number"] = nil
		} else {
			updates["phone_number"] = phone
		}
	}
	if err := s.repo.UpdateProfile(ctx, actor.UID, updates); err != nil {
		return nil, mapLookupError(err, "user not found")
	}
	return s.GetProfile(ctx, actor)
}

func (s *service) loadSubAdmin(ctx context.Context, uid string) (*models.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uid is required")
	}
	user, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, mapLookupError(err, "sub-admin not found")
	}
	if user.Role != enums.RoleSubAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sub-admin not found")
	}
	return user, nil
}

// grantablePermissions drops unknown tags and requires at least one survivor.
func grantablePermissions(raw []string) ([]enums.Permission, error) {
	perms := enums.NormalizePermissions(raw)
	if len(perms) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one valid permission is required").
			WithDetails(map[string]any{"allowed": enums.Permissions()})
	}
	return perms, nil
}

func mapLookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "users store")
}
