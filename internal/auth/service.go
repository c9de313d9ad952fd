package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/gasdrop-backend/pkg/auth"
	"github.com/angelmondragon/gasdrop-backend/pkg/auth/session"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
	"github.com/angelmondragon/gasdrop-backend/pkg/security"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Federated(ctx context.Context, req FederatedRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, uid string, at time.Time) error
}

type sessionResolver interface {
	ResolveSession(ctx context.Context, id identity.Identity) (*sessions.Session, error)
	FromUser(ctx context.Context, user *models.User) (*sessions.Session, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
	Put(ctx context.Context, accessID string, payload any, expiresAt *time.Time) error
	Load(ctx context.Context, accessID string, dest any) (bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
// Verifier may be nil when federated sign-in is disabled.
type ServiceParams struct {
	UserRepo       userRepository
	Resolver       sessionResolver
	SessionManager sessionManager
	Verifier       identity.Verifier
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	FederatedLogin bool
}

type service struct {
	users          userRepository
	resolver       sessionResolver
	session        sessionManager
	verifier       identity.Verifier
	jwtCfg         config.JWTConfig
	passwordCfg    config.PasswordConfig
	federatedLogin bool
	now            func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("session resolver is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.FederatedLogin && params.Verifier == nil {
		return nil, fmt.Errorf("identity verifier is required for federated login")
	}
	return &service{
		users:          params.UserRepo,
		resolver:       params.Resolver,
		session:        params.SessionManager,
		verifier:       params.Verifier,
		jwtCfg:         params.JWTConfig,
		passwordCfg:    params.PasswordConfig,
		federatedLogin: params.FederatedLogin,
		now:            time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := identity.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, identity.APIError(identity.KindInvalidEmail, nil)
	}
	if err := security.CheckStrength(req.Password, s.passwordCfg); err != nil {
		return nil, identity.APIError(identity.KindWeakPassword, err)
	}
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := &models.User{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  name,
		Role:         enums.RoleCustomer,
		Permissions:  dbtypes.PermissionArray{},
		PhoneNumber:  trimmedPtr(req.PhoneNumber),
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, identity.APIError(identity.KindEmailInUse, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return s.signIn(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, user)
}

func (s *service) Federated(ctx context.Context, req FederatedRequest) (*AuthResponse, error) {
	if !s.federatedLogin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "federated sign-in is disabled")
	}
	id, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, identity.ToAPIError(err)
	}
	sess, err := s.resolver.ResolveSession(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByUID(ctx, sess.UID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	return s.issue(ctx, user, sess, session.NewAccessID(), "")
}

// Refresh rotates the refresh token and re-derives the session from the
// current user record, so role and capability changes apply here. A
// delivery session keeps its original expiry.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	oldAccessID := claims.ID

	var previous sessions.Session
	found, err := s.session.Load(ctx, oldAccessID, &previous)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if !found && claims.Role == enums.RoleDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, oldAccessID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByUID(ctx, claims.UserID)
	if err != nil {
		_ = s.session.Revoke(ctx, newAccessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.APIError(identity.KindAccountNotFound, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	sess, err := s.resolver.FromUser(ctx, user)
	if err != nil {
		_ = s.session.Revoke(ctx, newAccessID)
		return nil, err
	}
	if found && previous.ExpiresAt != nil {
		if sess.ExpiresAt == nil || previous.ExpiresAt.Before(*sess.ExpiresAt) {
			expires := *previous.ExpiresAt
			sess.ExpiresAt = &expires
		}
	}
	if sess.Expired(s.now()) {
		_ = s.session.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}
	return s.issue(ctx, user, sess, newAccessID, refreshToken)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" {
		return nil, identity.APIError(identity.KindInvalidEmail, nil)
	}
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.APIError(identity.KindUserNotFound, nil)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, identity.APIError(identity.KindInvalidCredential, nil)
	}
	ok, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		return nil, identity.APIError(identity.KindInvalidCredential, err)
	}
	if !ok {
		return nil, identity.APIError(identity.KindWrongPassword, nil)
	}
	return user, nil
}

func (s *service) signIn(ctx context.Context, user *models.User) (*AuthResponse, error) {
	sess, err := s.resolver.FromUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, sess, session.NewAccessID(), "")
}

// issue mints the access token, caches the session blob under accessID and
// records the login. A blank refreshToken means a fresh one is generated.
func (s *service) issue(ctx context.Context, user *models.User, sess *sessions.Session, accessID, refreshToken string) (*AuthResponse, error) {
	now := s.now().UTC()

	var notAfter time.Time
	if sess.ExpiresAt != nil {
		notAfter = *sess.ExpiresAt
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:      sess.UID,
		Role:        sess.Role,
		Permissions: sess.Permissions,
		JTI:         accessID,
	}, notAfter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	if refreshToken == "" {
		refreshToken, err = s.session.Generate(ctx, accessID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate refresh token")
		}
	}
	if err := s.session.Put(ctx, accessID, sess, sess.ExpiresAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.UID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Session:      sess,
		Redirect:     sessions.HomePath(sess.Role),
		User:         users.FromModel(user),
	}, nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
