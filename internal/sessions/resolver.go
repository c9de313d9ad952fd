package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
)

const deactivatedMessage = "Your account has been deactivated. Please contact the administrator."

type userStore interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type agentStore interface {
	FindByUID(ctx context.Context, uid string) (*models.DeliveryAgent, error)
}

// Resolver builds Sessions from identities and user records.
type Resolver struct {
	users       userStore
	agents      agentStore
	deliveryTTL time.Duration
	now         func() time.Time
}

// NewResolver wires a Resolver over the user and agent stores.
func NewResolver(users userStore, agents agentStore) (*Resolver, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent store required")
	}
	return &Resolver{users: users, agents: agents, deliveryTTL: DeliverySessionTTL, now: time.Now}, nil
}

// WithDeliveryTTL overrides how long delivery sessions last. Non-positive
// values keep the default.
func (r *Resolver) WithDeliveryTTL(ttl time.Duration) *Resolver {
	if ttl > 0 {
		r.deliveryTTL = ttl
	}
	return r
}

// ResolveSession looks up the account behind id. A first federated sign-in
// has no record yet, so a customer record is created from the identity.
func (r *Resolver) ResolveSession(ctx context.Context, id identity.Identity) (*Session, error) {
	uid := strings.TrimSpace(id.UID)
	if uid == "" {
		return nil, identity.APIError(identity.KindAccountNotFound, nil)
	}

	user, err := r.users.FindByUID(ctx, uid)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		user, err = r.createDefault(ctx, uid, id)
		if err != nil {
			return nil, err
		}
	}
	return r.FromUser(ctx, user)
}

// FromUser builds the session for a loaded user record. Delivery sessions
// require an active agent record and expire after the configured delivery TTL.
func (r *Resolver) FromUser(ctx context.Context, user *models.User) (*Session, error) {
	if user == nil {
		return nil, identity.APIError(identity.KindAccountNotFound, nil)
	}
	if !user.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user has unknown role")
	}

	now := r.now().UTC()
	session := &Session{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Permissions: []enums.Permission{},
		IssuedAt:    now,
	}

	switch user.Role {
	case enums.RoleSubAdmin:
		session.Permissions = append(session.Permissions, user.Permissions...)
	case enums.RoleDelivery:
		agent, err := r.agents.FindByUID(ctx, user.UID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, deactivatedMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery agent")
		}
		if !agent.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, deactivatedMessage)
		}
		expires := now.Add(r.deliveryTTL)
		session.ExpiresAt = &expires
	case enums.RoleAdmin, enums.RoleCustomer:
	}
	return session, nil
}

func (r *Resolver) createDefault(ctx context.Context, uid string, id identity.Identity) (*models.User, error) {
	email := identity.NormalizeEmail(id.Email)
	if email == "" {
		email = fmt.Sprintf("%s@users.invalid", uuid.NewSHA1(uuid.NameSpaceURL, []byte(uid)).String())
	}
	name := strings.TrimSpace(id.DisplayName)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := &models.User{
		UID:         uid,
		Email:       email,
		DisplayName: name,
		Role:        enums.RoleCustomer,
		Permissions: dbtypes.PermissionArray{},
	}
	if err := r.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, identity.APIError(identity.KindEmailInUse, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default user")
	}
	return user, nil
}
