package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
)

type stubUsers struct {
	byUID     map[string]*models.User
	created   []*models.User
	createErr error
	findErr   error
}

func (s *stubUsers) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if u, ok := s.byUID[uid]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, user)
	return nil
}

type stubAgents struct {
	byUID map[string]*models.DeliveryAgent
}

func (s *stubAgents) FindByUID(ctx context.Context, uid string) (*models.DeliveryAgent, error) {
	if a, ok := s.byUID[uid]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestResolver(t *testing.T, users *stubUsers, agents *stubAgents, now time.Time) *Resolver {
	t.Helper()
	r, err := NewResolver(users, agents)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	r.now = func() time.Time { return now }
	return r
}

func TestResolveSessionCreatesCustomerOnFirstLogin(t *testing.T) {
	users := &stubUsers{byUID: map[string]*models.User{}}
	r := newTestResolver(t, users, &stubAgents{}, time.Now())

	s, err := r.ResolveSession(context.Background(), identity.Identity{
		UID:   "fb-123",
		Email: " Meera@Example.com ",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(users.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(users.created))
	}
	created := users.created[0]
	if created.Role != enums.RoleCustomer || created.Email != "meera@example.com" || created.DisplayName != "meera" {
		t.Fatalf("unexpected default user %+v", created)
	}
	if s.Role != enums.RoleCustomer || s.ExpiresAt != nil || len(s.Permissions) != 0 {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestResolveSessionRejectsBlankIdentity(t *testing.T) {
	r := newTestResolver(t, &stubUsers{}, &stubAgents{}, time.Now())
	_, err := r.ResolveSession(context.Background(), identity.Identity{UID: "  "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != identity.KindAccountNotFound.Message() {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestResolveSessionSubAdminCarriesPermissions(t *testing.T) {
	users := &stubUsers{byUID: map[string]*models.User{
		"sub-1": {
			UID:         "sub-1",
			Email:       "sub@hpgas.com",
			Role:        enums.RoleSubAdmin,
			Permissions: dbtypes.PermissionArray{enums.PermissionOrders, enums.PermissionDelivery},
		},
	}}
	r := newTestResolver(t, users, &stubAgents{}, time.Now())

	s, err := r.ResolveSession(context.Background(), identity.Identity{UID: "sub-1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !HasPermission(s, enums.PermissionDelivery) || HasPermission(s, enums.PermissionProducts) {
		t.Fatalf("unexpected permissions %+v", s.Permissions)
	}
}

func TestResolveSessionDeliveryExpiresAfterADay(t *testing.T) {
	now := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)
	users := &stubUsers{byUID: map[string]*models.User{
		"agent-1": {UID: "agent-1", Email: "ravi@hpgas.com", Role: enums.RoleDelivery},
	}}
	agents := &stubAgents{byUID: map[string]*models.DeliveryAgent{
		"agent-1": {UID: "agent-1", IsActive: true},
	}}
	r := newTestResolver(t, users, agents, now)

	s, err := r.ResolveSession(context.Background(), identity.Identity{UID: "agent-1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.ExpiresAt == nil || !s.ExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("expected 24h expiry, got %v", s.ExpiresAt)
	}
	if s.Expired(now.Add(23 * time.Hour)) {
		t.Fatalf("session should be live before 24h")
	}
	if !s.Expired(now.Add(24 * time.Hour)) {
		t.Fatalf("session should expire at 24h")
	}
}

func TestResolveSessionRejectsDeactivatedAgent(t *testing.T) {
	users := &stubUsers{byUID: map[string]*models.User{
		"agent-2": {UID: "agent-2", Role: enums.RoleDelivery},
	}}
	agents := &stubAgents{byUID: map[string]*models.DeliveryAgent{
		"agent-2": {UID: "agent-2", IsActive: false},
	}}
	r := newTestResolver(t, users, agents, time.Now())

	_, err := r.ResolveSession(context.Background(), identity.Identity{UID: "agent-2"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestResolveSessionStoreFailure(t *testing.T) {
	users := &stubUsers{findErr: errors.New("connection reset")}
	r := newTestResolver(t, users, &stubAgents{}, time.Now())

	_, err := r.ResolveSession(context.Background(), identity.Identity{UID: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestResolveSessionEmailTakenByOtherAccount(t *testing.T) {
	users := &stubUsers{
		byUID:     map[string]*models.User{},
		createErr: errors.New("UNIQUE constraint failed: users.email"),
	}
	r := newTestResolver(t, users, &stubAgents{}, time.Now())

	_, err := r.ResolveSession(context.Background(), identity.Identity{UID: "fb-9", Email: "dup@example.com"})
	if kind, ok := identity.KindOf(err); ok {
		t.Fatalf("expected api error not raw identity error, got kind %s", kind)
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
