package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

type stubUsers struct {
	users.Service
	staff    []users.StaffInput
	conflict bool
}

func (s *stubUsers) CreateStaff(_ context.Context, input users.StaffInput) (*users.UserDTO, error) {
	if s.conflict {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email in use")
	}
	s.staff = append(s.staff, input)
	return &users.UserDTO{UID: "uid-" + input.Email, Email: input.Email, Role: input.Role}, nil
}

type stubUserLookup struct {
	user *models.User
}

func (s stubUserLookup) FindByEmail(context.Context, string) (*models.User, error) {
	return s.user, nil
}

type stubProducts struct {
	product.Service
	existing []product.ProductDTO
	created  []product.CreateProductInput
	actor    *sessions.Session
}

func (s *stubProducts) ListProducts(context.Context, product.ListFilter) ([]product.ProductDTO, error) {
	return s.existing, nil
}

func (s *stubProducts) CreateProduct(_ context.Context, actor *sessions.Session, input product.CreateProductInput) (*product.ProductDTO, error) {
	s.actor = actor
	s.created = append(s.created, input)
	return &product.ProductDTO{Name: input.Name}, nil
}

type stubAgents struct {
	agents.Service
	input agents.ProvisionInput
	actor *sessions.Session
}

func (s *stubAgents) Provision(_ context.Context, actor *sessions.Session, input agents.ProvisionInput) (*agents.AgentDTO, error) {
	s.actor = actor
	s.input = input
	return &agents.AgentDTO{}, nil
}

func stubApp(a *app) bootstrapFunc {
	a.logg = logger.New(logger.Options{ServiceName: "gasctl-test", Output: io.Discard})
	return func(context.Context) (*app, error) { return a, nil }
}

func execute(t *testing.T, boot bootstrapFunc, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(boot)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSeedCreatesAdminAndCatalog(t *testing.T) {
	usersSvc := &stubUsers{}
	products := &stubProducts{}
	boot := stubApp(&app{users: usersSvc, products: products})

	out, err := execute(t, boot, "seed", "--admin-email", "owner@gasdrop.in", "--admin-password", "s3cret!")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if len(usersSvc.staff) != 1 || usersSvc.staff[0].Role != enums.RoleAdmin {
		t.Fatalf("expected one admin account, got %+v", usersSvc.staff)
	}
	if len(products.created) != len(sampleCatalog) {
		t.Fatalf("expected %d products, got %d", len(sampleCatalog), len(products.created))
	}
	if products.actor == nil || products.actor.Role != enums.RoleAdmin || products.actor.UID != "uid-owner@gasdrop.in" {
		t.Fatalf("expected products created as the seeded admin, got %+v", products.actor)
	}
	if !strings.Contains(out, "seeded 6 products") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSeedSkipsNonEmptyCatalog(t *testing.T) {
	products := &stubProducts{existing: []product.ProductDTO{{Name: "existing"}}}
	boot := stubApp(&app{users: &stubUsers{}, products: products})

	out, err := execute(t, boot, "seed", "--admin-email", "owner@gasdrop.in", "--admin-password", "s3cret!")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if len(products.created) != 0 {
		t.Fatalf("expected no products created")
	}
	if !strings.Contains(out, "skipped") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSeedReusesExistingAdmin(t *testing.T) {
	boot := stubApp(&app{
		users:    &stubUsers{conflict: true},
		userRepo: stubUserLookup{user: &models.User{UID: "admin-1", Email: "owner@gasdrop.in", Role: enums.RoleAdmin}},
		products: &stubProducts{existing: []product.ProductDTO{{Name: "x"}}},
	})

	out, err := execute(t, boot, "seed", "--admin-email", "owner@gasdrop.in", "--admin-password", "s3cret!")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if !strings.Contains(out, "admin-1") {
		t.Fatalf("expected existing admin in output, got %q", out)
	}
}

func TestSeedRejectsNonAdminConflict(t *testing.T) {
	boot := stubApp(&app{
		users:    &stubUsers{conflict: true},
		userRepo: stubUserLookup{user: &models.User{UID: "c-1", Email: "owner@gasdrop.in", Role: enums.RoleCustomer}},
		products: &stubProducts{},
	})

	if _, err := execute(t, boot, "seed", "--admin-email", "owner@gasdrop.in", "--admin-password", "s3cret!"); err == nil {
		t.Fatalf("expected error when the email belongs to a customer")
	}
}

func TestSeedRequiresAdminFlags(t *testing.T) {
	boot := stubApp(&app{users: &stubUsers{}, products: &stubProducts{}})
	if _, err := execute(t, boot, "seed"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}

func TestCreateSubAdminPassesPermissions(t *testing.T) {
	usersSvc := &stubUsers{}
	boot := stubApp(&app{users: usersSvc})

	_, err := execute(t, boot, "create-subadmin", "--email", "ops@gasdrop.in", "--password", "s3cret!", "--name", "Ops", "--permissions", "orders,products")
	if err != nil {
		t.Fatalf("create-subadmin failed: %v", err)
	}
	if len(usersSvc.staff) != 1 {
		t.Fatalf("expected one staff account")
	}
	got := usersSvc.staff[0]
	if got.Role != enums.RoleSubAdmin {
		t.Fatalf("expected sub-admin role, got %s", got.Role)
	}
	if len(got.Permissions) != 2 || got.Permissions[0] != "orders" || got.Permissions[1] != "products" {
		t.Fatalf("unexpected permissions %v", got.Permissions)
	}
}

func TestProvisionAgentUsesOperatorSession(t *testing.T) {
	agentSvc := &stubAgents{}
	boot := stubApp(&app{agents: agentSvc})

	_, err := execute(t, boot, "provision-agent", "--email", "rider@gasdrop.in", "--password", "s3cret!", "--name", "Ravi", "--phone", "9876543210")
	if err != nil {
		t.Fatalf("provision-agent failed: %v", err)
	}
	if agentSvc.actor == nil || agentSvc.actor.Role != enums.RoleAdmin {
		t.Fatalf("expected admin operator session, got %+v", agentSvc.actor)
	}
	if agentSvc.input.Phone != "9876543210" || agentSvc.input.Name != "Ravi" {
		t.Fatalf("unexpected input %+v", agentSvc.input)
	}
}

func TestSampleCatalogInputsAreValid(t *testing.T) {
	for _, p := range sampleCatalog {
		input, err := p.input()
		if err != nil {
			t.Fatalf("%s: %v", p.name, err)
		}
		if !input.Type.IsValid() {
			t.Fatalf("%s: invalid type %s", p.name, input.Type)
		}
		if !input.Price.IsPositive() {
			t.Fatalf("%s: price must be positive", p.name)
		}
		if input.OriginalPrice != nil && input.OriginalPrice.LessThan(input.Price) {
			t.Fatalf("%s: original price below price", p.name)
		}
	}
}
