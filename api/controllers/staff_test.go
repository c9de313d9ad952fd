package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	"github.com/angelmondragon/gasdrop-backend/internal/orders"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/pagination"
)

type stubOrderService struct {
	status     *enums.OrderStatus
	params     pagination.Params
	bulkIDs    []uuid.UUID
	assignedTo string
	advanceErr error
}

func (s *stubOrderService) AssignAgent(_ context.Context, _ *sessions.Session, orderID uuid.UUID, agentUID string) (*orders.OrderDTO, error) {
	s.assignedTo = agentUID
	return &orders.OrderDTO{ID: orderID, Status: enums.OrderStatusConfirmed, AssignedAgentID: &agentUID}, nil
}

func (s *stubOrderService) BulkAssign(_ context.Context, _ *sessions.Session, ids []uuid.UUID, _ string) (*orders.BulkAssignResult, error) {
	s.bulkIDs = ids
	return &orders.BulkAssignResult{Assigned: len(ids)}, nil
}

func (s *stubOrderService) AdvanceStatus(_ context.Context, _ *sessions.Session, orderID uuid.UUID) (*orders.OrderDTO, error) {
	if s.advanceErr != nil {
		return nil, s.advanceErr
	}
	return &orders.OrderDTO{ID: orderID, Status: enums.OrderStatusOutForDelivery}, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, _ *sessions.Session, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID}, nil
}

func (s *stubOrderService) ListCustomerOrders(_ context.Context, _ *sessions.Session, params pagination.Params) (*orders.OrderList, error) {
	s.params = params
	return &orders.OrderList{Items: []orders.OrderDTO{}}, nil
}

func (s *stubOrderService) ListAgentOrders(_ context.Context, _ *sessions.Session, status *enums.OrderStatus, params pagination.Params) (*orders.OrderList, error) {
	s.status = status
	s.params = params
	return &orders.OrderList{Items: []orders.OrderDTO{}}, nil
}

func (s *stubOrderService) ListOrders(_ context.Context, _ *sessions.Session, status *enums.OrderStatus, params pagination.Params) (*orders.OrderList, error) {
	s.status = status
	s.params = params
	return &orders.OrderList{Items: []orders.OrderDTO{}}, nil
}

func (s *stubOrderService) Dashboard(context.Context, *sessions.Session) (*orders.Dashboard, error) {
	return &orders.Dashboard{TotalOrders: 3}, nil
}

func TestAdminOrdersQueryParsing(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	AdminOrders(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/orders?status=Out+for+Delivery&limit=10&cursor=abc", "", adminSession()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.status == nil || *svc.status != enums.OrderStatusOutForDelivery {
		t.Fatalf("unexpected status filter %v", svc.status)
	}
	if svc.params.Limit != 10 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}

	rec = httptest.NewRecorder()
	AdminOrders(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/orders?limit=500", "", adminSession()))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))

	rec = httptest.NewRecorder()
	AdminOrders(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/orders?status=Lost", "", adminSession()))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestCustomerOrdersDefaultLimit(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	CustomerOrders(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/orders", "", customerSession()))
	if rec.Code != http.StatusOK || svc.params.Limit != pagination.DefaultLimit {
		t.Fatalf("expected default limit, got %d %+v", rec.Code, svc.params)
	}
}

func TestAdminAssignOrder(t *testing.T) {
	svc := &stubOrderService{}
	orderID := uuid.NewString()
	rec := httptest.NewRecorder()
	AdminAssignOrder(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/", `{"agent_uid":"agent-1"}`, adminSession(), "orderId", orderID))
	if rec.Code != http.StatusOK || svc.assignedTo != "agent-1" {
		t.Fatalf("unexpected assign result %d %q", rec.Code, svc.assignedTo)
	}

	rec = httptest.NewRecorder()
	AdminAssignOrder(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/", `{}`, adminSession(), "orderId", orderID))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestAdminBulkAssign(t *testing.T) {
	svc := &stubOrderService{}
	a, b := uuid.New(), uuid.New()
	body := `{"order_ids":["` + a.String() + `","` + b.String() + `"],"agent_uid":"agent-1"}`
	rec := httptest.NewRecorder()
	AdminBulkAssign(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/orders/bulk-assign", body, adminSession()))
	if rec.Code != http.StatusOK || len(svc.bulkIDs) != 2 {
		t.Fatalf("unexpected bulk result %d %v", rec.Code, svc.bulkIDs)
	}

	rec = httptest.NewRecorder()
	AdminBulkAssign(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/orders/bulk-assign", `{"order_ids":["x"],"agent_uid":"agent-1"}`, adminSession()))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))

	ids := make([]string, orders.MaxBulkAssign+1)
	for i := range ids {
		ids[i] = `"` + uuid.NewString() + `"`
	}
	tooMany := `{"order_ids":[` + strings.Join(ids, ",") + `],"agent_uid":"agent-1"}`
	rec = httptest.NewRecorder()
	AdminBulkAssign(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/orders/bulk-assign", tooMany, adminSession()))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestAgentAdvanceOrder(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	AgentAdvanceOrder(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/", "", agentSession(), "orderId", uuid.NewString()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var order orders.OrderDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.Status != enums.OrderStatusOutForDelivery {
		t.Fatalf("unexpected status %s", order.Status)
	}

	svc.advanceErr = pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered")
	rec = httptest.NewRecorder()
	AgentAdvanceOrder(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/", "", agentSession(), "orderId", uuid.NewString()))
	expectErrorCode(t, rec, http.StatusUnprocessableEntity, string(pkgerrors.CodeStateConflict))
}

type stubAgentService struct {
	activeOnly bool
	active     *bool
	stats      agents.StatsInput
	provision  agents.ProvisionInput
}

func (s *stubAgentService) Provision(_ context.Context, _ *sessions.Session, input agents.ProvisionInput) (*agents.AgentDTO, error) {
	s.provision = input
	return &agents.AgentDTO{UID: "agent-new", Name: input.Name, IsActive: true}, nil
}

func (s *stubAgentService) List(_ context.Context, _ *sessions.Session, activeOnly bool) ([]agents.AgentDTO, error) {
	s.activeOnly = activeOnly
	return []agents.AgentDTO{}, nil
}

func (s *stubAgentService) Get(_ context.Context, _ *sessions.Session, uid string) (*agents.AgentDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
}

func (s *stubAgentService) Update(_ context.Context, _ *sessions.Session, uid string, _ agents.UpdateInput) (*agents.AgentDTO, error) {
	return &agents.AgentDTO{UID: uid}, nil
}

func (s *stubAgentService) SetActive(_ context.Context, _ *sessions.Session, uid string, active bool) (*agents.AgentDTO, error) {
	s.active = &active
	return &agents.AgentDTO{UID: uid, IsActive: active}, nil
}

func (s *stubAgentService) UpdateStats(_ context.Context, _ *sessions.Session, uid string, input agents.StatsInput) (*agents.AgentDTO, error) {
	s.stats = input
	return &agents.AgentDTO{UID: uid}, nil
}

func (s *stubAgentService) Profile(_ context.Context, actor *sessions.Session) (*agents.AgentDTO, error) {
	return &agents.AgentDTO{UID: actor.UID}, nil
}

func TestAdminAgents(t *testing.T) {
	svc := &stubAgentService{}
	logg := testLogger()

	rec := httptest.NewRecorder()
	AdminProvisionAgent(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/agents",
		`{"email":"rider@example.com","password":"Secret123!","name":" Ravi ","phone":"9876543210"}`, adminSession()))
	if rec.Code != http.StatusCreated || svc.provision.Name != "Ravi" {
		t.Fatalf("unexpected provision %d %+v", rec.Code, svc.provision)
	}

	rec = httptest.NewRecorder()
	AdminProvisionAgent(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/agents",
		`{"email":"not-an-email","password":"Secret123!","name":"Ravi","phone":"9876543210"}`, adminSession()))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))

	rec = httptest.NewRecorder()
	AdminListAgents(svc, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/admin/agents?active=true", "", adminSession()))
	if rec.Code != http.StatusOK || !svc.activeOnly {
		t.Fatalf("expected active filter, got %d %v", rec.Code, svc.activeOnly)
	}

	rec = httptest.NewRecorder()
	AdminSetAgentActive(svc, logg).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"active":false}`, adminSession(), "agentUid", "agent-1"))
	if rec.Code != http.StatusOK || svc.active == nil || *svc.active {
		t.Fatalf("expected deactivation, got %d %v", rec.Code, svc.active)
	}

	rec = httptest.NewRecorder()
	AdminUpdateAgentStats(svc, logg).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"remaining_today":-1}`, adminSession(), "agentUid", "agent-1"))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))

	rec = httptest.NewRecorder()
	AdminUpdateAgentStats(svc, logg).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"remaining_today":4}`, adminSession(), "agentUid", "agent-1"))
	if rec.Code != http.StatusOK || svc.stats.RemainingToday == nil || *svc.stats.RemainingToday != 4 {
		t.Fatalf("unexpected stats update %d %+v", rec.Code, svc.stats)
	}

	rec = httptest.NewRecorder()
	AdminGetAgent(svc, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/", "", adminSession(), "agentUid", "missing"))
	expectErrorCode(t, rec, http.StatusNotFound, string(pkgerrors.CodeNotFound))
}

type stubUserService struct {
	perms   []string
	profile users.ProfileUpdate
}

func (s *stubUserService) ListSubAdmins(context.Context, *sessions.Session) ([]users.SubAdminDTO, error) {
	return []users.SubAdminDTO{}, nil
}

func (s *stubUserService) PromoteSubAdmin(_ context.Context, actor *sessions.Session, input users.PromoteInput) (*users.SubAdminDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleAdmin); err != nil {
		return nil, err
	}
	s.perms = input.Permissions
	return &users.SubAdminDTO{}, nil
}

func (s *stubUserService) UpdatePermissions(_ context.Context, _ *sessions.Session, _ string, perms []string) (*users.SubAdminDTO, error) {
	s.perms = perms
	return &users.SubAdminDTO{}, nil
}

func (s *stubUserService) DemoteSubAdmin(_ context.Context, _ *sessions.Session, uid string) (*users.UserDTO, error) {
	return &users.UserDTO{UID: uid, Role: enums.RoleCustomer}, nil
}

func (s *stubUserService) CreateStaff(context.Context, users.StaffInput) (*users.UserDTO, error) {
	return nil, nil
}

func (s *stubUserService) GetProfile(_ context.Context, actor *sessions.Session) (*users.UserDTO, error) {
	return &users.UserDTO{UID: actor.UID}, nil
}

func (s *stubUserService) UpdateProfile(_ context.Context, actor *sessions.Session, input users.ProfileUpdate) (*users.UserDTO, error) {
	s.profile = input
	return &users.UserDTO{UID: actor.UID}, nil
}

func TestSubAdminEndpoints(t *testing.T) {
	svc := &stubUserService{}
	logg := testLogger()

	rec := httptest.NewRecorder()
	AdminPromoteSubAdmin(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/subadmins",
		`{"email":"ops@example.com","permissions":["orders","delivery"]}`, adminSession()))
	if rec.Code != http.StatusOK || len(svc.perms) != 2 {
		t.Fatalf("unexpected promote %d %v", rec.Code, svc.perms)
	}

	sub := &sessions.Session{UID: "s1", Role: enums.RoleSubAdmin, Permissions: []enums.Permission{enums.PermissionOrders}}
	rec = httptest.NewRecorder()
	AdminPromoteSubAdmin(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/admin/subadmins",
		`{"email":"ops@example.com","permissions":["orders"]}`, sub))
	expectErrorCode(t, rec, http.StatusForbidden, string(pkgerrors.CodeForbidden))

	rec = httptest.NewRecorder()
	AdminSetPermissions(svc, logg).ServeHTTP(rec, newRequest(http.MethodPut, "/", `{"permissions":["products"]}`, adminSession(), "uid", "s1"))
	if rec.Code != http.StatusOK || len(svc.perms) != 1 || svc.perms[0] != "products" {
		t.Fatalf("unexpected permissions update %d %v", rec.Code, svc.perms)
	}

	rec = httptest.NewRecorder()
	AdminDemoteSubAdmin(svc, logg).ServeHTTP(rec, newRequest(http.MethodDelete, "/", "", adminSession(), "uid", "s1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestMeUpdate(t *testing.T) {
	svc := &stubUserService{}
	rec := httptest.NewRecorder()
	MeUpdate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPatch, "/api/v1/me", `{"display_name":"Asha K"}`, customerSession()))
	if rec.Code != http.StatusOK || svc.profile.DisplayName == nil || *svc.profile.DisplayName != "Asha K" {
		t.Fatalf("unexpected profile update %d %+v", rec.Code, svc.profile)
	}
	if svc.profile.PhoneNumber != nil {
		t.Fatalf("expected phone untouched")
	}
}
