package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "github.com/angelmondragon/gasdrop-backend/internal/auth"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
)

type stubAuthService struct {
	register     func(authsvc.RegisterRequest) (*authsvc.AuthResponse, error)
	login        func(authsvc.LoginRequest) (*authsvc.AuthResponse, error)
	federated    func(authsvc.FederatedRequest) (*authsvc.AuthResponse, error)
	refresh      func(authsvc.RefreshRequest) (*authsvc.AuthResponse, error)
	loggedOutIDs []string
}

func (s *stubAuthService) Register(_ context.Context, req authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
	return s.register(req)
}

func (s *stubAuthService) Login(_ context.Context, req authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
	return s.login(req)
}

func (s *stubAuthService) Federated(_ context.Context, req authsvc.FederatedRequest) (*authsvc.AuthResponse, error) {
	return s.federated(req)
}

func (s *stubAuthService) Refresh(_ context.Context, req authsvc.RefreshRequest) (*authsvc.AuthResponse, error) {
	return s.refresh(req)
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	s.loggedOutIDs = append(s.loggedOutIDs, accessID)
	return nil
}

func TestAuthRegister(t *testing.T) {
	logg := testLogger()

	t.Run("created", func(t *testing.T) {
		var got authsvc.RegisterRequest
		svc := &stubAuthService{register: func(req authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
			got = req
			return &authsvc.AuthResponse{
				AccessToken: "token",
				Session:     &sessions.Session{UID: "u1", Role: enums.RoleCustomer},
				Redirect:    sessions.PathCustomerHome,
			}, nil
		}}
		rec := httptest.NewRecorder()
		body := `{"email":"new@example.com","password":"Secret123!","display_name":"  Asha  "}`
		AuthRegister(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/register", body, nil))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}
		if got.DisplayName != "Asha" {
			t.Fatalf("expected trimmed display name, got %q", got.DisplayName)
		}
	})

	t.Run("email in use", func(t *testing.T) {
		svc := &stubAuthService{register: func(authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
			return nil, identity.APIError(identity.KindEmailInUse, nil)
		}}
		rec := httptest.NewRecorder()
		AuthRegister(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/register", `{"email":"x@example.com","password":"Secret123!"}`, nil))

		expectErrorCode(t, rec, http.StatusConflict, string(pkgerrors.CodeConflict))
		env := decodeEnvelope(t, rec)
		if env.Error.Details["kind"] != string(identity.KindEmailInUse) {
			t.Fatalf("expected kind detail, got %v", env.Error.Details)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		svc := &stubAuthService{register: func(authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
			t.Fatal("service should not be called")
			return nil, nil
		}}
		rec := httptest.NewRecorder()
		AuthRegister(svc, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/register", `{"email":"x@example.com","password":"p","role":"admin"}`, nil))
		expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
	})
}

func TestAuthLoginMapsWrongPassword(t *testing.T) {
	svc := &stubAuthService{login: func(authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
		return nil, identity.APIError(identity.KindWrongPassword, nil)
	}}
	rec := httptest.NewRecorder()
	AuthLogin(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"nope"}`, nil))

	expectErrorCode(t, rec, http.StatusUnauthorized, string(pkgerrors.CodeUnauthorized))
}

func TestAuthLoginRequiresFields(t *testing.T) {
	svc := &stubAuthService{}
	rec := httptest.NewRecorder()
	AuthLogin(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/login", `{"email":""}`, nil))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestAuthRefresh(t *testing.T) {
	svc := &stubAuthService{refresh: func(req authsvc.RefreshRequest) (*authsvc.AuthResponse, error) {
		if req.RefreshToken != "r1" {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return &authsvc.AuthResponse{AccessToken: "a2", RefreshToken: "r2"}, nil
	}}

	rec := httptest.NewRecorder()
	AuthRefresh(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/refresh", `{"access_token":"a1","refresh_token":"r1"}`, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	AuthRefresh(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/refresh", `{"access_token":"a1","refresh_token":"stale"}`, nil))
	expectErrorCode(t, rec, http.StatusUnauthorized, string(pkgerrors.CodeUnauthorized))
}

func TestAuthLogoutUsesAccessID(t *testing.T) {
	svc := &stubAuthService{}
	rec := httptest.NewRecorder()
	AuthLogout(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/logout", "", customerSession()))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if len(svc.loggedOutIDs) != 1 || svc.loggedOutIDs[0] != "jti-test" {
		t.Fatalf("expected logout of jti-test, got %v", svc.loggedOutIDs)
	}
}

func TestAuthFederatedDisabled(t *testing.T) {
	svc := &stubAuthService{federated: func(authsvc.FederatedRequest) (*authsvc.AuthResponse, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "federated sign-in is disabled")
	}}
	rec := httptest.NewRecorder()
	AuthFederated(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/auth/federated", `{"id_token":"tok"}`, nil))
	expectErrorCode(t, rec, http.StatusNotFound, string(pkgerrors.CodeNotFound))
}
