package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/auth"
	"github.com/angelmondragon/gasdrop-backend/pkg/auth/session"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, &stubSessionLoader{}, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, &stubSessionLoader{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsSessionFromCache(t *testing.T) {
	accessID := session.NewAccessID()
	token := mintTestToken(t, "user-1", enums.RoleSubAdmin, accessID)
	loader := &stubSessionLoader{sessions: map[string]sessions.Session{
		accessID: {
			UID:         "user-1",
			Role:        enums.RoleSubAdmin,
			Permissions: []enums.Permission{enums.PermissionOrders},
		},
	}}

	var captured struct {
		user     string
		role     string
		accessID string
		perms    []enums.Permission
	}
	handler := Auth(testJWT, loader, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.accessID = AccessIDFromContext(r.Context())
		if s := SessionFromContext(r.Context()); s != nil {
			captured.perms = s.Permissions
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != "user-1" {
		t.Fatalf("expected user-1 got %q", captured.user)
	}
	if captured.role != string(enums.RoleSubAdmin) {
		t.Fatalf("expected sub-admin got %s", captured.role)
	}
	if captured.accessID != accessID {
		t.Fatalf("expected access id %s got %s", accessID, captured.accessID)
	}
	if len(captured.perms) != 1 || captured.perms[0] != enums.PermissionOrders {
		t.Fatalf("unexpected permissions %v", captured.perms)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, "user-1", enums.RoleCustomer, session.NewAccessID())
	handler := Auth(testJWT, &stubSessionLoader{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsSessionForAnotherUser(t *testing.T) {
	accessID := session.NewAccessID()
	token := mintTestToken(t, "user-1", enums.RoleCustomer, accessID)
	loader := &stubSessionLoader{sessions: map[string]sessions.Session{
		accessID: {UID: "user-2", Role: enums.RoleCustomer},
	}}
	handler := Auth(testJWT, loader, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsExpiredDeliverySession(t *testing.T) {
	accessID := session.NewAccessID()
	token := mintTestToken(t, "agent-1", enums.RoleDelivery, accessID)
	expired := time.Now().Add(-time.Minute)
	loader := &stubSessionLoader{sessions: map[string]sessions.Session{
		accessID: {UID: "agent-1", Role: enums.RoleDelivery, ExpiresAt: &expired},
	}}
	handler := Auth(testJWT, loader, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Message != "session expired" {
		t.Fatalf("unexpected message %q", payload.Error.Message)
	}
}

func TestAuthSurfacesLoaderFailure(t *testing.T) {
	token := mintTestToken(t, "user-1", enums.RoleCustomer, session.NewAccessID())
	handler := Auth(testJWT, &stubSessionLoader{err: errors.New("redis down")}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func mintTestToken(t *testing.T, uid string, role enums.Role, accessID string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID: uid,
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type stubSessionLoader struct {
	sessions map[string]sessions.Session
	err      error
}

func (s *stubSessionLoader) Load(_ context.Context, accessID string, dest any) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	stored, ok := s.sessions[accessID]
	if !ok {
		return false, nil
	}
	out, ok := dest.(*sessions.Session)
	if !ok {
		return false, errors.New("unexpected destination")
	}
	*out = stored
	return true, nil
}
