package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gasdrop-backend/api/middleware"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func customerSession() *sessions.Session {
	return &sessions.Session{UID: "cust-1", Email: "c@example.com", Role: enums.RoleCustomer}
}

func adminSession() *sessions.Session {
	return &sessions.Session{UID: "admin-1", Email: "a@example.com", Role: enums.RoleAdmin}
}

func agentSession() *sessions.Session {
	return &sessions.Session{UID: "agent-1", Email: "d@example.com", Role: enums.RoleDelivery}
}

// newRequest builds a request carrying sess (may be nil) and chi URL params
// given as alternating name, value pairs.
func newRequest(method, target, body string, sess *sessions.Session, params ...string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if sess != nil {
		ctx = middleware.WithSession(ctx, sess, "jti-test")
	}
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rc.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d (body %s)", status, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != code {
		t.Fatalf("expected error code %s, got %+v", code, env.Error)
	}
}
