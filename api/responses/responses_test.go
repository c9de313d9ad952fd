package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	"github.com/angelmondragon/gasdrop-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body
}

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"name": "14.2kg Cylinder"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["name"] != "14.2kg Cylinder" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteSuccessStatusUsesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"status": "Pending"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", rec.Code)
	}
}

func TestWriteErrorKeepsCallerMessageAndDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered").
		WithDetails(map[string]any{"status": "Delivered"})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 but got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error.Code != string(pkgerrors.CodeStateConflict) || body.Error.Message != "order already delivered" {
		t.Fatalf("unexpected error %+v", body.Error)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
	if body.Error.Redirect != "" {
		t.Fatalf("unexpected redirect %q", body.Error.Redirect)
	}
}

func TestWriteErrorUsesPublicMessageForDependency(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp: refused"), "cache session")
	WriteError(context.Background(), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), rec, err)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 but got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error.Message != "dependency unavailable" {
		t.Fatalf("expected public message, got %q", body.Error.Message)
	}
}

func TestWriteErrorDropsDetailsForNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"order_id": "abc"})
	WriteError(context.Background(), nil, rec, err)

	body := decodeError(t, rec)
	if body.Error.Message != "order not found" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for not found, got %v", body.Error.Details)
	}
}

func TestWriteErrorDefaultsToInternalForUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error.Code != string(pkgerrors.CodeInternal) || body.Error.Message != "internal server error" {
		t.Fatalf("unexpected error %+v", body.Error)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestWriteErrorRedirects(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		redirect string
	}{
		{"unauthorized lands on login", pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"), sessions.PathLogin},
		{"forbidden uses guard target", pkgerrors.New(pkgerrors.CodeForbidden, "access denied").
			WithDetails(map[string]any{"redirect": sessions.PathDeliveryDashboard}), sessions.PathDeliveryDashboard},
		{"forbidden without target", pkgerrors.New(pkgerrors.CodeForbidden, "agent mismatch"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tt.err)
			if got := decodeError(t, rec).Error.Redirect; got != tt.redirect {
				t.Fatalf("expected redirect %q got %q", tt.redirect, got)
			}
		})
	}
}
