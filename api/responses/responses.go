package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	"github.com/angelmondragon/gasdrop-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders err as the error envelope. Codes that carry a
// caller-facing message keep it; everything else gets the public message for
// its code. Refused sessions are told where to go: UNAUTHORIZED always lands
// on login, FORBIDDEN on the redirect recorded by the route guard.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:     string(typed.Code()),
			Message:  publicMessage(typed, meta),
			Redirect: redirectFor(typed),
		},
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	if logg != nil {
		logError(ctx, logg, err, typed)
	}
	writeJSON(w, meta.HTTPStatus, payload)
}

func publicMessage(typed *pkgerrors.Error, meta pkgerrors.Metadata) string {
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeIdempotency,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			return m
		}
	}
	return meta.PublicMessage
}

func redirectFor(typed *pkgerrors.Error) string {
	if dm, ok := typed.Details().(map[string]any); ok {
		if target, ok := dm["redirect"].(string); ok && target != "" {
			return target
		}
	}
	if typed.Code() == pkgerrors.CodeUnauthorized {
		return sessions.PathLogin
	}
	return ""
}

func logError(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error) {
	fields := pkgerrors.Dump(err).Fields()
	if dm, ok := typed.Details().(map[string]any); ok {
		for _, key := range []string{"order_id", "agent_uid", "status"} {
			if v, ok := dm[key]; ok {
				fields[key] = v
			}
		}
	}
	logg.Error(logg.WithFields(ctx, fields), "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zlog.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}
