package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/gasdrop-backend/api/responses"
	"github.com/angelmondragon/gasdrop-backend/api/validators"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	pkgAuth "github.com/angelmondragon/gasdrop-backend/pkg/auth"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

// SessionLoader reads the cached session blob for an access id.
type SessionLoader interface {
	Load(ctx context.Context, accessID string, dest any) (bool, error)
}

// Auth validates a bearer token, loads the cached session for its jti and
// seeds the request context with it. A missing or expired session is 401.
func Auth(cfg config.JWTConfig, loader SessionLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			var session sessions.Session
			found, err := loader.Load(r.Context(), claims.ID, &session)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}
			if !found || session.UID != claims.UserID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
				return
			}
			if session.Expired(time.Now()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
				return
			}

			ctx := WithSession(r.Context(), &session, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, session.UID)
				ctx = logg.WithActorRole(ctx, string(session.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
