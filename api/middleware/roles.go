package middleware

import (
	"net/http"

	"github.com/angelmondragon/gasdrop-backend/api/responses"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

// RequireArea gates a route group on the session's area and capability. A
// denied request gets the redirect target in the error details.
func RequireArea(req sessions.Requirement, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			decision := sessions.AuthorizeRoute(session, req)
			if decision.Allow {
				next.ServeHTTP(w, r)
				return
			}

			code := pkgerrors.CodeForbidden
			if session == nil {
				code = pkgerrors.CodeUnauthorized
			}
			err := pkgerrors.New(code, "access denied").
				WithDetails(map[string]any{"redirect": decision.Redirect})
			responses.WriteError(r.Context(), logg, w, err)
		})
	}
}
