package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gasdrop-backend/api/middleware"
	"github.com/angelmondragon/gasdrop-backend/api/responses"
	"github.com/angelmondragon/gasdrop-backend/api/validators"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

type sessionResponse struct {
	Session  *sessions.Session `json:"session"`
	Redirect string            `json:"redirect"`
}

// SessionCurrent returns the session bound to the access token.
func SessionCurrent(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{Session: sess, Redirect: sessions.HomePath(sess.Role)})
	}
}

type authorizeRequest struct {
	Area       string `json:"area" validate:"required"`
	Capability string `json:"capability"`
	AdminOnly  bool   `json:"admin_only"`
}

// SessionAuthorize answers the route guard question for the frontend: may
// this session enter the given area, and if not, where should it go.
func SessionAuthorize(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authorizeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		area, err := sessions.ParseArea(req.Area)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid area"))
			return
		}
		requirement := sessions.Requirement{Area: area, AdminOnly: req.AdminOnly}
		if raw := strings.TrimSpace(req.Capability); raw != "" {
			capability, err := enums.ParsePermission(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid capability"))
				return
			}
			requirement.Capability = capability
		}

		responses.WriteSuccess(w, sessions.AuthorizeRoute(middleware.SessionFromContext(r.Context()), requirement))
	}
}
