// Package sessions turns a verified identity into a typed Session and decides
// which capabilities and route areas that session may reach.
package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
)

// Redirect targets for each role's landing page.
const (
	PathLogin             = "/"
	PathAdminDashboard    = "/admin/admindashboard"
	PathDeliveryDashboard = "/delivery/deliverydashboard"
	PathCustomerHome      = "/customer/home"
)

// DeliverySessionTTL bounds how long a delivery agent stays signed in.
const DeliverySessionTTL = 24 * time.Hour

// Session is the authenticated actor handed to every service call that
// authorizes. There is no ambient current session.
type Session struct {
	UID         string             `json:"uid"`
	Email       string             `json:"email"`
	DisplayName string             `json:"displayName"`
	Role        enums.Role         `json:"role"`
	Permissions []enums.Permission `json:"permissions"`
	IssuedAt    time.Time          `json:"issuedAt"`
	ExpiresAt   *time.Time         `json:"expiresAt,omitempty"`
}

// Expired reports whether the session carries an expiry at or before now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Area is a top-level section of the app owned by one family of roles.
type Area string

const (
	AreaAdmin    Area = "admin"
	AreaDelivery Area = "delivery"
	AreaCustomer Area = "customer"
)

// ParseArea converts raw input into an Area.
func ParseArea(value string) (Area, error) {
	switch Area(strings.ToLower(strings.TrimSpace(value))) {
	case AreaAdmin:
		return AreaAdmin, nil
	case AreaDelivery:
		return AreaDelivery, nil
	case AreaCustomer:
		return AreaCustomer, nil
	}
	return "", fmt.Errorf("invalid area %q", value)
}

// Requirement describes what a route needs. Capability only applies inside
// the admin area; AdminOnly excludes sub-admins regardless of permissions.
type Requirement struct {
	Area       Area             `json:"area"`
	Capability enums.Permission `json:"capability,omitempty"`
	AdminOnly  bool             `json:"adminOnly,omitempty"`
}

// Decision is the outcome of AuthorizeRoute.
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(target string) Decision {
	return Decision{Redirect: target}
}

// HasPermission answers capability checks: admins hold every capability,
// sub-admins hold what was granted to them, nobody else holds any.
func HasPermission(s *Session, capability enums.Permission) bool {
	if s == nil {
		return false
	}
	switch s.Role {
	case enums.RoleAdmin:
		return true
	case enums.RoleSubAdmin:
		for _, p := range s.Permissions {
			if p == capability {
				return true
			}
		}
		return false
	case enums.RoleDelivery, enums.RoleCustomer:
		return false
	}
	return false
}

// HomePath returns the landing route for role.
func HomePath(role enums.Role) string {
	switch role {
	case enums.RoleAdmin, enums.RoleSubAdmin:
		return PathAdminDashboard
	case enums.RoleDelivery:
		return PathDeliveryDashboard
	case enums.RoleCustomer:
		return PathCustomerHome
	}
	return PathLogin
}

// AuthorizeRoute decides whether s may enter a route with requirement req. A
// nil session goes to login; a session outside its area goes to its own home.
func AuthorizeRoute(s *Session, req Requirement) Decision {
	if s == nil {
		return redirect(PathLogin)
	}

	switch s.Role {
	case enums.RoleAdmin:
		if req.Area == AreaAdmin {
			return allow()
		}
		return redirect(PathAdminDashboard)
	case enums.RoleSubAdmin:
		if req.Area != AreaAdmin || req.AdminOnly {
			return redirect(PathAdminDashboard)
		}
		if req.Capability != "" && !HasPermission(s, req.Capability) {
			return redirect(PathAdminDashboard)
		}
		return allow()
	case enums.RoleDelivery:
		if req.Area == AreaDelivery {
			return allow()
		}
		return redirect(PathDeliveryDashboard)
	case enums.RoleCustomer:
		if req.Area == AreaCustomer {
			return allow()
		}
		return redirect(PathCustomerHome)
	}
	return redirect(PathLogin)
}

// RequirePermission returns a PermissionError unless s holds capability.
func RequirePermission(s *Session, capability enums.Permission) error {
	if s == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if !HasPermission(s, capability) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "missing capability").
			WithDetails(map[string]any{"capability": string(capability)})
	}
	return nil
}

// RequireRole returns a PermissionError unless s has one of roles.
func RequireRole(s *Session, roles ...enums.Role) error {
	if s == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	for _, role := range roles {
		if s.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
}
