package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

// PermissionArray stores capability tags as a Postgres text[] literal. The
// same literal is kept verbatim in sqlite TEXT columns.
type PermissionArray []enums.Permission

func (a *PermissionArray) Scan(src any) error {
	if src == nil {
		*a = PermissionArray{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return a.parseFromString(v)
	case []byte:
		return a.parseFromString(string(v))
	default:
		return fmt.Errorf("PermissionArray: unsupported Scan type %T", src)
	}
}

func (a PermissionArray) Value() (driver.Value, error) {
	// Postgres array literal: {orders,products}
	if len(a) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(a))
	for _, perm := range a {
		if !perm.IsValid() {
			return nil, fmt.Errorf("PermissionArray: invalid permission %q", perm)
		}
		parts = append(parts, perm.String())
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Contains reports whether perm is present.
func (a PermissionArray) Contains(perm enums.Permission) bool {
	for _, candidate := range a {
		if candidate == perm {
			return true
		}
	}
	return false
}

// Strings returns the tags as plain strings.
func (a PermissionArray) Strings() []string {
	out := make([]string, 0, len(a))
	for _, perm := range a {
		out = append(out, perm.String())
	}
	return out
}

func (a *PermissionArray) parseFromString(s string) error {
	s = strings.TrimSpace(s)
	if s == "{}" || s == "" {
		*a = PermissionArray{}
		return nil
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if strings.TrimSpace(s) == "" {
		*a = PermissionArray{}
		return nil
	}

	raw := strings.Split(s, ",")
	out := make([]enums.Permission, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.Trim(r, `"`))
		perm, err := enums.ParsePermission(r)
		if err != nil {
			return fmt.Errorf("PermissionArray: parse %q: %w", r, err)
		}
		out = append(out, perm)
	}
	*a = PermissionArray(out)
	return nil
}
