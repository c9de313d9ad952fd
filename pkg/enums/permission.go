package enums

import (
	"fmt"
	"strings"
)

// Permission is a capability tag granted to sub-admins.
type Permission string

const (
	PermissionDashboard Permission = "dashboard"
	PermissionOrders    Permission = "orders"
	PermissionProducts  Permission = "products"
	PermissionDelivery  Permission = "delivery"
	PermissionProfile   Permission = "profile"
)

var validPermissions = []Permission{
	PermissionDashboard,
	PermissionOrders,
	PermissionProducts,
	PermissionDelivery,
	PermissionProfile,
}

var permissionDisplayNames = map[Permission]string{
	PermissionDashboard: "Dashboard",
	PermissionOrders:    "Orders Management",
	PermissionProducts:  "Products Management",
	PermissionDelivery:  "Delivery Management",
	PermissionProfile:   "Profile",
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// DisplayName returns the admin console label for the permission.
func (p Permission) DisplayName() string {
	return permissionDisplayNames[p]
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPermissions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}

// Permissions returns every known permission in declaration order.
func Permissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}

// NormalizePermissions keeps the known tags from raw, deduplicated, in the
// order they first appear. Unknown tags are dropped.
func NormalizePermissions(raw []string) []Permission {
	seen := make(map[Permission]struct{}, len(raw))
	out := make([]Permission, 0, len(raw))
	for _, value := range raw {
		perm, err := ParsePermission(value)
		if err != nil {
			continue
		}
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		out = append(out, perm)
	}
	return out
}
