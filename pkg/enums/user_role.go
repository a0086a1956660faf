package enums

import (
	"fmt"
	"strings"
)

// UserRole tags a user as a vendor (buyer) or a supplier (seller).
type UserRole string

const (
	UserRoleVendor   UserRole = "vendor"
	UserRoleSupplier UserRole = "supplier"
)

var validUserRoles = []UserRole{UserRoleVendor, UserRoleSupplier}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole, ignoring case and whitespace.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
