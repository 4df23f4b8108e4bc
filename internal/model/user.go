package model

import (
	"fmt"
	"net/mail"
	"time"
)

// User mirrors an identity from the external identity provider. It exists so
// items and purchase requests can reference people and roles can be looked up.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Roles.
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleAccounting = "accounting"
	RoleStudent    = "student"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return HasRole(role, RoleAdmin, RoleStaff, RoleAccounting, RoleStudent)
}

// HasRole reports whether role is one of allowed. Unknown roles fail closed.
func HasRole(role string, allowed ...string) bool {
	if role == "" {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// CanManageInventory reports whether role may create, assign and move items.
func CanManageInventory(role string) bool {
	return HasRole(role, RoleAdmin, RoleStaff)
}

// CanViewAllRequests reports whether role may list every purchase request.
func CanViewAllRequests(role string) bool {
	return HasRole(role, RoleAdmin, RoleStaff, RoleAccounting)
}

// ValidateEmail checks that s is a bare email address.
func ValidateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("invalid email address %q", s)
	}
	return nil
}
