// internal/domain/auth/entity.go
package auth

import "time"

// Role is the closed set of account roles the client distinguishes
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleStoreOwner Role = "STORE_OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStoreOwner, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Label returns the dashboard name for the role
func (r Role) Label() string {
	switch r {
	case RoleCustomer:
		return "Customer"
	case RoleStoreOwner:
		return "Store"
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "Super admin"
	}
	return "Unknown"
}

// CanManageStore reports whether the role may act on store orders, reviews and vouchers
func (r Role) CanManageStore() bool {
	return r == RoleStoreOwner || r == RoleAdmin || r == RoleSuperAdmin
}

// CanManageCatalog reports whether the role may edit or delete any product
func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is the signed-in account
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	StoreID string `json:"storeId,omitempty"`
}

// Session is what a successful login returns and what gets persisted
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// State is the auth store snapshot
type State struct {
	Token     string
	User      *User
	ExpiresAt time.Time
}

// Authenticated reports whether a token is held
func (s State) Authenticated() bool {
	return s.Token != ""
}
