package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization role a user logs in with.
type Role string

const (
	RoleAnonymous Role = ""
	RoleAdmin     Role = "admin"
	RoleVendor    Role = "vendor"
	RoleCustomer  Role = "customer"
)

// ParseRole maps backend role names (English or Spanish) to a Role.
// Unknown roles fall back to customer, the least privileged signed-in role.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RoleAnonymous
	case "admin", "administrador":
		return RoleAdmin
	case "vendor", "vendedor":
		return RoleVendor
	default:
		return RoleCustomer
	}
}

// Identity is the signed-in user as reported by the auth backend.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
}

type identityWire struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Display string `json:"displayName"`
	Nombre  string `json:"nombre"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rol     string `json:"rol"`
	Role    string `json:"role"`
}

// UnmarshalJSON accepts the backend's "usuario" object as well as the
// storefront's own encoding of Identity.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var w identityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode identity: %w", err)
	}
	*i = Identity{
		ID:          firstNonEmpty(w.ID, w.MongoID),
		DisplayName: firstNonEmpty(w.Display, w.Nombre, w.Name, w.Email),
		Email:       w.Email,
		Role:        ParseRole(firstNonEmpty(w.Rol, w.Role)),
	}
	return nil
}

// Anonymous reports whether no user is signed in.
func (i Identity) Anonymous() bool {
	return i.Role == RoleAnonymous
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
