package domain

import (
	"errors"
	"time"
)

// Membership links a user to an organization with a role. Inactive memberships are
// retired, not deleted, and are never selected as a session's working organization.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

// Role is the role value stored on a membership row. It is mapped to a core role by
// permission.RoleFromMemberRole.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleGestor     Role = "gestor"
	RoleAdvogado   Role = "advogado"
	RoleSecretaria Role = "secretaria"
	RoleLeitura    Role = "leitura"
)

// Validate validates the membership for persistence. Returns an error describing the first validation failure.
func (m *Membership) Validate() error {
	if m.UserID == "" {
		return errors.New("user_id is required")
	}
	if m.OrgID == "" {
		return errors.New("org_id is required")
	}
	if m.Role == "" {
		return errors.New("role is required")
	}
	return nil
}
