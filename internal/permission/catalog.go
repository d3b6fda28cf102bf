package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the effective role a user acts under. RolePlatformOperator is derived from the
// user-level flag and is never stored on a membership.
type Role string

const (
	RolePlatformOperator Role = "platform_operator"
	RoleOrgAdmin         Role = "org_admin"
	RoleUser             Role = "user"
)

// ErrUnknownRole is returned when a stored role has no catalog entry.
var ErrUnknownRole = errors.New("unknown role")

// Valid reports whether r has a catalog entry.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformOperator, RoleOrgAdmin, RoleUser:
		return true
	}
	return false
}

// ParseRole parses a core role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// memberRoles maps the membership vocabulary stored in org_members.role to core roles.
var memberRoles = map[string]Role{
	"admin":      RoleOrgAdmin,
	"gestor":     RoleOrgAdmin,
	"org_admin":  RoleOrgAdmin,
	"advogado":   RoleUser,
	"secretaria": RoleUser,
	"leitura":    RoleUser,
	"user":       RoleUser,
}

// RoleFromMemberRole maps a stored membership role to a core org-scoped role.
// platform_operator is rejected: it is a user flag, not a membership value.
func RoleFromMemberRole(memberRole string) (Role, error) {
	r, ok := memberRoles[strings.ToLower(strings.TrimSpace(memberRole))]
	if !ok {
		return "", fmt.Errorf("%w: member role %q", ErrUnknownRole, memberRole)
	}
	return r, nil
}

// Label returns the display label for r.
func (r Role) Label() string {
	switch r {
	case RolePlatformOperator:
		return "Platform operator"
	case RoleOrgAdmin:
		return "Organization admin"
	case RoleUser:
		return "User"
	}
	return string(r)
}

// Description returns a one-line summary of what r may do.
func (r Role) Description() string {
	switch r {
	case RolePlatformOperator:
		return "Full access across every organization"
	case RoleOrgAdmin:
		return "Manages users and settings of one organization"
	case RoleUser:
		return "Works on the organization's leads, cases and agenda"
	}
	return ""
}

var operatorCatalog = func() []Permission {
	out := make([]Permission, 0, len(allResources))
	for _, r := range allResources {
		out = append(out, New(r, ActionManage))
	}
	return out
}()

var orgAdminCatalog = []Permission{
	New(ResourceOrganizations, ActionRead),
	New(ResourceOrganizations, ActionUpdate),

	New(ResourceUsers, ActionCreate),
	New(ResourceUsers, ActionRead),
	New(ResourceUsers, ActionUpdate),
	New(ResourceUsers, ActionDelete),

	New(ResourceLeads, ActionManage),
	New(ResourceClients, ActionManage),
	New(ResourceCases, ActionManage),
	New(ResourceDocuments, ActionManage),
	New(ResourceAgenda, ActionManage),

	New(ResourceIntegrations, ActionManage),
	New(ResourceSettings, ActionManage),

	New(ResourceBilling, ActionRead),

	New(ResourceReports, ActionRead),
	New(ResourceReports, ActionCreate),
}

var userCatalog = []Permission{
	New(ResourceOrganizations, ActionRead),
	New(ResourceUsers, ActionRead),

	New(ResourceLeads, ActionCreate),
	New(ResourceLeads, ActionRead),
	New(ResourceLeads, ActionUpdate),

	New(ResourceClients, ActionCreate),
	New(ResourceClients, ActionRead),
	New(ResourceClients, ActionUpdate),

	New(ResourceCases, ActionCreate),
	New(ResourceCases, ActionRead),
	New(ResourceCases, ActionUpdate),

	New(ResourceDocuments, ActionCreate),
	New(ResourceDocuments, ActionRead),
	New(ResourceDocuments, ActionUpdate),

	// agenda entries are the user's own calendar items, so delete is granted here only.
	New(ResourceAgenda, ActionCreate),
	New(ResourceAgenda, ActionRead),
	New(ResourceAgenda, ActionUpdate),
	New(ResourceAgenda, ActionDelete),

	New(ResourceIntegrations, ActionRead),
	New(ResourceReports, ActionRead),
}

// PermissionsForRole returns the ordered catalog entry for role. Unknown roles get an
// empty list. The returned slice is a copy and may be modified by the caller.
func PermissionsForRole(role Role) []Permission {
	var src []Permission
	switch role {
	case RolePlatformOperator:
		src = operatorCatalog
	case RoleOrgAdmin:
		src = orgAdminCatalog
	case RoleUser:
		src = userCatalog
	default:
		return []Permission{}
	}
	out := make([]Permission, len(src))
	copy(out, src)
	return out
}

// Roles returns every role that has a catalog entry.
func Roles() []Role {
	return []Role{RolePlatformOperator, RoleOrgAdmin, RoleUser}
}
