// Package permission holds the static role → permission catalog and the types used to
// express permissions. The catalog is compiled into the binary; changing what a role may
// do is a code change, never a data operation.
package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Resource is an org-scoped object family that permissions are granted on.
type Resource string

const (
	ResourceOrganizations Resource = "organizations"
	ResourceUsers         Resource = "users"
	ResourceLeads         Resource = "leads"
	ResourceClients       Resource = "clients"
	ResourceCases         Resource = "cases"
	ResourceDocuments     Resource = "documents"
	ResourceAgenda        Resource = "agenda"
	ResourceIntegrations  Resource = "integrations"
	ResourceSettings      Resource = "settings"
	ResourceBilling       Resource = "billing"
	ResourceReports       Resource = "reports"
)

var allResources = []Resource{
	ResourceOrganizations,
	ResourceUsers,
	ResourceLeads,
	ResourceClients,
	ResourceCases,
	ResourceDocuments,
	ResourceAgenda,
	ResourceIntegrations,
	ResourceSettings,
	ResourceBilling,
	ResourceReports,
}

// Resources returns every known resource in catalog order.
func Resources() []Resource {
	out := make([]Resource, len(allResources))
	copy(out, allResources)
	return out
}

// Valid reports whether r is a known resource.
func (r Resource) Valid() bool {
	for _, known := range allResources {
		if r == known {
			return true
		}
	}
	return false
}

// Action is a verb on a resource. ActionManage subsumes the four CRUD actions.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

var allActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}

// Actions returns every known action, manage last.
func Actions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

// Permission is a (resource, action) pair.
type Permission struct {
	Resource Resource
	Action   Action
}

// New returns the permission for resource and action.
func New(resource Resource, action Action) Permission {
	return Permission{Resource: resource, Action: action}
}

// String formats the permission as "resource:action".
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// IsZero reports whether neither resource nor action is set.
func (p Permission) IsZero() bool {
	return p.Resource == "" && p.Action == ""
}

// Valid reports whether both halves of the permission are known values.
func (p Permission) Valid() bool {
	return p.Resource.Valid() && p.Action.Valid()
}

// Covers reports whether holding p grants want. A manage grant covers every action on
// the same resource.
func (p Permission) Covers(want Permission) bool {
	if p.Resource != want.Resource {
		return false
	}
	return p.Action == want.Action || p.Action == ActionManage
}

// ErrInvalidPermission is returned by ParsePermission for malformed or unknown input.
var ErrInvalidPermission = errors.New("invalid permission")

// ParsePermission parses "resource:action" (e.g. "cases:read").
func ParsePermission(s string) (Permission, error) {
	res, act, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	p := Permission{Resource: Resource(strings.ToLower(res)), Action: Action(strings.ToLower(act))}
	if !p.Valid() {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	return p, nil
}
