package permission

// Set is an immutable, materialized permission set for one role.
type Set struct {
	role   Role
	grants map[Permission]struct{}
	list   []Permission
}

// NewSet materializes the catalog entry of role. An unknown role yields an empty set.
func NewSet(role Role) *Set {
	list := PermissionsForRole(role)
	grants := make(map[Permission]struct{}, len(list))
	for _, p := range list {
		grants[p] = struct{}{}
	}
	return &Set{role: role, grants: grants, list: list}
}

// Role returns the role the set was built from.
func (s *Set) Role() Role {
	if s == nil {
		return ""
	}
	return s.role
}

// Allows reports whether the set contains (resource, action) or (resource, manage).
// A nil set allows nothing.
func (s *Set) Allows(resource Resource, action Action) bool {
	if s == nil || resource == "" || action == "" {
		return false
	}
	if _, ok := s.grants[New(resource, action)]; ok {
		return true
	}
	_, ok := s.grants[New(resource, ActionManage)]
	return ok
}

// List returns a copy of the set's permissions in catalog order.
func (s *Set) List() []Permission {
	if s == nil {
		return nil
	}
	out := make([]Permission, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of catalog entries in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.list)
}
