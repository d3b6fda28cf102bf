package guard

import "sdr-juridico/backend/internal/permission"

// CriteriaKind tags the shape of a permission guard's input.
type CriteriaKind int

const (
	CriteriaNone CriteriaKind = iota
	CriteriaSingle
	CriteriaPair
	CriteriaAllOf
	CriteriaAnyOf
)

func (k CriteriaKind) String() string {
	switch k {
	case CriteriaSingle:
		return "single"
	case CriteriaPair:
		return "pair"
	case CriteriaAllOf:
		return "all_of"
	case CriteriaAnyOf:
		return "any_of"
	default:
		return "none"
	}
}

// Criteria is exactly one of: a single permission, a (resource, action) pair, a list that must
// all pass, or a list of which one must pass. The zero value is CriteriaNone.
type Criteria struct {
	kind     CriteriaKind
	single   permission.Permission
	resource permission.Resource
	action   permission.Action
	list     []permission.Permission
}

// Single requires p.
func Single(p permission.Permission) Criteria {
	return Criteria{kind: CriteriaSingle, single: p}
}

// Pair requires action on resource.
func Pair(resource permission.Resource, action permission.Action) Criteria {
	return Criteria{kind: CriteriaPair, resource: resource, action: action}
}

// AllOf requires every permission in perms.
func AllOf(perms ...permission.Permission) Criteria {
	return Criteria{kind: CriteriaAllOf, list: append([]permission.Permission(nil), perms...)}
}

// AnyOf requires at least one permission in perms.
func AnyOf(perms ...permission.Permission) Criteria {
	return Criteria{kind: CriteriaAnyOf, list: append([]permission.Permission(nil), perms...)}
}

// Kind returns the variant tag.
func (c Criteria) Kind() CriteriaKind { return c.kind }

// Empty reports whether the criteria carry nothing to check.
func (c Criteria) Empty() bool {
	switch c.kind {
	case CriteriaSingle:
		return c.single.Resource == "" || c.single.Action == ""
	case CriteriaPair:
		return c.resource == "" || c.action == ""
	case CriteriaAllOf, CriteriaAnyOf:
		return len(c.list) == 0
	default:
		return true
	}
}

// Permissions returns the permissions named by the criteria.
func (c Criteria) Permissions() []permission.Permission {
	switch c.kind {
	case CriteriaSingle:
		return []permission.Permission{c.single}
	case CriteriaPair:
		return []permission.Permission{permission.New(c.resource, c.action)}
	case CriteriaAllOf, CriteriaAnyOf:
		return append([]permission.Permission(nil), c.list...)
	default:
		return nil
	}
}
