package audit

import "strings"

// MethodAction holds action and entity derived from a gRPC full method name.
type MethodAction struct {
	Action string
	Entity string
}

// Membership method overrides: audited as user_added, user_removed, role_changed on entity "user".
const (
	membershipAddMember    = "/sdr.membership.v1.MembershipService/AddMember"
	membershipRemoveMember = "/sdr.membership.v1.MembershipService/RemoveMember"
	membershipUpdateRole   = "/sdr.membership.v1.MembershipService/UpdateRole"
)

// ParseFullMethod returns action and entity for a gRPC full method (e.g. /sdr.lead.v1.LeadService/GetLead).
// Action is a verb: get, list, create, update, delete, or a lowercase method name for others.
// Entity is derived from the service name (e.g. LeadService -> lead).
func ParseFullMethod(fullMethod string) MethodAction {
	switch fullMethod {
	case membershipAddMember:
		return MethodAction{Action: "user_added", Entity: "user"}
	case membershipRemoveMember:
		return MethodAction{Action: "user_removed", Entity: "user"}
	case membershipUpdateRole:
		return MethodAction{Action: "role_changed", Entity: "user"}
	}
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return MethodAction{Action: "unknown", Entity: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return MethodAction{Action: strings.ToLower(method), Entity: "unknown"}
	}
	return MethodAction{Action: methodToAction(method), Entity: serviceToEntity(beforeSlash[dot+1:])}
}

// Mutating reports whether the action changes state. Reads are not audited unless denied.
func (m MethodAction) Mutating() bool {
	switch m.Action {
	case "get", "list", "check", "unknown":
		return false
	}
	return true
}

func serviceToEntity(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Check"):
		return "check"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"):
		return "update"
	case strings.HasPrefix(method, "Delete"):
		return "delete"
	case strings.HasPrefix(method, "Add"):
		return "add"
	case strings.HasPrefix(method, "Remove"):
		return "remove"
	case strings.HasPrefix(method, "Suspend"):
		return "suspend"
	case strings.HasPrefix(method, "Invite"):
		return "invite"
	default:
		return strings.ToLower(method)
	}
}
