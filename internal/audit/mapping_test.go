package audit

import "testing"

func TestParseFullMethod(t *testing.T) {
	tests := []struct {
		method   string
		action   string
		entity   string
		mutating bool
	}{
		{"/sdr.lead.v1.LeadService/GetLead", "get", "lead", false},
		{"/sdr.lead.v1.LeadService/ListLeads", "list", "lead", false},
		{"/sdr.case.v1.CaseService/CreateCase", "create", "case", true},
		{"/sdr.case.v1.CaseService/UpdateCase", "update", "case", true},
		{"/sdr.document.v1.DocumentService/DeleteDocument", "delete", "document", true},
		{"/sdr.membership.v1.MembershipService/AddMember", "user_added", "user", true},
		{"/sdr.membership.v1.MembershipService/RemoveMember", "user_removed", "user", true},
		{"/sdr.membership.v1.MembershipService/UpdateRole", "role_changed", "user", true},
		{"/sdr.organization.v1.OrganizationService/SuspendOrganization", "suspend", "organization", true},
		{"/sdr.authz.v1.AuthzService/CheckPermission", "check", "authz", false},
		{"/sdr.user.v1.UserService/InviteUser", "invite", "user", true},
		{"/sdr.user.v1.UserService/Reactivate", "reactivate", "user", true},
		{"SomeService/SomeMethod", "somemethod", "unknown", true},
		{"invalid-format", "unknown", "unknown", false},
		{"/sdr.x.v1.Service/Get", "get", "unknown", false},
	}
	for _, tt := range tests {
		got := ParseFullMethod(tt.method)
		if got.Action != tt.action {
			t.Errorf("ParseFullMethod(%q).Action = %q, want %q", tt.method, got.Action, tt.action)
		}
		if got.Entity != tt.entity {
			t.Errorf("ParseFullMethod(%q).Entity = %q, want %q", tt.method, got.Entity, tt.entity)
		}
		if got.Mutating() != tt.mutating {
			t.Errorf("ParseFullMethod(%q).Mutating() = %v, want %v", tt.method, got.Mutating(), tt.mutating)
		}
	}
}
