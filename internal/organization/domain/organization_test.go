package domain

import "testing"

func TestOrgStatus_Operational(t *testing.T) {
	testCases := []struct {
		status OrgStatus
		want   bool
	}{
		{OrgStatusActive, true},
		{OrgStatusTrial, true},
		{OrgStatusSuspended, false},
		{OrgStatusPending, false},
		{OrgStatusCancelled, false},
		{OrgStatus("archived"), false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.Operational(); got != tc.want {
				t.Errorf("Operational() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOrg_Validate(t *testing.T) {
	o := &Org{Name: "Acme"}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if o.Status != OrgStatusActive {
		t.Errorf("status = %q, want %q", o.Status, OrgStatusActive)
	}
	if o.Plan != OrgPlanTrial {
		t.Errorf("plan = %q, want %q", o.Plan, OrgPlanTrial)
	}

	if err := (&Org{}).Validate(); err == nil {
		t.Error("expected error for empty name")
	}
	if err := (&Org{Name: "Acme", Status: "archived"}).Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestOrg_IsOperational_Nil(t *testing.T) {
	var o *Org
	if o.IsOperational() {
		t.Error("nil org should not be operational")
	}
}
