package domain

import (
	"errors"
	"time"
)

// Org represents an organization/tenant.
type Org struct {
	ID        string
	Name      string
	Status    OrgStatus
	Plan      OrgPlan
	CreatedAt time.Time
}

type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusTrial     OrgStatus = "trial"
	OrgStatusSuspended OrgStatus = "suspended"
	OrgStatusPending   OrgStatus = "pending"
	OrgStatusCancelled OrgStatus = "cancelled"
)

// Valid reports whether s is a known lifecycle status.
func (s OrgStatus) Valid() bool {
	switch s {
	case OrgStatusActive, OrgStatusTrial, OrgStatusSuspended, OrgStatusPending, OrgStatusCancelled:
		return true
	}
	return false
}

// Operational reports whether non-operator members may use org-scoped features.
// Trial organizations are operational; suspended, pending and cancelled ones are not.
func (s OrgStatus) Operational() bool {
	return s == OrgStatusActive || s == OrgStatusTrial
}

type OrgPlan string

const (
	OrgPlanTrial        OrgPlan = "trial"
	OrgPlanBasic        OrgPlan = "basic"
	OrgPlanProfessional OrgPlan = "professional"
	OrgPlanEnterprise   OrgPlan = "enterprise"
)

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	if !o.Status.Valid() {
		return errors.New("status is invalid")
	}
	if o.Plan == "" {
		o.Plan = OrgPlanTrial
	}
	return nil
}

// IsOperational reports whether the organization's status lets members work in it.
func (o *Org) IsOperational() bool {
	return o != nil && o.Status.Operational()
}
