// Package guard composes access policies into ordered pipelines with a tri-state outcome.
package guard

import (
	"errors"
	"fmt"
	"strings"
)

// State is the outcome of a guard.
type State int

const (
	// StatePending means the inputs are not resolved yet. Callers wait or report it; they never redirect.
	StatePending State = iota
	StateAllowed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAllowed:
		return "allowed"
	case StateDenied:
		return "denied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Cause classifies a non-allowed decision.
type Cause string

const (
	CauseNone             Cause = ""
	CauseUnauthenticated  Cause = "unauthenticated"
	CauseNoOrganization   Cause = "no_organization"
	CauseSuspended        Cause = "organization_suspended"
	CauseNotOperator      Cause = "not_platform_operator"
	CauseNotOrgAdmin      Cause = "not_org_admin"
	CauseForbidden        Cause = "permission_denied"
	CauseMisconfigured    Cause = "misconfigured"
	CauseResolutionFailed Cause = "resolution_failed"
	CauseSessionClosed    Cause = "session_closed"
)

// Default redirect targets.
const (
	PathLogin          = "/login"
	PathUnauthorized   = "/unauthorized"
	PathDashboard      = "/dashboard"
	PathOrgSuspended   = "/org-suspended"
	PathNoOrganization = "/no-organization"
)

// ErrNoCriteria is the configuration error of a permission guard built without criteria.
var ErrNoCriteria = errors.New("guard: no permission criteria")

// DispositionKind says what the caller does with a denial.
type DispositionKind int

const (
	DispositionNone DispositionKind = iota
	DispositionRedirect
	DispositionFallback
)

// Disposition is the denial handling contract: redirect to Target, or render the caller's Fallback.
type Disposition struct {
	Kind     DispositionKind
	Target   string
	Fallback string
}

// Decision is one guard or pipeline outcome.
type Decision struct {
	State       State
	Cause       Cause
	Reason      string
	Disposition Disposition
	// Guard names the guard that produced a non-allowed decision.
	Guard string
	// Err is set for resolution failures and configuration errors.
	Err error
}

// Allowed reports whether the decision allows access.
func (d Decision) Allowed() bool { return d.State == StateAllowed }

// Denied reports whether the decision denies access.
func (d Decision) Denied() bool { return d.State == StateDenied }

// Pending reports whether the decision is still undetermined.
func (d Decision) Pending() bool { return d.State == StatePending }

func (d Decision) String() string {
	var b strings.Builder
	b.WriteString(d.State.String())
	if d.Cause != CauseNone {
		fmt.Fprintf(&b, "(%s)", d.Cause)
	}
	switch d.Disposition.Kind {
	case DispositionRedirect:
		fmt.Fprintf(&b, " -> %s", d.Disposition.Target)
	case DispositionFallback:
		b.WriteString(" -> fallback")
	}
	if d.Reason != "" {
		fmt.Fprintf(&b, ": %s", d.Reason)
	}
	return b.String()
}

func allow() Decision { return Decision{State: StateAllowed} }

func pending(cause Cause, reason string, err error) Decision {
	return Decision{State: StatePending, Cause: cause, Reason: reason, Err: err}
}
