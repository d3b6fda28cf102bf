package guard

import (
	"context"
	"fmt"

	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/session"
)

// Evaluator is what guards read. *authz.Evaluator implements it.
type Evaluator interface {
	Snapshot() *session.Snapshot
	CanSync(resource permission.Resource, action permission.Action) bool
	All(perms ...permission.Permission) bool
	Any(perms ...permission.Permission) bool
}

// Guard is one access policy.
type Guard interface {
	Name() string
	Evaluate(ctx context.Context, ev Evaluator) Decision
}

type guardFunc struct {
	name string
	fn   func(ctx context.Context, ev Evaluator, snap *session.Snapshot) Decision
}

func (g guardFunc) Name() string { return g.name }

// Evaluate settles the shared states (pending, failed, closed, unauthenticated) before
// running the policy itself.
func (g guardFunc) Evaluate(ctx context.Context, ev Evaluator) Decision {
	if ev == nil {
		return pending(CauseNone, "no evaluator", nil)
	}
	snap := ev.Snapshot()
	if d, done := settle(g.name, snap); done {
		return d
	}
	return g.fn(ctx, ev, snap)
}

func settle(name string, snap *session.Snapshot) (Decision, bool) {
	if snap == nil {
		return pending(CauseNone, "session not resolved", nil), true
	}
	switch snap.State {
	case session.StatePending:
		return pending(CauseNone, "session not resolved", nil), true
	case session.StateFailed:
		return pending(CauseResolutionFailed, "session resolution failed", snap.Err), true
	case session.StateClosed:
		return loginDenial(name, CauseSessionClosed, "session closed"), true
	}
	if !snap.Authenticated() {
		return loginDenial(name, CauseUnauthenticated, "not authenticated"), true
	}
	return Decision{}, false
}

func loginDenial(name string, cause Cause, reason string) Decision {
	return Decision{
		State:       StateDenied,
		Cause:       cause,
		Reason:      reason,
		Guard:       name,
		Disposition: Disposition{Kind: DispositionRedirect, Target: PathLogin},
	}
}

// PlatformOperator allows only platform operators. Denials default to PathDashboard.
func PlatformOperator(opts ...Option) Guard {
	o := newOptions(opts)
	const name = "platform_operator"
	return guardFunc{name: name, fn: func(_ context.Context, _ Evaluator, snap *session.Snapshot) Decision {
		if snap.Scope.IsPlatformOperator {
			return allow()
		}
		return o.deny(name, CauseNotOperator, "platform operator required", PathDashboard)
	}}
}

// OrgAdmin allows the org_admin role, and platform operators unless WithoutOperatorBypass is set.
// Denials default to PathDashboard.
func OrgAdmin(opts ...Option) Guard {
	o := newOptions(opts)
	const name = "org_admin"
	return guardFunc{name: name, fn: func(_ context.Context, _ Evaluator, snap *session.Snapshot) Decision {
		if o.bypass && snap.Scope.IsPlatformOperator {
			return allow()
		}
		if snap.Scope.HasOrg() && snap.Scope.Role == permission.RoleOrgAdmin {
			return allow()
		}
		return o.deny(name, CauseNotOrgAdmin, "organization admin required", PathDashboard)
	}}
}

// OrgActive allows members of an operational organization (active or trial), and platform
// operators unless WithoutOperatorBypass is set. No organization denies to PathNoOrganization;
// any other status denies to PathOrgSuspended.
func OrgActive(opts ...Option) Guard {
	o := newOptions(opts)
	const name = "org_active"
	return guardFunc{name: name, fn: func(_ context.Context, _ Evaluator, snap *session.Snapshot) Decision {
		if o.bypass && snap.Scope.IsPlatformOperator {
			return allow()
		}
		if !snap.Scope.HasOrg() || snap.Org == nil {
			return o.deny(name, CauseNoOrganization, "no organization assigned", PathNoOrganization)
		}
		if snap.Org.IsOperational() {
			return allow()
		}
		return o.deny(name, CauseSuspended, fmt.Sprintf("organization is %s", snap.Org.Status), PathOrgSuspended)
	}}
}

// Permission allows when the criteria pass the evaluator's sync check. Empty criteria are a
// configuration error: the guard denies and logs a warning. Denials default to PathUnauthorized.
func Permission(c Criteria, opts ...Option) Guard {
	o := newOptions(opts)
	const name = "permission"
	return guardFunc{name: name, fn: func(_ context.Context, ev Evaluator, _ *session.Snapshot) Decision {
		if c.Empty() {
			o.log.WithField("criteria", c.Kind().String()).Warn("permission guard has no criteria; denying")
			d := o.deny(name, CauseMisconfigured, ErrNoCriteria.Error(), PathUnauthorized)
			d.Err = ErrNoCriteria
			return d
		}
		var ok bool
		switch c.Kind() {
		case CriteriaSingle:
			ok = ev.CanSync(c.single.Resource, c.single.Action)
		case CriteriaPair:
			ok = ev.CanSync(c.resource, c.action)
		case CriteriaAllOf:
			ok = ev.All(c.list...)
		case CriteriaAnyOf:
			ok = ev.Any(c.list...)
		}
		if ok {
			return allow()
		}
		return o.deny(name, CauseForbidden, fmt.Sprintf("missing %s permission %v", c.Kind(), c.Permissions()), PathUnauthorized)
	}}
}
