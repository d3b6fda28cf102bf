// Package authz answers permission questions for one session: synchronously from the
// session's materialized snapshot, or freshly by re-resolving identity and scope.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sdr-juridico/backend/internal/identity"
	"sdr-juridico/backend/internal/logging"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/policy/engine"
	"sdr-juridico/backend/internal/scope"
	"sdr-juridico/backend/internal/session"
	userdomain "sdr-juridico/backend/internal/user/domain"
)

// Denial reasons returned by Check.
const (
	ReasonNotAuthenticated = "not authenticated"
	ReasonNoOrganization   = "no active organization"
	ReasonCrossOrg         = "operation not allowed on another organization"
	ReasonUnknownRole      = "membership role is not recognized"
	ReasonInvalidCriteria  = "invalid permission criteria"
	ReasonEngineFailure    = "policy evaluation failed"
	ReasonPlatformOperator = "platform operator"
	ReasonOrgNotFound      = "organization not found"
)

// ErrDenied is matched by every *DeniedError.
var ErrDenied = errors.New("permission denied")

// PermissionResult is the outcome of a fresh check. Reason is set on denial, and on operator allow.
type PermissionResult struct {
	Allowed bool
	Reason  string
}

// DeniedError is returned by Require when the check denies.
type DeniedError struct {
	Permission permission.Permission
	Reason     string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s: %s", e.Permission, e.Reason)
}

// Is reports whether target is ErrDenied.
func (e *DeniedError) Is(target error) bool { return target == ErrDenied }

// Snapshotter exposes the current session snapshot. *session.Session implements it.
type Snapshotter interface {
	Snapshot() *session.Snapshot
}

// ScopeResolver resolves scopes for fresh checks. *scope.Resolver implements it.
type ScopeResolver interface {
	Resolve(ctx context.Context, u *userdomain.User) (scope.Scope, error)
	ResolveExplicit(ctx context.Context, u *userdomain.User, orgID string) (scope.Scope, error)
}

// Deps are the collaborators of the fresh check path.
type Deps struct {
	Identity identity.Provider
	Scopes   ScopeResolver
	// Engine decides fresh checks. Nil uses the catalog engine.
	Engine engine.Engine
	Log    logrus.FieldLogger
	// Meter records decision counters. Nil uses the global meter provider.
	Meter metric.Meter
}

// Evaluator evaluates permissions for one session. It never mutates the session.
type Evaluator struct {
	sess      Snapshotter
	deps      Deps
	log       logrus.FieldLogger
	decisions metric.Int64Counter
}

// New returns an Evaluator bound to sess.
func New(sess Snapshotter, deps Deps) *Evaluator {
	if deps.Engine == nil {
		deps.Engine = engine.NewCatalogEngine()
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter("sdr-juridico/backend/internal/authz")
	}
	counter, err := meter.Int64Counter("authz.decisions",
		metric.WithDescription("Authorization decisions by path and outcome"))
	if err != nil {
		otel.Handle(err)
	}
	return &Evaluator{
		sess:      sess,
		deps:      deps,
		log:       logging.Component(deps.Log, "authz"),
		decisions: counter,
	}
}

// Snapshot returns the session snapshot the sync path reads. Never nil.
func (e *Evaluator) Snapshot() *session.Snapshot {
	if e == nil || e.sess == nil {
		return &session.Snapshot{State: session.StatePending}
	}
	if s := e.sess.Snapshot(); s != nil {
		return s
	}
	return &session.Snapshot{State: session.StatePending}
}

// CanSync answers from the materialized snapshot. Operators are always allowed. A session that is
// not ready, unauthenticated, or invalid criteria yield false.
func (e *Evaluator) CanSync(resource permission.Resource, action permission.Action) bool {
	allowed := e.canSync(resource, action)
	e.record(context.Background(), "sync", allowed)
	return allowed
}

func (e *Evaluator) canSync(resource permission.Resource, action permission.Action) bool {
	if resource == "" || action == "" {
		e.log.WithFields(logrus.Fields{"resource": resource, "action": action}).Warn("permission check without criteria; denying")
		return false
	}
	snap := e.Snapshot()
	if !snap.Ready() || !snap.Authenticated() {
		return false
	}
	if snap.Scope.IsPlatformOperator {
		return true
	}
	return snap.Permissions.Allows(resource, action)
}

// All reports whether every permission passes CanSync, stopping at the first failure.
// An empty list is a configuration error and denies.
func (e *Evaluator) All(perms ...permission.Permission) bool {
	if len(perms) == 0 {
		e.log.Warn("All called with no permissions; denying")
		return false
	}
	for _, p := range perms {
		if !e.CanSync(p.Resource, p.Action) {
			return false
		}
	}
	return true
}

// Any reports whether at least one permission passes CanSync, stopping at the first success.
// An empty list is a configuration error and denies.
func (e *Evaluator) Any(perms ...permission.Permission) bool {
	if len(perms) == 0 {
		e.log.Warn("Any called with no permissions; denying")
		return false
	}
	for _, p := range perms {
		if e.CanSync(p.Resource, p.Action) {
			return true
		}
	}
	return false
}

// Can is Check without the reason.
func (e *Evaluator) Can(ctx context.Context, resource permission.Resource, action permission.Action) (bool, error) {
	res, err := e.Check(ctx, resource, action)
	return res.Allowed, err
}

// Check re-resolves identity, scope and role, then decides. Provider failures are returned as
// errors and never mapped to allow or deny.
func (e *Evaluator) Check(ctx context.Context, resource permission.Resource, action permission.Action) (PermissionResult, error) {
	return e.CheckTarget(ctx, resource, action, "")
}

// CheckTarget is Check against an explicitly targeted organization. Non-operators targeting an
// organization other than their active one are denied.
func (e *Evaluator) CheckTarget(ctx context.Context, resource permission.Resource, action permission.Action, targetOrgID string) (PermissionResult, error) {
	res, err := e.check(ctx, resource, action, targetOrgID)
	if err == nil {
		e.record(ctx, "fresh", res.Allowed)
	}
	return res, err
}

func (e *Evaluator) check(ctx context.Context, resource permission.Resource, action permission.Action, targetOrgID string) (PermissionResult, error) {
	if resource == "" || action == "" {
		e.log.WithFields(logrus.Fields{"resource": resource, "action": action}).Warn("permission check without criteria; denying")
		return PermissionResult{Reason: ReasonInvalidCriteria}, nil
	}
	if e.deps.Identity == nil || e.deps.Scopes == nil {
		return PermissionResult{}, errors.New("authz: fresh checks are not configured")
	}

	u, err := e.deps.Identity.CurrentUser(ctx)
	if err != nil {
		return PermissionResult{}, fmt.Errorf("authz: resolve identity: %w", err)
	}
	if u == nil {
		return PermissionResult{Reason: ReasonNotAuthenticated}, nil
	}

	sc, err := e.deps.Scopes.ResolveExplicit(ctx, u, targetOrgID)
	switch {
	case errors.Is(err, scope.ErrCrossOrg):
		return PermissionResult{Reason: ReasonCrossOrg}, nil
	case errors.Is(err, scope.ErrOrgNotFound):
		return PermissionResult{Reason: ReasonOrgNotFound}, nil
	}
	if err != nil {
		return PermissionResult{}, fmt.Errorf("authz: resolve scope: %w", err)
	}
	if sc.IsPlatformOperator {
		return PermissionResult{Allowed: true, Reason: ReasonPlatformOperator}, nil
	}
	if !sc.HasOrg() {
		return PermissionResult{Reason: ReasonNoOrganization}, nil
	}
	if sc.Role == "" {
		return PermissionResult{Reason: ReasonUnknownRole}, nil
	}

	allowed, err := e.deps.Engine.Decide(ctx, engine.Input{Role: sc.Role, Resource: resource, Action: action})
	if err != nil {
		e.log.WithError(err).WithField("engine", e.deps.Engine.Name()).Warn("policy engine failed; denying")
		return PermissionResult{Reason: ReasonEngineFailure}, nil
	}
	if !allowed {
		return PermissionResult{Reason: fmt.Sprintf("role %s lacks %s on %s", sc.Role, action, resource)}, nil
	}
	return PermissionResult{Allowed: true}, nil
}

// Require runs Check and converts a denial into *DeniedError.
func (e *Evaluator) Require(ctx context.Context, resource permission.Resource, action permission.Action) error {
	res, err := e.Check(ctx, resource, action)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &DeniedError{Permission: permission.New(resource, action), Reason: res.Reason}
	}
	return nil
}

// Permissions lists the snapshot's permissions. Operators get the operator catalog. Not-ready or
// unauthenticated sessions get none.
func (e *Evaluator) Permissions() []permission.Permission {
	snap := e.Snapshot()
	if !snap.Ready() || !snap.Authenticated() {
		return nil
	}
	if snap.Scope.IsPlatformOperator {
		return permission.PermissionsForRole(permission.RolePlatformOperator)
	}
	return snap.Permissions.List()
}

// IsPlatformOperator reports whether the ready snapshot belongs to an operator.
func (e *Evaluator) IsPlatformOperator() bool {
	snap := e.Snapshot()
	return snap.Ready() && snap.Authenticated() && snap.Scope.IsPlatformOperator
}

// IsOrgAdmin reports whether the ready snapshot holds the org_admin role in an active organization.
func (e *Evaluator) IsOrgAdmin() bool {
	snap := e.Snapshot()
	return snap.Ready() && snap.Authenticated() && snap.Scope.HasOrg() && snap.Scope.Role == permission.RoleOrgAdmin
}

func (e *Evaluator) record(ctx context.Context, path string, allowed bool) {
	if e.decisions == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	e.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("outcome", outcome),
	))
}
