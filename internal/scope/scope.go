// Package scope resolves which organization a user acts within and with which role.
package scope

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"sdr-juridico/backend/internal/logging"
	membershipdomain "sdr-juridico/backend/internal/membership/domain"
	orgdomain "sdr-juridico/backend/internal/organization/domain"
	"sdr-juridico/backend/internal/permission"
	userdomain "sdr-juridico/backend/internal/user/domain"
)

var (
	// ErrResolution wraps membership or organization provider failures. Callers may retry;
	// it never means "operator" or "no organization".
	ErrResolution = errors.New("scope: resolution failed")
	// ErrNoUser is returned when asked to resolve a nil user.
	ErrNoUser = errors.New("scope: no user")
	// ErrCrossOrg is returned by ResolveExplicit when a non-operator targets an organization
	// other than its active one.
	ErrCrossOrg = errors.New("scope: operation not allowed on another organization")
	// ErrOrgNotFound is returned by ResolveExplicit when an operator targets an unknown organization.
	ErrOrgNotFound = errors.New("scope: organization not found")
)

// Scope is a determined resolution result. The pending state is never represented by a Scope;
// see session.State.
type Scope struct {
	UserID             string
	ActiveOrgID        string
	IsPlatformOperator bool
	// Role is the core role. Empty when the membership carries an unrecognized role, which
	// grants nothing.
	Role permission.Role
	// MemberRole is the role stored on the selected membership row.
	MemberRole membershipdomain.Role
}

// HasOrg reports whether an active organization was selected.
func (s Scope) HasOrg() bool { return s.ActiveOrgID != "" }

// MembershipLister lists a user's active memberships ordered by creation time ascending.
type MembershipLister interface {
	ListActiveMembershipsByUser(ctx context.Context, userID string) ([]*membershipdomain.Membership, error)
}

// OrgGetter loads an organization by id; (nil, nil) when not found.
type OrgGetter interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// Resolver implements Resolve and ResolveExplicit over the membership and organization stores.
type Resolver struct {
	memberships MembershipLister
	orgs        OrgGetter
	log         logrus.FieldLogger
}

// NewResolver returns a Resolver. orgs may be nil when explicit operator targets are not used.
func NewResolver(memberships MembershipLister, orgs OrgGetter, log logrus.FieldLogger) *Resolver {
	return &Resolver{memberships: memberships, orgs: orgs, log: logging.Component(log, "scope")}
}

// Resolve determines the user's scope. Operators get no active org. Otherwise the earliest-created
// active membership wins; none yields a determined-empty scope. Provider errors are wrapped with
// ErrResolution and returned.
func (r *Resolver) Resolve(ctx context.Context, u *userdomain.User) (Scope, error) {
	if u == nil {
		return Scope{}, ErrNoUser
	}
	if u.IsPlatformOperator {
		return Scope{UserID: u.ID, IsPlatformOperator: true, Role: permission.RolePlatformOperator}, nil
	}

	list, err := r.memberships.ListActiveMembershipsByUser(ctx, u.ID)
	if err != nil {
		return Scope{}, fmt.Errorf("%w: list memberships for user %s: %w", ErrResolution, u.ID, err)
	}
	m := earliestActive(list)
	if m == nil {
		return Scope{UserID: u.ID}, nil
	}

	s := Scope{UserID: u.ID, ActiveOrgID: m.OrgID, MemberRole: m.Role}
	role, err := permission.RoleFromMemberRole(string(m.Role))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"user_id":     u.ID,
			"org_id":      m.OrgID,
			"member_role": m.Role,
		}).Warn("membership carries an unrecognized role; denying all permissions")
		return s, nil
	}
	s.Role = role
	return s, nil
}

// ResolveExplicit resolves the scope for an explicitly targeted organization (e.g. from request
// metadata). Operators may target any existing organization. Non-operators may only target their
// active organization; anything else is ErrCrossOrg. An empty orgID is the same as Resolve.
func (r *Resolver) ResolveExplicit(ctx context.Context, u *userdomain.User, orgID string) (Scope, error) {
	if orgID == "" {
		return r.Resolve(ctx, u)
	}
	if u == nil {
		return Scope{}, ErrNoUser
	}
	if u.IsPlatformOperator {
		if r.orgs != nil {
			org, err := r.orgs.GetOrganizationByID(ctx, orgID)
			if err != nil {
				return Scope{}, fmt.Errorf("%w: load organization %s: %w", ErrResolution, orgID, err)
			}
			if org == nil {
				return Scope{}, fmt.Errorf("%w: %s", ErrOrgNotFound, orgID)
			}
		}
		return Scope{UserID: u.ID, ActiveOrgID: orgID, IsPlatformOperator: true, Role: permission.RolePlatformOperator}, nil
	}
	s, err := r.Resolve(ctx, u)
	if err != nil {
		return Scope{}, err
	}
	if s.ActiveOrgID != orgID {
		return Scope{}, ErrCrossOrg
	}
	return s, nil
}

// earliestActive picks the first active membership by created_at, then id. The store already
// orders rows; the stable re-sort keeps the outcome independent of adapter ordering.
func earliestActive(list []*membershipdomain.Membership) *membershipdomain.Membership {
	active := make([]*membershipdomain.Membership, 0, len(list))
	for _, m := range list {
		if m != nil && m.Active && m.OrgID != "" {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})
	return active[0]
}
