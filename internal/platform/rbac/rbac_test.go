package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"sdr-juridico/backend/internal/authz"
	"sdr-juridico/backend/internal/identity"
	membershipdomain "sdr-juridico/backend/internal/membership/domain"
	orgdomain "sdr-juridico/backend/internal/organization/domain"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/scope"
	"sdr-juridico/backend/internal/server/interceptors"
	"sdr-juridico/backend/internal/session"
	userdomain "sdr-juridico/backend/internal/user/domain"
)

// mockMemberships implements scope.MembershipLister for tests.
type mockMemberships struct {
	rows []*membershipdomain.Membership
	err  error
}

func (m *mockMemberships) ListActiveMembershipsByUser(_ context.Context, userID string) ([]*membershipdomain.Membership, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*membershipdomain.Membership
	for _, r := range m.rows {
		if r.UserID == userID && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockOrgs map[string]*orgdomain.Org

func (m mockOrgs) GetOrganizationByID(_ context.Context, id string) (*orgdomain.Org, error) {
	return m[id], nil
}

var orgs = mockOrgs{
	"org-1": {ID: "org-1", Status: orgdomain.OrgStatusTrial},
	"org-2": {ID: "org-2", Status: orgdomain.OrgStatusSuspended},
}

func member(userID, orgID string, role membershipdomain.Role) *membershipdomain.Membership {
	return &membershipdomain.Membership{ID: userID + orgID, UserID: userID, OrgID: orgID, Role: role, Active: true, CreatedAt: time.Unix(0, 0)}
}

// callerCtx bootstraps a session for u and returns a call context carrying its evaluator.
func callerCtx(t *testing.T, u *userdomain.User, ms *mockMemberships) context.Context {
	t.Helper()
	id := identity.Static(u)
	resolver := scope.NewResolver(ms, orgs, nil)
	sess := session.New("s1", "", session.Deps{Identity: id, Scopes: resolver, Orgs: orgs})
	if _, err := sess.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	ev := authz.New(sess, authz.Deps{Identity: id, Scopes: resolver})
	return interceptors.WithEvaluator(context.Background(), ev)
}

func wantCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Errorf("code = %v, want %v (err=%v)", got, want, err)
	}
}

func TestRequire_NoEvaluator(t *testing.T) {
	ctx := context.Background()
	_, _, err := RequireOrgAdmin(ctx)
	wantCode(t, err, codes.Unauthenticated)
	_, err = RequirePlatformOperator(ctx)
	wantCode(t, err, codes.Unauthenticated)
	_, err = RequireActiveOrg(ctx)
	wantCode(t, err, codes.Unauthenticated)
	_, err = RequirePermission(ctx, permission.ResourceLeads, permission.ActionRead)
	wantCode(t, err, codes.Unauthenticated)
}

func TestRequire_PendingSession(t *testing.T) {
	sess := session.New("s1", "", session.Deps{})
	ctx := interceptors.WithEvaluator(context.Background(), authz.New(sess, authz.Deps{}))
	_, _, err := RequireOrgAdmin(ctx)
	wantCode(t, err, codes.Unavailable)
}

func TestRequireOrgAdmin(t *testing.T) {
	admin := callerCtx(t, &userdomain.User{ID: "u1"}, &mockMemberships{rows: []*membershipdomain.Membership{member("u1", "org-1", membershipdomain.RoleGestor)}})
	orgID, userID, err := RequireOrgAdmin(admin)
	if err != nil {
		t.Fatalf("RequireOrgAdmin: %v", err)
	}
	if orgID != "org-1" || userID != "u1" {
		t.Errorf("RequireOrgAdmin = %q, %q; want org-1, u1", orgID, userID)
	}

	user := callerCtx(t, &userdomain.User{ID: "u2"}, &mockMemberships{rows: []*membershipdomain.Membership{member("u2", "org-1", membershipdomain.RoleSecretaria)}})
	_, _, err = RequireOrgAdmin(user)
	wantCode(t, err, codes.PermissionDenied)

	anon := callerCtx(t, nil, &mockMemberships{})
	_, _, err = RequireOrgAdmin(anon)
	wantCode(t, err, codes.Unauthenticated)
}

func TestRequireOrgAdmin_OperatorGetsTargetOrg(t *testing.T) {
	op := callerCtx(t, &userdomain.User{ID: "op", IsPlatformOperator: true}, &mockMemberships{})
	op = metadata.NewIncomingContext(op, metadata.Pairs(interceptors.OrgHeader, "org-2"))
	orgID, userID, err := RequireOrgAdmin(op)
	if err != nil {
		t.Fatalf("RequireOrgAdmin: %v", err)
	}
	if orgID != "org-2" || userID != "op" {
		t.Errorf("RequireOrgAdmin = %q, %q; want org-2, op", orgID, userID)
	}
}

func TestRequirePlatformOperator(t *testing.T) {
	op := callerCtx(t, &userdomain.User{ID: "op", IsPlatformOperator: true}, &mockMemberships{})
	if id, err := RequirePlatformOperator(op); err != nil || id != "op" {
		t.Errorf("RequirePlatformOperator = %q, %v", id, err)
	}
	admin := callerCtx(t, &userdomain.User{ID: "u1"}, &mockMemberships{rows: []*membershipdomain.Membership{member("u1", "org-1", membershipdomain.RoleAdmin)}})
	_, err := RequirePlatformOperator(admin)
	wantCode(t, err, codes.PermissionDenied)
}

func TestRequireActiveOrg(t *testing.T) {
	trial := callerCtx(t, &userdomain.User{ID: "u1"}, &mockMemberships{rows: []*membershipdomain.Membership{member("u1", "org-1", membershipdomain.RoleLeitura)}})
	if orgID, err := RequireActiveOrg(trial); err != nil || orgID != "org-1" {
		t.Errorf("RequireActiveOrg(trial) = %q, %v", orgID, err)
	}

	suspended := callerCtx(t, &userdomain.User{ID: "u1"}, &mockMemberships{rows: []*membershipdomain.Membership{member("u1", "org-2", membershipdomain.RoleAdmin)}})
	_, err := RequireActiveOrg(suspended)
	wantCode(t, err, codes.FailedPrecondition)

	none := callerCtx(t, &userdomain.User{ID: "u1"}, &mockMemberships{})
	_, err = RequireActiveOrg(none)
	wantCode(t, err, codes.FailedPrecondition)

	op := callerCtx(t, &userdomain.User{ID: "op", IsPlatformOperator: true}, &mockMemberships{})
	if _, err := RequireActiveOrg(op); err != nil {
		t.Errorf("RequireActiveOrg(operator): %v", err)
	}
}

func TestRequirePermission(t *testing.T) {
	ms := &mockMemberships{rows: []*membershipdomain.Membership{member("u1", "org-1", membershipdomain.RoleAdvogado)}}
	ctx := callerCtx(t, &userdomain.User{ID: "u1"}, ms)

	if _, err := RequirePermission(ctx, permission.ResourceCases, permission.ActionUpdate); err != nil {
		t.Errorf("RequirePermission(cases:update): %v", err)
	}
	_, err := RequirePermission(ctx, permission.ResourceCases, permission.ActionDelete)
	wantCode(t, err, codes.PermissionDenied)

	cross := metadata.NewIncomingContext(ctx, metadata.Pairs(interceptors.OrgHeader, "org-2"))
	_, err = RequirePermission(cross, permission.ResourceCases, permission.ActionRead)
	wantCode(t, err, codes.PermissionDenied)

	ms.err = errors.New("db down")
	_, err = RequirePermission(ctx, permission.ResourceCases, permission.ActionRead)
	wantCode(t, err, codes.Unavailable)
}

func TestRequirePermission_OperatorUnknownOrgIsNotFound(t *testing.T) {
	op := callerCtx(t, &userdomain.User{ID: "op", IsPlatformOperator: true}, &mockMemberships{})
	missing := metadata.NewIncomingContext(op, metadata.Pairs(interceptors.OrgHeader, "org-404"))
	_, err := RequirePermission(missing, permission.ResourceCases, permission.ActionRead)
	wantCode(t, err, codes.NotFound)

	existing := metadata.NewIncomingContext(op, metadata.Pairs(interceptors.OrgHeader, "org-2"))
	if _, err := RequirePermission(existing, permission.ResourceCases, permission.ActionRead); err != nil {
		t.Errorf("RequirePermission on existing org: %v", err)
	}
}
