package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"sdr-juridico/backend/internal/identity"
	membershipdomain "sdr-juridico/backend/internal/membership/domain"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/policy/engine"
	"sdr-juridico/backend/internal/scope"
	"sdr-juridico/backend/internal/session"
	userdomain "sdr-juridico/backend/internal/user/domain"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type memberships struct {
	rows []*membershipdomain.Membership
	err  error
}

func (m *memberships) ListActiveMembershipsByUser(_ context.Context, userID string) ([]*membershipdomain.Membership, error) {
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

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }
func (failingEngine) Decide(context.Context, engine.Input) (bool, error) {
	return false, errors.New("engine down")
}

type fixture struct {
	user    *userdomain.User
	members *memberships
	sess    *session.Session
	ev      *Evaluator
	hook    *test.Hook
}

func newFixture(t *testing.T, u *userdomain.User, rows ...*membershipdomain.Membership) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	ms := &memberships{rows: rows}
	resolver := scope.NewResolver(ms, nil, logger)
	id := identity.Static(u)
	userID := ""
	if u != nil {
		userID = u.ID
	}
	sess := session.New("s1", userID, session.Deps{Identity: id, Scopes: resolver, Log: logger})
	_, err := sess.Bootstrap(context.Background())
	require.NoError(t, err)
	return &fixture{
		user:    u,
		members: ms,
		sess:    sess,
		ev:      New(sess, Deps{Identity: id, Scopes: resolver, Log: logger}),
		hook:    hook,
	}
}

func membership(id, orgID string, role membershipdomain.Role, active bool, at time.Time) *membershipdomain.Membership {
	return &membershipdomain.Membership{ID: id, UserID: "u1", OrgID: orgID, Role: role, Active: active, CreatedAt: at}
}

func TestCanSync_OutsideCatalogDenied(t *testing.T) {
	roles := map[permission.Role]membershipdomain.Role{
		permission.RoleOrgAdmin: membershipdomain.RoleAdmin,
		permission.RoleUser:     membershipdomain.RoleLeitura,
	}
	for role, memberRole := range roles {
		f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", memberRole, true, t0))
		set := permission.NewSet(role)
		for _, res := range permission.Resources() {
			for _, act := range permission.Actions() {
				assert.Equal(t, set.Allows(res, act), f.ev.CanSync(res, act), "%s %s:%s", role, res, act)
			}
		}
	}
}

func TestCanSync_ManageImpliesCreateAndDelete(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleGestor, true, t0))
	for _, p := range permission.PermissionsForRole(permission.RoleOrgAdmin) {
		if p.Action != permission.ActionManage {
			continue
		}
		assert.True(t, f.ev.CanSync(p.Resource, permission.ActionCreate), p.Resource)
		assert.True(t, f.ev.CanSync(p.Resource, permission.ActionDelete), p.Resource)
	}
}

func TestCanSync_OperatorAlwaysAllowed(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "op", IsPlatformOperator: true})
	for _, res := range permission.Resources() {
		for _, act := range permission.Actions() {
			assert.True(t, f.ev.CanSync(res, act))
		}
	}
	assert.True(t, f.ev.IsPlatformOperator())
	assert.False(t, f.ev.IsOrgAdmin())
	assert.Len(t, f.ev.Permissions(), len(permission.Resources()))
}

func TestScenario_UserWithThreeMemberships(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "u1"},
		membership("m1", "org-1", membershipdomain.RoleAdvogado, false, t0),
		membership("m2", "org-2", membershipdomain.RoleAdvogado, true, t0.Add(time.Hour)),
		membership("m3", "org-3", membershipdomain.RoleAdvogado, false, t0.Add(2*time.Hour)),
	)
	snap := f.ev.Snapshot()
	assert.Equal(t, "org-2", snap.Scope.ActiveOrgID)
	assert.False(t, f.ev.CanSync(permission.ResourceCases, permission.ActionDelete))
	assert.True(t, f.ev.CanSync(permission.ResourceAgenda, permission.ActionDelete))
}

func TestCanSync_NotReadyDenies(t *testing.T) {
	sess := session.New("s1", "u1", session.Deps{})
	ev := New(sess, Deps{})
	assert.False(t, ev.CanSync(permission.ResourceCases, permission.ActionRead))
	assert.Nil(t, ev.Permissions())

	sess.Close()
	assert.False(t, ev.CanSync(permission.ResourceCases, permission.ActionRead))
}

func TestCanSync_UnauthenticatedDenies(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.ev.CanSync(permission.ResourceOrganizations, permission.ActionRead))
}

func TestCanSync_EmptyCriteriaDeniesAndWarns(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "op", IsPlatformOperator: true})
	f.hook.Reset()

	assert.False(t, f.ev.CanSync("", permission.ActionRead))
	assert.False(t, f.ev.CanSync(permission.ResourceCases, ""))
	require.NotNil(t, f.hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
}

func TestAllAny(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleSecretaria, true, t0))
	readCases := permission.New(permission.ResourceCases, permission.ActionRead)
	deleteCases := permission.New(permission.ResourceCases, permission.ActionDelete)
	readBilling := permission.New(permission.ResourceBilling, permission.ActionRead)

	assert.True(t, f.ev.All(readCases))
	assert.False(t, f.ev.All(readCases, deleteCases))
	assert.True(t, f.ev.Any(deleteCases, readCases))
	assert.False(t, f.ev.Any(deleteCases, readBilling))

	f.hook.Reset()
	assert.False(t, f.ev.All())
	assert.False(t, f.ev.Any())
	assert.Len(t, f.hook.AllEntries(), 2)
}

func TestCheck_Reasons(t *testing.T) {
	ctx := context.Background()

	unauth := newFixture(t, nil)
	res, err := unauth.ev.Check(ctx, permission.ResourceCases, permission.ActionRead)
	require.NoError(t, err)
	assert.Equal(t, PermissionResult{Reason: ReasonNotAuthenticated}, res)

	orphan := newFixture(t, &userdomain.User{ID: "u1"})
	res, err = orphan.ev.Check(ctx, permission.ResourceCases, permission.ActionRead)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoOrganization, res.Reason)

	member := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleAdvogado, true, t0))
	res, err = member.ev.Check(ctx, permission.ResourceCases, permission.ActionDelete)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "role user lacks delete on cases", res.Reason)

	res, err = member.ev.Check(ctx, permission.ResourceCases, permission.ActionUpdate)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = member.ev.CheckTarget(ctx, permission.ResourceCases, permission.ActionRead, "org-9")
	require.NoError(t, err)
	assert.Equal(t, ReasonCrossOrg, res.Reason)

	unknown := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", "estagiario", true, t0))
	res, err = unknown.ev.Check(ctx, permission.ResourceCases, permission.ActionRead)
	require.NoError(t, err)
	assert.Equal(t, ReasonUnknownRole, res.Reason)

	op := newFixture(t, &userdomain.User{ID: "op", IsPlatformOperator: true})
	res, err = op.ev.CheckTarget(ctx, permission.ResourceBilling, permission.ActionDelete, "org-9")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheck_ResolutionFailureIsError(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleAdmin, true, t0))
	f.members.err = errors.New("membership store unavailable")

	allowed, err := f.ev.Can(context.Background(), permission.ResourceCases, permission.ActionRead)
	require.ErrorIs(t, err, scope.ErrResolution)
	assert.False(t, allowed)

	failing := identity.ProviderFunc(func(context.Context) (*userdomain.User, error) { return nil, errors.New("idp down") })
	ev := New(f.sess, Deps{Identity: failing, Scopes: scope.NewResolver(f.members, nil, nil)})
	_, err = ev.Check(context.Background(), permission.ResourceCases, permission.ActionRead)
	assert.Error(t, err)
}

func TestCheck_FreshPathSeesRoleChange(t *testing.T) {
	row := membership("m1", "org-1", membershipdomain.RoleLeitura, true, t0)
	f := newFixture(t, &userdomain.User{ID: "u1"}, row)
	assert.False(t, f.ev.CanSync(permission.ResourceCases, permission.ActionDelete))

	row.Role = membershipdomain.RoleAdmin

	assert.False(t, f.ev.CanSync(permission.ResourceCases, permission.ActionDelete), "snapshot is unchanged until refresh")
	allowed, err := f.ev.Can(context.Background(), permission.ResourceCases, permission.ActionDelete)
	require.NoError(t, err)
	assert.True(t, allowed)

	_, err = f.sess.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, f.ev.CanSync(permission.ResourceCases, permission.ActionDelete))
	assert.True(t, f.ev.IsOrgAdmin())
}

func TestCheck_EngineFailureDenies(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleAdmin, true, t0))
	ev := New(f.sess, Deps{Identity: identity.Static(f.user), Scopes: scope.NewResolver(f.members, nil, nil), Engine: failingEngine{}})

	res, err := ev.Check(context.Background(), permission.ResourceCases, permission.ActionRead)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonEngineFailure, res.Reason)
}

func TestCheck_EmptyCriteria(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "op", IsPlatformOperator: true})
	res, err := f.ev.Check(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, PermissionResult{Reason: ReasonInvalidCriteria}, res)
}

func TestRequire(t *testing.T) {
	f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleAdvogado, true, t0))
	ctx := context.Background()

	assert.NoError(t, f.ev.Require(ctx, permission.ResourceLeads, permission.ActionCreate))

	err := f.ev.Require(ctx, permission.ResourceBilling, permission.ActionRead)
	require.ErrorIs(t, err, ErrDenied)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, permission.New(permission.ResourceBilling, permission.ActionRead), denied.Permission)
	assert.Contains(t, denied.Error(), "billing:read")
}

func TestDecisionCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	f := newFixture(t, &userdomain.User{ID: "u1"}, membership("m1", "org-1", membershipdomain.RoleAdvogado, true, t0))
	ev := New(f.sess, Deps{Meter: provider.Meter("test")})

	ev.CanSync(permission.ResourceCases, permission.ActionRead)
	ev.CanSync(permission.ResourceCases, permission.ActionDelete)
	ev.CanSync(permission.ResourceCases, permission.ActionDelete)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, sum.DataPoints, 2)
}
