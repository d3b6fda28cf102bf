package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/scope"
	userdomain "sdr-juridico/backend/internal/user/domain"
)

func TestStore_OpenReturnsSameSession(t *testing.T) {
	st := NewStore(userDeps(&userdomain.User{ID: "u1"}, scope.Scope{}, nil), 8, time.Minute)

	a, err := st.Open("s1", "u1")
	require.NoError(t, err)
	b, err := st.Open("s1", "u1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, st.Len())

	_, err = st.Open("s1", "intruder")
	assert.ErrorIs(t, err, ErrSubjectMismatch)
}

func TestStore_RemoveClosesSession(t *testing.T) {
	st := NewStore(userDeps(&userdomain.User{ID: "u1"}, scope.Scope{}, nil), 8, time.Minute)
	s, err := st.Open("s1", "u1")
	require.NoError(t, err)

	assert.True(t, st.Remove("s1"))
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, st.Remove("s1"))

	fresh, err := st.Open("s1", "u1")
	require.NoError(t, err)
	assert.NotSame(t, s, fresh)
	assert.Equal(t, StatePending, fresh.State())
}

func TestStore_EvictionClosesSession(t *testing.T) {
	st := NewStore(userDeps(&userdomain.User{ID: "u1"}, scope.Scope{}, nil), 1, time.Minute)
	first, err := st.Open("s1", "u1")
	require.NoError(t, err)
	_, err = st.Open("s2", "u1")
	require.NoError(t, err)

	assert.Equal(t, StateClosed, first.State())
	_, ok := st.Get("s1")
	assert.False(t, ok)
}

func TestStore_RefreshUser(t *testing.T) {
	scopes := &fakeScopes{scope: scope.Scope{ActiveOrgID: "org-1", Role: permission.RoleUser}}
	deps := userDeps(&userdomain.User{ID: "u1"}, scope.Scope{}, nil)
	deps.Scopes = scopes
	st := NewStore(deps, 8, time.Minute)

	s, err := st.Open("s1", "u1")
	require.NoError(t, err)
	_, err = s.Bootstrap(context.Background())
	require.NoError(t, err)
	_, err = st.Open("s2", "u2")
	require.NoError(t, err)

	scopes.set(scope.Scope{ActiveOrgID: "org-1", Role: permission.RoleOrgAdmin})
	assert.Equal(t, 1, st.RefreshUser(context.Background(), "u1"))
	assert.Equal(t, permission.RoleOrgAdmin, s.Snapshot().Permissions.Role())
}
