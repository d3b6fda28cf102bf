// Package session owns the per-session authorization state: the resolved user, scope,
// organization and materialized permission set, published as one immutable snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"sdr-juridico/backend/internal/identity"
	"sdr-juridico/backend/internal/logging"
	orgdomain "sdr-juridico/backend/internal/organization/domain"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/scope"
	userdomain "sdr-juridico/backend/internal/user/domain"
)

// State is the observable resolution state of a session.
type State int

const (
	// StatePending means resolution has not completed yet. Guards report it instead of denying.
	StatePending State = iota
	// StateReady means the snapshot holds a complete resolution (possibly unauthenticated).
	StateReady
	// StateFailed means a provider failed; Snapshot.Err holds the cause.
	StateFailed
	// StateClosed means the session was signed out. It never leaves this state.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	// ErrBootstrap wraps provider failures during resolution.
	ErrBootstrap = errors.New("session: bootstrap failed")
	// ErrClosed is returned when bootstrapping a closed session.
	ErrClosed = errors.New("session: closed")
	// ErrStale is returned when a resolution finished after the session was closed; its result is discarded.
	ErrStale = errors.New("session: resolution discarded")
	// ErrSubjectMismatch is returned when the resolved user does not own the session.
	ErrSubjectMismatch = errors.New("session: user does not own this session")
)

// Snapshot is one complete, immutable resolution. Readers get either the previous or the next
// snapshot, never a mix.
type Snapshot struct {
	State State
	// User is nil when the request is unauthenticated.
	User        *userdomain.User
	Scope       scope.Scope
	Org         *orgdomain.Org
	Permissions *permission.Set
	Err         error
	ResolvedAt  time.Time
	Generation  uint64
}

// Authenticated reports whether the snapshot carries a user.
func (s *Snapshot) Authenticated() bool { return s != nil && s.User != nil }

// Ready reports whether the snapshot is a completed resolution.
func (s *Snapshot) Ready() bool { return s != nil && s.State == StateReady }

// ScopeResolver resolves a user's organization scope.
type ScopeResolver interface {
	Resolve(ctx context.Context, u *userdomain.User) (scope.Scope, error)
}

// OrgGetter loads an organization by id; (nil, nil) when not found.
type OrgGetter interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// Deps are the collaborators a session resolves against.
type Deps struct {
	Identity identity.Provider
	Scopes   ScopeResolver
	Orgs     OrgGetter
	Log      logrus.FieldLogger
	// Timeout bounds one bootstrap. Zero means no bound.
	Timeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is the explicit authorization session passed to evaluators and guards.
type Session struct {
	id     string
	userID string
	deps   Deps
	log    logrus.FieldLogger

	snap   atomic.Pointer[Snapshot]
	gen    atomic.Uint64
	closed atomic.Bool
	group  singleflight.Group

	mu     sync.Mutex // serializes publish and Close; guards notify
	notify chan struct{}
}

// New returns a pending session. userID, when set, must match the resolved user.
func New(id, userID string, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Session{
		id:     id,
		userID: userID,
		deps:   deps,
		log:    logging.Component(deps.Log, "session").WithField("session_id", id),
		notify: make(chan struct{}),
	}
	s.snap.Store(&Snapshot{State: StatePending})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the user the session was opened for.
func (s *Session) UserID() string { return s.userID }

// Snapshot returns the current snapshot. Never nil.
func (s *Session) Snapshot() *Snapshot { return s.snap.Load() }

// State returns the current state.
func (s *Session) State() State { return s.Snapshot().State }

// Bootstrap resolves user, scope, organization and permission set in that order and publishes
// the result atomically. Concurrent calls share one resolution. Cancelling ctx does not abort a
// shared resolution; Deps.Timeout bounds it instead.
func (s *Session) Bootstrap(ctx context.Context) (*Snapshot, error) {
	if s.closed.Load() {
		return s.Snapshot(), ErrClosed
	}
	return s.run(ctx, s.gen.Load())
}

// Refresh starts a new generation and resolves it, for call sites reacting to membership or role
// changes. A resolution already in flight belongs to the previous generation and is discarded,
// so the returned snapshot never predates the call. The snapshot is replaced wholesale.
func (s *Session) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return s.Snapshot(), ErrClosed
	}
	gen := s.gen.Add(1)
	s.mu.Unlock()
	return s.run(ctx, gen)
}

func (s *Session) run(ctx context.Context, gen uint64) (*Snapshot, error) {
	v, err, _ := s.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return s.resolve(context.WithoutCancel(ctx), gen)
	})
	snap, _ := v.(*Snapshot)
	if snap == nil {
		snap = s.Snapshot()
	}
	return snap, err
}

// Ensure returns a ready snapshot, starting a bootstrap when the session is pending or failed and
// waiting at most bound for it. A resolution still running after bound yields the current
// (pending) snapshot instead of blocking.
func (s *Session) Ensure(ctx context.Context, bound time.Duration) *Snapshot {
	snap := s.Snapshot()
	if snap.State == StateReady || snap.State == StateClosed {
		return snap
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Bootstrap(ctx); err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, ErrClosed) {
			s.log.WithError(err).Warn("session bootstrap failed")
		}
	}()
	var timeout <-chan time.Time
	if bound > 0 {
		t := time.NewTimer(bound)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-done:
	case <-timeout:
	case <-ctx.Done():
	}
	return s.Snapshot()
}

// WaitReady blocks until the session leaves StatePending, bound elapses, or ctx is done, and
// returns the snapshot at that point.
func (s *Session) WaitReady(ctx context.Context, bound time.Duration) *Snapshot {
	var timeout <-chan time.Time
	if bound > 0 {
		t := time.NewTimer(bound)
		defer t.Stop()
		timeout = t.C
	}
	for {
		s.mu.Lock()
		snap, ch := s.snap.Load(), s.notify
		s.mu.Unlock()
		if snap.State != StatePending {
			return snap
		}
		select {
		case <-ch:
		case <-timeout:
			return s.Snapshot()
		case <-ctx.Done():
			return s.Snapshot()
		}
	}
}

// Close signs the session out. In-flight resolutions are discarded when they finish.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return
	}
	gen := s.gen.Add(1)
	s.snap.Store(&Snapshot{State: StateClosed, Generation: gen, ResolvedAt: s.deps.Now()})
	s.broadcastLocked()
}

func (s *Session) resolve(ctx context.Context, gen uint64) (*Snapshot, error) {
	if s.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
	}
	next, err := s.load(ctx)
	next.Generation = gen
	next.ResolvedAt = s.deps.Now()
	if !s.publish(gen, next) {
		return s.Snapshot(), ErrStale
	}
	return next, err
}

// load runs the three awaited steps sequentially. It never publishes.
func (s *Session) load(ctx context.Context) (*Snapshot, error) {
	if s.deps.Identity == nil || s.deps.Scopes == nil {
		return failed(fmt.Errorf("%w: session dependencies not configured", ErrBootstrap))
	}
	u, err := s.deps.Identity.CurrentUser(ctx)
	if err != nil {
		return failed(fmt.Errorf("%w: identity: %w", ErrBootstrap, err))
	}
	if u == nil {
		return &Snapshot{State: StateReady, Permissions: permission.NewSet("")}, nil
	}
	if s.userID != "" && u.ID != s.userID {
		return failed(ErrSubjectMismatch)
	}

	sc, err := s.deps.Scopes.Resolve(ctx, u)
	if err != nil {
		return failed(fmt.Errorf("%w: scope: %w", ErrBootstrap, err))
	}

	var org *orgdomain.Org
	if sc.HasOrg() && s.deps.Orgs != nil {
		org, err = s.deps.Orgs.GetOrganizationByID(ctx, sc.ActiveOrgID)
		if err != nil {
			return failed(fmt.Errorf("%w: organization: %w", ErrBootstrap, err))
		}
	}

	return &Snapshot{
		State:       StateReady,
		User:        u,
		Scope:       sc,
		Org:         org,
		Permissions: permission.NewSet(sc.Role),
	}, nil
}

func failed(err error) (*Snapshot, error) {
	return &Snapshot{State: StateFailed, Err: err, Permissions: permission.NewSet("")}, err
}

// publish swaps next in unless the session was closed or moved to a newer generation.
func (s *Session) publish(gen uint64, next *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.gen.Load() != gen {
		return false
	}
	s.snap.Store(next)
	s.broadcastLocked()
	return true
}

func (s *Session) broadcastLocked() {
	close(s.notify)
	s.notify = make(chan struct{})
}
