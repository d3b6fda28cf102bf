// Package identity supplies the authenticated user handle to the authorization core.
package identity

import (
	"context"
	"errors"
	"fmt"

	userdomain "sdr-juridico/backend/internal/user/domain"
)

// ErrLookup wraps failures of the backing user store. It is a resolution failure, not an
// authentication failure.
var ErrLookup = errors.New("identity: user lookup failed")

// Provider returns the user behind ctx. A nil user with a nil error means unauthenticated.
// Implementations must be idempotent and side-effect-free.
type Provider interface {
	CurrentUser(ctx context.Context) (*userdomain.User, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (*userdomain.User, error)

// CurrentUser calls f(ctx).
func (f ProviderFunc) CurrentUser(ctx context.Context) (*userdomain.User, error) { return f(ctx) }

// Static returns a Provider that always yields u. Used by CLIs and tests.
func Static(u *userdomain.User) Provider {
	return ProviderFunc(func(context.Context) (*userdomain.User, error) { return u, nil })
}

// UserGetter is the minimal user repository needed by RepositoryProvider.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// SubjectFunc extracts the authenticated user id from ctx (e.g. set by the auth interceptor).
type SubjectFunc func(ctx context.Context) (string, bool)

// RepositoryProvider resolves the subject in ctx against the user repository.
type RepositoryProvider struct {
	users   UserGetter
	subject SubjectFunc
}

// NewRepositoryProvider returns a provider reading the subject with subject and loading it from users.
func NewRepositoryProvider(users UserGetter, subject SubjectFunc) *RepositoryProvider {
	return &RepositoryProvider{users: users, subject: subject}
}

// CurrentUser returns the user for the subject in ctx. Missing subject, unknown user and disabled
// users are reported as unauthenticated (nil, nil). Store errors are wrapped with ErrLookup.
func (p *RepositoryProvider) CurrentUser(ctx context.Context) (*userdomain.User, error) {
	if p == nil || p.subject == nil || p.users == nil {
		return nil, nil
	}
	id, ok := p.subject(ctx)
	if !ok || id == "" {
		return nil, nil
	}
	u, err := p.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	if u == nil || u.Status == userdomain.UserStatusDisabled {
		return nil, nil
	}
	return u, nil
}
