package repository

import (
	"context"

	"sdr-juridico/backend/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetMembershipByID(ctx context.Context, id string) (*domain.Membership, error)
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	// ListActiveMembershipsByUser returns the user's active memberships ordered by created_at ascending.
	// The ordering decides which organization a session works in.
	ListActiveMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
	ListMembershipsByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) (*domain.Membership, error)
	SetActive(ctx context.Context, userID, orgID string, active bool) (*domain.Membership, error)
}
