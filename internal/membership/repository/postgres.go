package repository

import (
	"context"
	"database/sql"
	"errors"

	"sdr-juridico/backend/internal/membership/domain"
)

const membershipColumns = `id, user_id, org_id, role, active, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetMembershipByID returns the membership for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByID(ctx context.Context, id string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+membershipColumns+` FROM org_members WHERE id = $1`, id)
	return scanMembershipRow(row)
}

// GetMembershipByUserAndOrg returns the membership for the given user and org, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM org_members WHERE user_id = $1 AND org_id = $2`,
		userID, orgID)
	return scanMembershipRow(row)
}

// ListActiveMembershipsByUser returns active memberships for the user, earliest first.
// Ties on created_at are broken by id so the order is total. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListActiveMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM org_members WHERE user_id = $1 AND active = true ORDER BY created_at ASC, id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	return scanMembershipRows(rows)
}

// ListMembershipsByOrg returns all memberships for the given org. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListMembershipsByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM org_members WHERE org_id = $1 ORDER BY created_at ASC, id ASC`,
		orgID)
	if err != nil {
		return nil, err
	}
	return scanMembershipRows(rows)
}

// CreateMembership persists the membership to the database. The membership must have ID set.
func (r *PostgresRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO org_members (`+membershipColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.UserID, m.OrgID, string(m.Role), m.Active, m.CreatedAt)
	return err
}

// UpdateRole sets the role of the user's membership in org and returns the updated row, or nil if not found.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE org_members SET role = $3 WHERE user_id = $1 AND org_id = $2 RETURNING `+membershipColumns,
		userID, orgID, string(role))
	return scanMembershipRow(row)
}

// SetActive flips the active flag of the user's membership in org and returns the updated row, or nil if not found.
func (r *PostgresRepository) SetActive(ctx context.Context, userID, orgID string, active bool) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE org_members SET active = $3 WHERE user_id = $1 AND org_id = $2 RETURNING `+membershipColumns,
		userID, orgID, active)
	return scanMembershipRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(s rowScanner) (*domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	if err := s.Scan(&m.ID, &m.UserID, &m.OrgID, &role, &m.Active, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}

func scanMembershipRow(row *sql.Row) (*domain.Membership, error) {
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func scanMembershipRows(rows *sql.Rows) ([]*domain.Membership, error) {
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
