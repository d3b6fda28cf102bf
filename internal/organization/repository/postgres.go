package repository

import (
	"context"
	"database/sql"
	"errors"

	"sdr-juridico/backend/internal/organization/domain"
)

const orgColumns = `id, name, status, plan, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetOrganizationByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	o, err := scanOrg(r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// ListOrganizations returns every organization ordered by name.
func (r *PostgresRepository) ListOrganizations(ctx context.Context) ([]*domain.Org, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Org
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOrganization persists the organization. The organization must have ID set.
func (r *PostgresRepository) CreateOrganization(ctx context.Context, o *domain.Org) error {
	if err := o.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (`+orgColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, string(o.Status), string(o.Plan), o.CreatedAt)
	return err
}

// UpdateOrganization updates name, status and plan of an existing organization.
func (r *PostgresRepository) UpdateOrganization(ctx context.Context, o *domain.Org) error {
	if err := o.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET name = $2, status = $3, plan = $4 WHERE id = $1`,
		o.ID, o.Name, string(o.Status), string(o.Plan))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrg(s rowScanner) (*domain.Org, error) {
	var (
		o            domain.Org
		status, plan string
	)
	if err := s.Scan(&o.ID, &o.Name, &status, &plan, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OrgStatus(status)
	o.Plan = domain.OrgPlan(plan)
	return &o, nil
}
