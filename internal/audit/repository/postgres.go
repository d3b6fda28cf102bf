package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sdr-juridico/backend/internal/audit/domain"
)

// SQLSTATE undefined_table.
const pgUndefinedTable = "42P01"

// PostgresSink writes audit events to the first existing table among its candidates.
type PostgresSink struct {
	db         *sql.DB
	candidates []string

	mu    sync.RWMutex
	table string
}

// NewPostgresSink returns a sink over db. candidates are probed in order; empty names are skipped.
func NewPostgresSink(db *sql.DB, candidates ...string) *PostgresSink {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" {
			out = append(out, c)
		}
	}
	return &PostgresSink{db: db, candidates: out}
}

// Table returns the table selected by Probe, or "" before a successful probe.
func (s *PostgresSink) Table() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Probe selects the first candidate table that exists.
func (s *PostgresSink) Probe(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%w: no database", ErrSinkUnavailable)
	}
	for _, name := range s.candidates {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists); err != nil {
			return fmt.Errorf("audit: probe %s: %w", name, err)
		}
		if exists {
			s.mu.Lock()
			s.table = name
			s.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: none of %v exist", ErrSinkUnavailable, s.candidates)
}

// Write inserts e into the probed table. The event must have ID, OrgID and CreatedAt set.
// A sink whose probe has not succeeded yet probes again first, so a transient probe failure
// surfaces as a plain error and only a confirmed missing table reports ErrSinkUnavailable.
func (s *PostgresSink) Write(ctx context.Context, e *domain.Event) error {
	table := s.Table()
	if table == "" {
		if err := s.Probe(ctx); err != nil {
			return err
		}
		table = s.Table()
	}
	details := []byte("{}")
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("audit: encode details: %w", err)
		}
		details = b
	}
	q := `INSERT INTO ` + pgx.Identifier{table}.Sanitize() +
		` (id, org_id, actor_user_id, action, entity, entity_id, details, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, q,
		e.ID, e.OrgID, nullString(e.ActorUserID), e.Action, e.Entity, nullString(e.EntityID), string(details), e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return fmt.Errorf("%w: %s: %w", ErrSinkUnavailable, table, err)
		}
		return err
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
