package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdr-juridico/backend/internal/user/domain"
)

func TestPostgresRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "is_platform_operator", "status", "created_at", "updated_at"}).
			AddRow("user-1", "ops@example.com", "Ops", true, "active", now, now))

	u, err := NewPostgresRepository(db).GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.IsPlatformOperator)
	assert.Equal(t, domain.UserStatusActive, u.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE id").WillReturnError(sql.ErrNoRows)

	u, err := NewPostgresRepository(db).GetByID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestPostgresRepository_Create_RequiresEmail(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = NewPostgresRepository(db).Create(context.Background(), &domain.User{ID: "user-1"})
	assert.Error(t, err)
}

func TestPostgresRepository_SetPlatformOperator(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET is_platform_operator").
		WithArgs("user-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresRepository(db).SetPlatformOperator(context.Background(), "user-1", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
