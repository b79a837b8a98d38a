package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

func TestUserRepositoryFindByLogin(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE LOWER\(username\) = LOWER\(\$1\) OR LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Juan").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name", "phone_number", "role", "active", "email_verified", "last_login", "created_at", "updated_at"}).
			AddRow("u1", "juan", "juan@example.ph", "hash", "Juan", "Dela Cruz", "", "USER", true, true, nil, now, now))

	user, err := repo.FindByLogin(context.Background(), "Juan")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Nil(t, user.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListProvinceMembers(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`WITH posters AS (.+) FROM members m JOIN users u`).
		WithArgs("p1", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "created_at", "listings_count", "announcements_count"}).
			AddRow("u1", "juan", "juan@example.ph", time.Now(), 2, 1))
	mock.ExpectQuery(`WITH posters AS (.+) SELECT COUNT\(\*\) AS total`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "with_listings", "with_announcements"}).AddRow(1, 1, 1))

	members, total, err := repo.ListProvinceMembers(context.Background(), "p1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, members, 1)
	assert.Equal(t, 2, members[0].ListingsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
