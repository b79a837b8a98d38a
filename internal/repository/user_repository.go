package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone_number, role, active, email_verified, last_login, created_at, updated_at`

// FindByLogin returns a user by username or email address.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, login); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by login: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

const provinceMembersCTE = `WITH posters AS (
        SELECT seller_id AS user_id, COUNT(*) AS listings_count, 0 AS announcements_count FROM listings WHERE province_id = $1 GROUP BY seller_id
        UNION ALL
        SELECT author_id AS user_id, 0, COUNT(*) FROM announcements WHERE province_id = $1 GROUP BY author_id
    ), members AS (
        SELECT user_id, SUM(listings_count) AS listings_count, SUM(announcements_count) AS announcements_count FROM posters GROUP BY user_id
    )`

// ListProvinceMembers returns users who posted listings or announcements in the province, newest accounts first.
func (r *UserRepository) ListProvinceMembers(ctx context.Context, provinceID string, page, size int) ([]models.ProvinceMember, int, error) {
	page, size = models.NormalizePage(page, size)
	query := provinceMembersCTE + `
    SELECT u.id, u.username, u.email, u.created_at, m.listings_count, m.announcements_count
    FROM members m JOIN users u ON u.id = m.user_id
    ORDER BY u.created_at DESC LIMIT $2 OFFSET $3`
	members := []models.ProvinceMember{}
	if err := r.db.SelectContext(ctx, &members, query, provinceID, size, (page-1)*size); err != nil {
		return nil, 0, fmt.Errorf("list province members: %w", err)
	}

	counts, err := r.CountProvinceMembers(ctx, provinceID)
	if err != nil {
		return nil, 0, err
	}
	return members, counts.Total, nil
}

// CountProvinceMembers counts distinct posters in the province.
func (r *UserRepository) CountProvinceMembers(ctx context.Context, provinceID string) (models.DashboardUsers, error) {
	query := provinceMembersCTE + `
    SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE listings_count > 0) AS with_listings,
        COUNT(*) FILTER (WHERE announcements_count > 0) AS with_announcements
    FROM members`
	var counts models.DashboardUsers
	if err := r.db.GetContext(ctx, &counts, query, provinceID); err != nil {
		return models.DashboardUsers{}, fmt.Errorf("count province members: %w", err)
	}
	return counts, nil
}
