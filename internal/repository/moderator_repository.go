package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// ModeratorRepository reads province moderator assignments.
type ModeratorRepository struct {
	db *sqlx.DB
}

// NewModeratorRepository constructs the repository.
func NewModeratorRepository(db *sqlx.DB) *ModeratorRepository {
	return &ModeratorRepository{db: db}
}

// ActiveAssignment returns the user's active assignment or sql.ErrNoRows.
func (r *ModeratorRepository) ActiveAssignment(ctx context.Context, userID string) (*models.ModeratorAssignment, error) {
	const query = `SELECT id, user_id, province_id, is_active, created_at FROM moderator_assignments
        WHERE user_id = $1 AND is_active ORDER BY created_at DESC LIMIT 1`
	var assignment models.ModeratorAssignment
	if err := r.db.GetContext(ctx, &assignment, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find moderator assignment: %w", err)
	}
	return &assignment, nil
}
