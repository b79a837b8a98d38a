package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// CategoryRepository reads listing categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, slug, description, icon, parent_id, active, sort_order, created_at`

// ListActiveRoots returns the active top-level categories in display order.
func (r *CategoryRepository) ListActiveRoots(ctx context.Context) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE active AND parent_id IS NULL ORDER BY sort_order ASC, name ASC`
	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindBySlug returns a category by slug or sql.ErrNoRows.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1 LIMIT 1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return &category, nil
}

// Exists reports whether an active category with the id exists.
func (r *CategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND active)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if noRowsOnMalformedID(err) == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check category: %w", err)
	}
	return exists, nil
}
