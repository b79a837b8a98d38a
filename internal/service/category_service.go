package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jbernadas/islalist-pwa/internal/models"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

const categoriesCacheKey = "categories:roots"

type categoryRepository interface {
	ListActiveRoots(ctx context.Context) ([]models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// CategoryService serves listing categories.
type CategoryService struct {
	repo   categoryRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCategoryService constructs the service. A nil cache disables caching.
func NewCategoryService(repo categoryRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns the active top-level categories.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, categoriesCacheKey, &categories); err == nil && hit {
			return categories, nil
		}
	}
	categories, err := s.repo.ListActiveRoots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, categoriesCacheKey, categories, s.ttl)
	}
	return categories, nil
}

// ResolveID maps a category filter value to an id. Ids pass through unchanged; anything
// else is treated as a slug. found is false for an unknown slug.
func (s *CategoryService) ResolveID(ctx context.Context, raw string) (id string, found bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	if _, parseErr := uuid.Parse(raw); parseErr == nil {
		return raw, true, nil
	}
	category, err := s.repo.FindBySlug(ctx, strings.ToLower(raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve category")
	}
	return category.ID, true, nil
}
