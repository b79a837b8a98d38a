package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
)

var listingColumns = []string{
	"id", "title", "description", "price", "property_type", "area_sqm", "bedrooms", "bathrooms",
	"category_id", "condition", "province_id", "municipality_id", "barangay_id", "seller_id",
	"status", "views_count", "featured", "created_at", "updated_at", "expires_at",
}

var listingOrderings = map[string]string{
	"":             "created_at DESC",
	"-created_at":  "created_at DESC",
	"created_at":   "created_at ASC",
	"price":        "price ASC NULLS LAST",
	"-price":       "price DESC NULLS LAST",
	"views_count":  "views_count ASC",
	"-views_count": "views_count DESC",
}

// ValidListingOrdering reports whether the ordering key is supported by List.
func ValidListingOrdering(ordering string) bool {
	_, ok := listingOrderings[ordering]
	return ok
}

// ListingRepository persists marketplace listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository constructs the repository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// List returns a page of listings matching the filter and visible under the plan, plus the total.
func (r *ListingRepository) List(ctx context.Context, filter models.ListingFilter, plan visibility.Plan) ([]models.Listing, int, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	order, ok := listingOrderings[filter.Ordering]
	if !ok {
		order = listingOrderings[""]
	}

	where := func(sb *sqlbuilder.SelectBuilder) []string {
		conds := listingFilterConditions(sb, filter)
		return append(conds, planConditions(sb, plan)...)
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)").From("listings")
	if conds := where(countSb); len(conds) > 0 {
		countSb.Where(conds...)
	}
	countQuery, countArgs := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns...).From("listings")
	if conds := where(sb); len(conds) > 0 {
		sb.Where(conds...)
	}
	sb.OrderBy(order, "id")
	sb.Limit(size).Offset((page - 1) * size)

	query, args := sb.Build()
	listings := []models.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	return listings, total, nil
}

func listingFilterConditions(sb *sqlbuilder.SelectBuilder, filter models.ListingFilter) []string {
	var conds []string
	if len(filter.Status) > 0 {
		statuses := make([]interface{}, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		conds = append(conds, sb.In("status", statuses...))
	}
	if filter.CategoryID != "" {
		conds = append(conds, sb.Equal("category_id", filter.CategoryID))
	}
	if filter.PropertyType != "" {
		conds = append(conds, sb.Equal("property_type", filter.PropertyType))
	}
	if filter.SellerID != "" {
		conds = append(conds, sb.Equal("seller_id", filter.SellerID))
	}
	if filter.MinPrice != nil {
		conds = append(conds, sb.GreaterEqualThan("price", *filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, sb.LessEqualThan("price", *filter.MaxPrice))
	}
	switch {
	case filter.Search != "" && filter.SearchSeller:
		pattern := likePattern(filter.Search)
		conds = append(conds, sb.Or(
			sb.Like("LOWER(title)", pattern),
			"seller_id IN (SELECT id FROM users WHERE LOWER(username) LIKE "+sb.Var(pattern)+")",
		))
	case filter.Search != "":
		conds = append(conds, searchCondition(sb, filter.Search, "title", "description"))
	}
	return conds
}

// GetByID returns a listing by id or sql.ErrNoRows.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns...).From("listings").Where(sb.Equal("id", id))

	query, args := sb.Build()
	var listing models.Listing
	if err := r.db.GetContext(ctx, &listing, query, args...); err != nil {
		err = noRowsOnMalformedID(err)
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &listing, nil
}

// ListBySeller returns every listing owned by the seller, newest first.
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns...).From("listings").Where(sb.Equal("seller_id", sellerID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	listings := []models.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list listings by seller: %w", err)
	}
	return listings, nil
}

// Create inserts a new listing, assigning id and timestamps.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("listings").Cols(listingColumns...)
	ib.Values(
		listing.ID, listing.Title, listing.Description, listing.Price, listing.PropertyType, listing.AreaSqm,
		listing.Bedrooms, listing.Bathrooms, listing.CategoryID, listing.Condition,
		listing.ProvinceID, listing.MunicipalityID, listing.BarangayID, listing.SellerID,
		listing.Status, listing.ViewsCount, listing.Featured, listing.CreatedAt, listing.UpdatedAt, listing.ExpiresAt,
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// Update rewrites the editable columns of a listing.
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	listing.UpdatedAt = time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("listings").Set(
		ub.Assign("title", listing.Title),
		ub.Assign("description", listing.Description),
		ub.Assign("price", listing.Price),
		ub.Assign("property_type", listing.PropertyType),
		ub.Assign("area_sqm", listing.AreaSqm),
		ub.Assign("bedrooms", listing.Bedrooms),
		ub.Assign("bathrooms", listing.Bathrooms),
		ub.Assign("category_id", listing.CategoryID),
		ub.Assign("condition", listing.Condition),
		ub.Assign("province_id", listing.ProvinceID),
		ub.Assign("municipality_id", listing.MunicipalityID),
		ub.Assign("barangay_id", listing.BarangayID),
		ub.Assign("status", listing.Status),
		ub.Assign("expires_at", listing.ExpiresAt),
		ub.Assign("updated_at", listing.UpdatedAt),
	)
	ub.Where(ub.Equal("id", listing.ID))

	query, args := ub.Build()
	return execAffecting(ctx, r.db, "update listing", query, args)
}

// UpdateStatus moves a listing to the given status.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, status models.ListingStatus) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("listings").Set(
		ub.Assign("status", string(status)),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	return execAffecting(ctx, r.db, "update listing status", query, args)
}

// IncrementViews bumps the view counter by one.
func (r *ListingRepository) IncrementViews(ctx context.Context, id string) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("listings").Set(ub.Incr("views_count"))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("increment listing views: %w", err)
	}
	return nil
}

// Delete removes a listing.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	del := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	del.DeleteFrom("listings").Where(del.Equal("id", id))

	query, args := del.Build()
	return execAffecting(ctx, r.db, "delete listing", query, args)
}

// ExpireStale marks active listings whose expiry has passed as expired.
func (r *ListingRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("listings").Set(
		ub.Assign("status", string(models.ListingStatusExpired)),
		ub.Assign("updated_at", now.UTC()),
	)
	ub.Where(
		ub.Equal("status", string(models.ListingStatusActive)),
		ub.IsNotNull("expires_at"),
		ub.LessThan("expires_at", now.UTC()),
	)

	query, args := ub.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("expire listings: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatus groups the listings stored in a province by status.
func (r *ListingRepository) CountByStatus(ctx context.Context, provinceID string) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM listings WHERE province_id = $1 GROUP BY status`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query, provinceID); err != nil {
		return nil, fmt.Errorf("count listings by status: %w", err)
	}
	return rows, nil
}

// execAffecting runs a statement that must touch at least one row; zero rows is sql.ErrNoRows.
func execAffecting(ctx context.Context, db *sqlx.DB, op, query string, args []interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
