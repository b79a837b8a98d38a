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

var announcementColumns = []string{
	"id", "title", "description", "priority", "announcement_type", "province_id", "municipality_id",
	"barangay_id", "is_province_wide", "is_municipality_wide", "contact_info", "expiry_date",
	"is_active", "author_id", "created_at", "updated_at",
}

const announcementPriorityOrder = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC"

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements matching the filter and visible under the plan, most urgent first.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter, plan visibility.Plan) ([]models.Announcement, int, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	where := func(sb *sqlbuilder.SelectBuilder) []string {
		conds := announcementFilterConditions(sb, filter)
		return append(conds, planConditions(sb, plan)...)
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)").From("announcements")
	if conds := where(countSb); len(conds) > 0 {
		countSb.Where(conds...)
	}
	countQuery, countArgs := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(announcementColumns...).From("announcements")
	if conds := where(sb); len(conds) > 0 {
		sb.Where(conds...)
	}
	sb.OrderBy(announcementPriorityOrder, "created_at DESC", "id")
	sb.Limit(size).Offset((page - 1) * size)

	query, args := sb.Build()
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, total, nil
}

func announcementFilterConditions(sb *sqlbuilder.SelectBuilder, filter models.AnnouncementFilter) []string {
	var conds []string
	if filter.Active != nil {
		conds = append(conds, sb.Equal("is_active", *filter.Active))
	}
	if filter.Priority != nil {
		conds = append(conds, sb.Equal("priority", string(*filter.Priority)))
	}
	if filter.Type != nil {
		conds = append(conds, sb.Equal("announcement_type", string(*filter.Type)))
	}
	if filter.AuthorID != "" {
		conds = append(conds, sb.Equal("author_id", filter.AuthorID))
	}
	if filter.Search != "" {
		conds = append(conds, searchCondition(sb, filter.Search, "title", "description"))
	}
	return conds
}

// GetByID returns an announcement by identifier or sql.ErrNoRows.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(announcementColumns...).From("announcements").Where(sb.Equal("id", id))

	query, args := sb.Build()
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, args...); err != nil {
		err = noRowsOnMalformedID(err)
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &announcement, nil
}

// ListByAuthor returns the author's announcements, newest first.
func (r *AnnouncementRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Announcement, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(announcementColumns...).From("announcements").Where(sb.Equal("author_id", authorID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, fmt.Errorf("list announcements by author: %w", err)
	}
	return announcements, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("announcements").Cols(announcementColumns...)
	ib.Values(
		announcement.ID, announcement.Title, announcement.Description, announcement.Priority, announcement.Type,
		announcement.ProvinceID, announcement.MunicipalityID, announcement.BarangayID,
		announcement.IsProvinceWide, announcement.IsMunicipalityWide, announcement.ContactInfo,
		expiryArg(announcement.ExpiryDate), announcement.IsActive, announcement.AuthorID,
		announcement.CreatedAt, announcement.UpdatedAt,
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("announcements").Set(
		ub.Assign("title", announcement.Title),
		ub.Assign("description", announcement.Description),
		ub.Assign("priority", string(announcement.Priority)),
		ub.Assign("announcement_type", string(announcement.Type)),
		ub.Assign("province_id", announcement.ProvinceID),
		ub.Assign("municipality_id", announcement.MunicipalityID),
		ub.Assign("barangay_id", announcement.BarangayID),
		ub.Assign("is_province_wide", announcement.IsProvinceWide),
		ub.Assign("is_municipality_wide", announcement.IsMunicipalityWide),
		ub.Assign("contact_info", announcement.ContactInfo),
		ub.Assign("expiry_date", expiryArg(announcement.ExpiryDate)),
		ub.Assign("is_active", announcement.IsActive),
		ub.Assign("updated_at", announcement.UpdatedAt),
	)
	ub.Where(ub.Equal("id", announcement.ID))

	query, args := ub.Build()
	return execAffecting(ctx, r.db, "update announcement", query, args)
}

// SetActive publishes or hides an announcement.
func (r *AnnouncementRepository) SetActive(ctx context.Context, id string, active bool) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("announcements").Set(
		ub.Assign("is_active", active),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	return execAffecting(ctx, r.db, "set announcement active", query, args)
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	del := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	del.DeleteFrom("announcements").Where(del.Equal("id", id))

	query, args := del.Build()
	return execAffecting(ctx, r.db, "delete announcement", query, args)
}

// DeactivateExpired unpublishes active announcements whose expiry date is before today.
func (r *AnnouncementRepository) DeactivateExpired(ctx context.Context, today time.Time) (int64, error) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("announcements").Set(
		ub.Assign("is_active", false),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("is_active", true),
		ub.IsNotNull("expiry_date"),
		ub.LessThan("expiry_date", models.CalendarDate(today).Format(dateLayout)),
	)

	query, args := ub.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired announcements: %w", err)
	}
	return res.RowsAffected()
}

// CountByActive groups the announcements stored in a province into active and hidden.
func (r *AnnouncementRepository) CountByActive(ctx context.Context, provinceID string) ([]models.StatusCount, error) {
	const query = `SELECT CASE WHEN is_active THEN 'active' ELSE 'hidden' END AS status, COUNT(*) AS count
FROM announcements WHERE province_id = $1 GROUP BY is_active`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query, provinceID); err != nil {
		return nil, fmt.Errorf("count announcements by active: %w", err)
	}
	return rows, nil
}

// expiryArg stores expiry dates as calendar dates so the zone of the caller never shifts the day.
func expiryArg(expiry *time.Time) interface{} {
	if expiry == nil {
		return nil
	}
	return models.CalendarDate(*expiry).Format(dateLayout)
}
