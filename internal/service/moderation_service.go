package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
	"github.com/jbernadas/islalist-pwa/pkg/export"
)

// exportRowLimit bounds a single moderator export.
const exportRowLimit = 5000

type moderatorRepository interface {
	ActiveAssignment(ctx context.Context, userID string) (*models.ModeratorAssignment, error)
}

type provinceLookup interface {
	ProvinceSummary(ctx context.Context, id string) (*models.ProvinceSummary, error)
}

type moderatedListings interface {
	List(ctx context.Context, filter models.ListingFilter, plan visibility.Plan) ([]models.Listing, int, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	UpdateStatus(ctx context.Context, id string, status models.ListingStatus) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, provinceID string) ([]models.StatusCount, error)
}

type moderatedAnnouncements interface {
	List(ctx context.Context, filter models.AnnouncementFilter, plan visibility.Plan) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CountByActive(ctx context.Context, provinceID string) ([]models.StatusCount, error)
}

type provinceMembers interface {
	ListProvinceMembers(ctx context.Context, provinceID string, page, size int) ([]models.ProvinceMember, int, error)
	CountProvinceMembers(ctx context.Context, provinceID string) (models.DashboardUsers, error)
}

// ModerationListingQuery filters the moderator listing view. Location codes narrow inside the
// moderator's own province.
type ModerationListingQuery struct {
	Municipality string
	Barangay     string
	Status       string
	Search       string
	Page         int
	PageSize     int
}

// ModerationAnnouncementQuery filters the moderator announcement view.
type ModerationAnnouncementQuery struct {
	Municipality string
	Barangay     string
	Active       *bool
	Type         string
	Search       string
	Page         int
	PageSize     int
}

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ModerationService exposes province-scoped moderation workflows. Every operation first
// resolves the caller's active province assignment.
type ModerationService struct {
	moderators    moderatorRepository
	provinces     provinceLookup
	directory     visibility.Directory
	listings      moderatedListings
	announcements moderatedAnnouncements
	members       provinceMembers
	logger        *zap.Logger
	renderer      func(export.Format) export.Renderer
	now           func() time.Time
}

// NewModerationService constructs the service.
func NewModerationService(moderators moderatorRepository, provinces provinceLookup, directory visibility.Directory, listings moderatedListings, announcements moderatedAnnouncements, members provinceMembers, logger *zap.Logger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{
		moderators:    moderators,
		provinces:     provinces,
		directory:     directory,
		listings:      listings,
		announcements: announcements,
		members:       members,
		logger:        logger,
		renderer:      export.RendererFor,
		now:           time.Now,
	}
}

// Status reports whether userID moderates a province. A missing assignment is not an error.
func (s *ModerationService) Status(ctx context.Context, userID string) (*models.ModeratorStatus, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrNoAssignment.Code) {
			return &models.ModeratorStatus{IsModerator: false}, nil
		}
		return nil, err
	}
	return &models.ModeratorStatus{IsModerator: true, Province: province}, nil
}

// Dashboard aggregates member, listing and announcement counts for the moderator's province.
func (s *ModerationService) Dashboard(ctx context.Context, userID string) (*models.ModerationDashboard, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.members.CountProvinceMembers(ctx, province.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
	}
	listingCounts, err := s.listings.CountByStatus(ctx, province.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count listings")
	}
	noticeCounts, err := s.announcements.CountByActive(ctx, province.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count announcements")
	}

	dashboard := &models.ModerationDashboard{Province: *province, Users: users}
	for _, row := range listingCounts {
		dashboard.Listings.Total += row.Count
		switch models.ListingStatus(row.Status) {
		case models.ListingStatusActive:
			dashboard.Listings.Active = row.Count
		case models.ListingStatusHidden:
			dashboard.Listings.Hidden = row.Count
		case models.ListingStatusSold:
			dashboard.Listings.Sold = row.Count
		}
	}
	for _, row := range noticeCounts {
		dashboard.Announcements.Total += row.Count
		switch row.Status {
		case "active":
			dashboard.Announcements.Active = row.Count
		case "hidden":
			dashboard.Announcements.Hidden = row.Count
		}
	}
	return dashboard, nil
}

// Users pages through the users who posted content in the moderator's province.
func (s *ModerationService) Users(ctx context.Context, userID string, page, size int) ([]models.ProvinceMember, *models.Pagination, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	page, size = models.NormalizePage(page, size)
	members, total, err := s.members.ListProvinceMembers(ctx, province.ID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Listings returns every listing filed in the moderator's province, whatever its status.
func (s *ModerationService) Listings(ctx context.Context, userID string, query ModerationListingQuery) ([]models.Listing, *models.Pagination, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.listingPage(ctx, province, query)
}

// SetListingStatus publishes or unpublishes a listing. Only active and hidden are accepted.
func (s *ModerationService) SetListingStatus(ctx context.Context, userID, id, status string) (*models.Listing, error) {
	next := models.ListingStatus(strings.TrimSpace(status))
	if next != models.ListingStatusActive && next != models.ListingStatusHidden {
		return nil, appErrors.Clone(appErrors.ErrValidation, `invalid status, must be "active" or "hidden"`)
	}
	listing, err := s.provinceListing(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.listings.UpdateStatus(ctx, id, next); err != nil {
		return nil, translateWriteError(err, "listing not found in your province", "failed to update listing status")
	}
	s.logger.Info("listing status moderated",
		zap.String("listing_id", id),
		zap.String("moderator_id", userID),
		zap.String("from", string(listing.Status)),
		zap.String("to", string(next)),
	)
	listing.Status = next
	return listing, nil
}

// DeleteListing removes a listing filed in the moderator's province and returns a confirmation message.
func (s *ModerationService) DeleteListing(ctx context.Context, userID, id string) (string, error) {
	listing, err := s.provinceListing(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		return "", translateWriteError(err, "listing not found in your province", "failed to delete listing")
	}
	s.logger.Info("listing deleted by moderator", zap.String("listing_id", id), zap.String("moderator_id", userID))
	return fmt.Sprintf("Listing %q has been deleted", listing.Title), nil
}

// Announcements returns every announcement filed in the moderator's province, expired or not.
func (s *ModerationService) Announcements(ctx context.Context, userID string, query ModerationAnnouncementQuery) ([]models.Announcement, *models.Pagination, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	filter := models.AnnouncementFilter{Active: query.Active, Search: strings.TrimSpace(query.Search)}
	if query.Type != "" {
		t := models.AnnouncementType(strings.ToLower(strings.TrimSpace(query.Type)))
		if !t.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown announcement type")
		}
		filter.Type = &t
	}
	filter.Page, filter.PageSize = models.NormalizePage(query.Page, query.PageSize)

	plan, err := s.storedPlan(ctx, visibility.EntityAnnouncement, province, query.Municipality, query.Barangay)
	if err != nil {
		return nil, nil, err
	}
	rows, total, err := s.announcements.List(ctx, filter, plan)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// SetAnnouncementActive publishes or unpublishes an announcement.
func (s *ModerationService) SetAnnouncementActive(ctx context.Context, userID, id string, active bool) (*models.Announcement, error) {
	ann, err := s.provinceAnnouncement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.announcements.SetActive(ctx, id, active); err != nil {
		return nil, translateWriteError(err, "announcement not found in your province", "failed to update announcement")
	}
	s.logger.Info("announcement visibility moderated",
		zap.String("announcement_id", id),
		zap.String("moderator_id", userID),
		zap.Bool("is_active", active),
	)
	ann.IsActive = active
	return ann, nil
}

// DeleteAnnouncement removes an announcement filed in the moderator's province.
func (s *ModerationService) DeleteAnnouncement(ctx context.Context, userID, id string) (string, error) {
	ann, err := s.provinceAnnouncement(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if err := s.announcements.Delete(ctx, id); err != nil {
		return "", translateWriteError(err, "announcement not found in your province", "failed to delete announcement")
	}
	s.logger.Info("announcement deleted by moderator", zap.String("announcement_id", id), zap.String("moderator_id", userID))
	return fmt.Sprintf("Announcement %q has been deleted", ann.Title), nil
}

// ExportListings renders the filtered province listings as CSV or PDF.
func (s *ModerationService) ExportListings(ctx context.Context, userID string, query ModerationListingQuery, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rows []models.Listing
	query.PageSize = 100
	for query.Page = 1; len(rows) < exportRowLimit; query.Page++ {
		page, pagination, err := s.listingPage(ctx, province, query)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		if len(page) == 0 || len(rows) >= pagination.TotalCount {
			break
		}
	}
	if len(rows) > exportRowLimit {
		rows = rows[:exportRowLimit]
	}

	data := listingDataset(province, rows)
	payload, err := s.renderer(f).Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("listings exported",
		zap.String("moderator_id", userID),
		zap.String("province_id", province.ID),
		zap.String("format", string(f)),
		zap.Int("rows", len(rows)),
	)
	base := fmt.Sprintf("listings_%s_%s", sanitizeFilename(province.Code), s.now().UTC().Format("20060102_150405"))
	return &ExportFile{Filename: f.Filename(base), ContentType: f.ContentType(), Data: payload, Rows: len(rows)}, nil
}

func (s *ModerationService) listingPage(ctx context.Context, province *models.ProvinceSummary, query ModerationListingQuery) ([]models.Listing, *models.Pagination, error) {
	filter := models.ListingFilter{Search: strings.TrimSpace(query.Search), SearchSeller: true}
	if query.Status != "" {
		status := models.ListingStatus(strings.ToLower(strings.TrimSpace(query.Status)))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown listing status")
		}
		filter.Status = []models.ListingStatus{status}
	}
	filter.Page, filter.PageSize = models.NormalizePage(query.Page, query.PageSize)

	plan, err := s.storedPlan(ctx, visibility.EntityListing, province, query.Municipality, query.Barangay)
	if err != nil {
		return nil, nil, err
	}
	rows, total, err := s.listings.List(ctx, filter, plan)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list listings")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// storedPlan narrows to the moderator's province and, optionally, a municipality or barangay in it.
func (s *ModerationService) storedPlan(ctx context.Context, entity visibility.Entity, province *models.ProvinceSummary, municipality, barangay string) (visibility.Plan, error) {
	scope := visibility.ParseScope(province.Code, municipality, barangay)
	resolved, err := visibility.ResolveScope(ctx, s.directory, scope)
	if err != nil {
		return visibility.Plan{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve location")
	}
	if resolved.Unresolvable && resolved.FailedLevel == models.LocationLevelProvince {
		// the assigned province itself must always resolve; fall back to its id
		resolved = visibility.Resolved{Scope: visibility.ProvinceScope(province.Code), ProvinceID: province.ID}
	}
	return visibility.StoredPlan(entity, resolved), nil
}

func (s *ModerationService) province(ctx context.Context, userID string) (*models.ProvinceSummary, error) {
	assignment, err := s.moderators.ActiveAssignment(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoAssignment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load moderator assignment")
	}
	if assignment == nil || !assignment.IsActive {
		return nil, appErrors.ErrNoAssignment
	}
	return s.provinces.ProvinceSummary(ctx, assignment.ProvinceID)
}

func (s *ModerationService) provinceListing(ctx context.Context, userID, id string) (*models.Listing, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if listing == nil || listing.ProvinceID == nil || *listing.ProvinceID != province.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found in your province")
	}
	return listing, nil
}

func (s *ModerationService) provinceAnnouncement(ctx context.Context, userID, id string) (*models.Announcement, error) {
	province, err := s.province(ctx, userID)
	if err != nil {
		return nil, err
	}
	ann, err := s.announcements.GetByID(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	if ann == nil || ann.ProvinceID == nil || *ann.ProvinceID != province.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found in your province")
	}
	return ann, nil
}

func listingDataset(province *models.ProvinceSummary, rows []models.Listing) export.Dataset {
	headers := []string{"ID", "Title", "Status", "Price", "Seller", "Municipality", "Barangay", "Views", "Created"}
	data := export.Dataset{
		Title:   fmt.Sprintf("Listings in %s", province.Name),
		Headers: headers,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, l := range rows {
		price := ""
		if l.Price != nil {
			price = strconv.FormatFloat(*l.Price, 'f', 2, 64)
		}
		data.Rows = append(data.Rows, map[string]string{
			"ID":           l.ID,
			"Title":        l.Title,
			"Status":       string(l.Status),
			"Price":        price,
			"Seller":       l.SellerID,
			"Municipality": deref(l.MunicipalityID),
			"Barangay":     deref(l.BarangayID),
			"Views":        strconv.Itoa(l.ViewsCount),
			"Created":      l.CreatedAt.UTC().Format("2006-01-02"),
		})
	}
	return data
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
