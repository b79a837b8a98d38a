package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter, plan visibility.Plan) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	locations locationValidator
	directory visibility.Directory
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	zone      *time.Location
	now       func() time.Time
}

// NewAnnouncementService constructs the service. Expiry is judged by the calendar day in zone.
func NewAnnouncementService(repo announcementRepository, locations locationValidator, directory visibility.Directory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, zone *time.Location) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if zone == nil {
		zone = time.UTC
	}
	registerContentValidations(validate)
	return &AnnouncementService{
		repo:      repo,
		locations: locations,
		directory: directory,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		zone:      zone,
		now:       time.Now,
	}
}

// AnnouncementListRequest describes a public announcement search.
type AnnouncementListRequest struct {
	Scope          ScopeQuery
	IncludeExpired bool
	Filter         models.AnnouncementFilter
}

// AnnouncementRequest is the create and update payload. ExpiryDate is a YYYY-MM-DD day.
type AnnouncementRequest struct {
	Title              string  `json:"title" validate:"required,max=200"`
	Description        string  `json:"description" validate:"required"`
	Priority           string  `json:"priority" validate:"omitempty,priority"`
	Type               string  `json:"announcement_type" validate:"omitempty,announcement_type"`
	IsProvinceWide     bool    `json:"is_province_wide"`
	IsMunicipalityWide bool    `json:"is_municipality_wide"`
	ContactInfo        string  `json:"contact_info" validate:"max=500"`
	ExpiryDate         *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	IsActive           *bool   `json:"is_active"`
	LocationInput
}

// Today returns the current calendar day in the service zone.
func (s *AnnouncementService) Today() time.Time {
	return s.now().In(s.zone)
}

// List resolves the requested scope and returns active announcements, most urgent first.
func (s *AnnouncementService) List(ctx context.Context, req AnnouncementListRequest) ([]models.Announcement, *models.Pagination, error) {
	scope := visibility.ParseScope(req.Scope.Province, req.Scope.Municipality, req.Scope.Barangay)
	resolved, err := visibility.ResolveScope(ctx, s.directory, scope)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve location")
	}
	plan := visibility.AnnouncementPlan(resolved, visibility.AnnouncementOptions{
		IncludeExpired: req.IncludeExpired,
		Today:          s.Today(),
	})
	s.metrics.RecordResolution(plan)
	s.logger.Debug("visibility resolved",
		zap.String("scope", scope.Key()),
		zap.Bool("truncated", scope.Truncated()),
		zap.Strings("tiers", plan.TierNames()),
	)

	filter := req.Filter
	active := true
	filter.Active = &active
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)

	rows, total, err := s.repo.List(ctx, filter, plan)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a published announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	ann, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ann.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return ann, nil
}

func (s *AnnouncementService) load(ctx context.Context, id string) (*models.Announcement, error) {
	ann, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get announcement")
	}
	return ann, nil
}

// Mine returns every announcement written by authorID.
func (s *AnnouncementService) Mine(ctx context.Context, authorID string) ([]models.Announcement, error) {
	rows, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return rows, nil
}

// Create registers a new announcement written by authorID.
func (s *AnnouncementService) Create(ctx context.Context, authorID string, req AnnouncementRequest) (*models.Announcement, error) {
	announcement := &models.Announcement{AuthorID: authorID, IsActive: true}
	if err := s.apply(ctx, announcement, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	s.logger.Info("announcement created",
		zap.String("announcement_id", announcement.ID),
		zap.String("priority", string(announcement.Priority)),
		zap.Bool("province_wide", announcement.IsProvinceWide),
	)
	return announcement, nil
}

// Update modifies an announcement written by authorID.
func (s *AnnouncementService) Update(ctx context.Context, authorID, id string, req AnnouncementRequest) (*models.Announcement, error) {
	existing, err := s.authored(ctx, authorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, existing, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, translateWriteError(err, "announcement not found", "failed to update announcement")
	}
	return existing, nil
}

// Delete removes an announcement written by authorID.
func (s *AnnouncementService) Delete(ctx context.Context, authorID, id string) error {
	if _, err := s.authored(ctx, authorID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateWriteError(err, "announcement not found", "failed to delete announcement")
	}
	return nil
}

func (s *AnnouncementService) apply(ctx context.Context, announcement *models.Announcement, req AnnouncementRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	loc, err := s.locations.ValidateLocation(ctx, req.LocationInput.toModel())
	if err != nil {
		return err
	}

	announcement.Title = req.Title
	announcement.Description = req.Description
	announcement.Priority = models.PriorityMedium
	if req.Priority != "" {
		announcement.Priority = models.AnnouncementPriority(req.Priority)
	}
	announcement.Type = models.AnnouncementTypeGeneral
	if req.Type != "" {
		announcement.Type = models.AnnouncementType(req.Type)
	}
	announcement.IsProvinceWide = req.IsProvinceWide
	announcement.IsMunicipalityWide = req.IsMunicipalityWide
	announcement.ContactInfo = req.ContactInfo
	announcement.ExpiryDate = nil
	if req.ExpiryDate != nil {
		day, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "expiry_date must be YYYY-MM-DD")
		}
		announcement.ExpiryDate = &day
	}
	if req.IsActive != nil {
		announcement.IsActive = *req.IsActive
	}
	announcement.Location = loc
	return nil
}

func (s *AnnouncementService) authored(ctx context.Context, authorID, id string) (*models.Announcement, error) {
	ann, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ann.AuthorID != authorID {
		return nil, appErrors.Clone(appErrors.ErrNotOwner, "you can only modify your own announcements")
	}
	return ann, nil
}
