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

type listingRepository interface {
	List(ctx context.Context, filter models.ListingFilter, plan visibility.Plan) ([]models.Listing, int, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	UpdateStatus(ctx context.Context, id string, status models.ListingStatus) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type categoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ListingService implements the marketplace listing workflows.
type ListingService struct {
	repo       listingRepository
	categories categoryChecker
	locations  locationValidator
	directory  visibility.Directory
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	lifetime   time.Duration
	now        func() time.Time
}

// NewListingService constructs the service. A non-positive lifetime uses the default listing lifetime.
func NewListingService(repo listingRepository, categories categoryChecker, locations locationValidator, directory visibility.Directory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, lifetime time.Duration) *ListingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lifetime <= 0 {
		lifetime = models.DefaultListingLifetime
	}
	registerContentValidations(validate)
	return &ListingService{
		repo:       repo,
		categories: categories,
		locations:  locations,
		directory:  directory,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		lifetime:   lifetime,
		now:        time.Now,
	}
}

// ListingListRequest describes a public listing search.
type ListingListRequest struct {
	Scope  ScopeQuery
	Filter models.ListingFilter
}

// ListingRequest is the create and update payload.
type ListingRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"required"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	PropertyType *string  `json:"property_type" validate:"omitempty,property_type"`
	AreaSqm      *float64 `json:"area_sqm" validate:"omitempty,gt=0"`
	Bedrooms     *int     `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms    *int     `json:"bathrooms" validate:"omitempty,gte=0"`
	CategoryID   string   `json:"category_id" validate:"required"`
	Condition    string   `json:"condition" validate:"omitempty,condition"`
	LocationInput
}

// List resolves the requested location scope and returns the matching active listings.
func (s *ListingService) List(ctx context.Context, req ListingListRequest) ([]models.Listing, *models.Pagination, error) {
	scope := visibility.ParseScope(req.Scope.Province, req.Scope.Municipality, req.Scope.Barangay)
	resolved, err := visibility.ResolveScope(ctx, s.directory, scope)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve location")
	}
	plan := visibility.ListingPlan(resolved)
	s.metrics.RecordResolution(plan)
	s.logger.Debug("visibility resolved",
		zap.String("scope", scope.Key()),
		zap.Bool("truncated", scope.Truncated()),
		zap.Strings("tiers", plan.TierNames()),
	)

	filter := req.Filter
	filter.Status = []models.ListingStatus{models.ListingStatusActive}
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)

	rows, total, err := s.repo.List(ctx, filter, plan)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list listings")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns an active listing and counts the view. Hidden, sold and expired listings
// are only reachable through their seller or a moderator.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to increment listing views", zap.String("listing_id", id), zap.Error(err))
	} else {
		listing.ViewsCount++
	}
	return listing, nil
}

// Mine returns every listing of the seller regardless of status.
func (s *ListingService) Mine(ctx context.Context, sellerID string) ([]models.Listing, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list listings")
	}
	return rows, nil
}

// Create stores a new active listing owned by sellerID.
func (s *ListingService) Create(ctx context.Context, sellerID string, req ListingRequest) (*models.Listing, error) {
	listing := &models.Listing{SellerID: sellerID, Status: models.ListingStatusActive}
	if err := s.apply(ctx, listing, req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expires := now.Add(s.lifetime)
	listing.CreatedAt = now
	listing.ExpiresAt = &expires

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}
	s.logger.Info("listing created", zap.String("listing_id", listing.ID), zap.String("seller_id", sellerID))
	return listing, nil
}

// Update replaces the editable fields of a listing owned by sellerID.
func (s *ListingService) Update(ctx context.Context, sellerID, id string, req ListingRequest) (*models.Listing, error) {
	listing, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, listing, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, translateWriteError(err, "listing not found", "failed to update listing")
	}
	return listing, nil
}

// MarkSold flags a listing owned by sellerID as sold.
func (s *ListingService) MarkSold(ctx context.Context, sellerID, id string) (*models.Listing, error) {
	listing, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, models.ListingStatusSold); err != nil {
		return nil, translateWriteError(err, "listing not found", "failed to mark listing sold")
	}
	listing.Status = models.ListingStatusSold
	return listing, nil
}

// Delete removes a listing owned by sellerID.
func (s *ListingService) Delete(ctx context.Context, sellerID, id string) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateWriteError(err, "listing not found", "failed to delete listing")
	}
	return nil
}

func (s *ListingService) apply(ctx context.Context, listing *models.Listing, req ListingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	ok, err := s.categories.Exists(ctx, req.CategoryID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	loc, err := s.locations.ValidateLocation(ctx, req.LocationInput.toModel())
	if err != nil {
		return err
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Price = req.Price
	listing.AreaSqm = req.AreaSqm
	listing.Bedrooms = req.Bedrooms
	listing.Bathrooms = req.Bathrooms
	listing.CategoryID = req.CategoryID
	listing.Condition = models.ConditionNotApplicable
	if req.Condition != "" {
		listing.Condition = models.ListingCondition(req.Condition)
	}
	listing.PropertyType = nil
	if req.PropertyType != nil {
		pt := models.PropertyType(*req.PropertyType)
		listing.PropertyType = &pt
	}
	listing.Location = loc
	return nil
}

func (s *ListingService) load(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	return listing, nil
}

func (s *ListingService) owned(ctx context.Context, sellerID, id string) (*models.Listing, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrNotOwner, "you can only modify your own listings")
	}
	return listing, nil
}

func translateWriteError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
