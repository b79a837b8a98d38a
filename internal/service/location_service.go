package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

type locationRepository interface {
	visibility.Directory
	FindMunicipalityByCode(ctx context.Context, code string) (*models.Municipality, error)
	ListProvinces(ctx context.Context, activeOnly bool) ([]models.ProvinceSummary, error)
	ListActiveMunicipalities(ctx context.Context, provinceID string, includeDistricts bool) ([]models.Municipality, error)
	ListBarangays(ctx context.Context, municipalityID string) ([]models.Barangay, error)
	GetProvince(ctx context.Context, id string) (*models.Province, error)
	GetMunicipality(ctx context.Context, id string) (*models.Municipality, error)
	GetBarangay(ctx context.Context, id string) (*models.Barangay, error)
	ListMunicipalityCodes(ctx context.Context) ([]models.LocationCheck, error)
}

// psgcPrefixLen is the number of leading PSGC digits shared by a province and its municipalities.
const psgcPrefixLen = 4

// newlyCreatedPrefix marks municipalities created after the last PSGC renumbering.
const newlyCreatedPrefix = "1999"

// LocationService serves the location dropdowns and checks location paths on writes.
type LocationService struct {
	repo   locationRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewLocationService constructs the service. A nil cache disables caching.
func NewLocationService(repo locationRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Directory exposes the code lookups used by visibility resolution.
func (s *LocationService) Directory() visibility.Directory {
	return s.repo
}

// Provinces lists active provinces for the dropdown.
func (s *LocationService) Provinces(ctx context.Context) ([]models.ProvinceSummary, error) {
	const key = "locations:provinces"
	var provinces []models.ProvinceSummary
	if s.fromCache(ctx, key, &provinces) {
		return provinces, nil
	}

	provinces, err := s.repo.ListProvinces(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list provinces")
	}
	s.toCache(ctx, key, provinces)
	return provinces, nil
}

// Municipalities lists the active municipalities of the province with the given code.
func (s *LocationService) Municipalities(ctx context.Context, provinceCode string, includeDistricts bool) ([]models.Municipality, error) {
	key := fmt.Sprintf("locations:province:%s:municipalities:%t", provinceCode, includeDistricts)
	var municipalities []models.Municipality
	if s.fromCache(ctx, key, &municipalities) {
		return municipalities, nil
	}

	province, err := s.repo.FindProvince(ctx, provinceCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load province")
	}
	if province == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "province not found")
	}

	municipalities, err = s.repo.ListActiveMunicipalities(ctx, province.ID, includeDistricts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list municipalities")
	}
	s.toCache(ctx, key, municipalities)
	return municipalities, nil
}

// Barangays lists the barangays of the municipality with the given code.
func (s *LocationService) Barangays(ctx context.Context, municipalityCode string) ([]models.Barangay, error) {
	key := fmt.Sprintf("locations:municipality:%s:barangays", municipalityCode)
	var barangays []models.Barangay
	if s.fromCache(ctx, key, &barangays) {
		return barangays, nil
	}

	municipality, err := s.repo.FindMunicipalityByCode(ctx, municipalityCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load municipality")
	}
	if municipality == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "municipality not found")
	}

	barangays, err = s.repo.ListBarangays(ctx, municipality.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list barangays")
	}
	s.toCache(ctx, key, barangays)
	return barangays, nil
}

// ProvinceSummary loads the dropdown projection of a province by id.
func (s *LocationService) ProvinceSummary(ctx context.Context, id string) (*models.ProvinceSummary, error) {
	province, err := s.repo.GetProvince(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "province not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load province")
	}
	return &models.ProvinceSummary{ID: province.ID, Name: province.Name, Code: province.Code, Featured: province.Featured}, nil
}

// ValidateLocation checks that the references of loc exist and form a path down the tree.
// Coarser levels left empty are filled from the finer ones.
func (s *LocationService) ValidateLocation(ctx context.Context, loc models.Location) (models.Location, error) {
	loc = trimLocation(loc)

	if loc.BarangayID != nil {
		barangay, err := s.repo.GetBarangay(ctx, *loc.BarangayID)
		if err != nil {
			return loc, lookupError(err, "barangay")
		}
		if loc.MunicipalityID == nil {
			loc.MunicipalityID = &barangay.MunicipalityID
		} else if *loc.MunicipalityID != barangay.MunicipalityID {
			return loc, appErrors.Clone(appErrors.ErrInconsistentPlace, "barangay does not belong to the selected municipality")
		}
	}

	if loc.MunicipalityID != nil {
		municipality, err := s.repo.GetMunicipality(ctx, *loc.MunicipalityID)
		if err != nil {
			return loc, lookupError(err, "municipality")
		}
		if loc.ProvinceID == nil {
			loc.ProvinceID = &municipality.ProvinceID
		} else if *loc.ProvinceID != municipality.ProvinceID {
			return loc, appErrors.Clone(appErrors.ErrInconsistentPlace, "municipality does not belong to the selected province")
		}
	}

	if loc.ProvinceID != nil {
		if _, err := s.repo.GetProvince(ctx, *loc.ProvinceID); err != nil {
			return loc, lookupError(err, "province")
		}
	}
	return loc, nil
}

// CheckCodePrefixes reports municipalities whose PSGC prefix disagrees with their province.
// Sub-municipality districts and newly created municipalities are exempt.
func (s *LocationService) CheckCodePrefixes(ctx context.Context) ([]models.LocationCheck, error) {
	rows, err := s.repo.ListMunicipalityCodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load municipality codes")
	}

	misplaced := []models.LocationCheck{}
	for _, row := range rows {
		if row.MunicipalityKind == string(models.MunicipalityKindSubMunicipality) {
			continue
		}
		if strings.HasPrefix(row.MunicipalityCode, newlyCreatedPrefix) {
			continue
		}
		if codePrefix(row.MunicipalityCode) == codePrefix(row.ProvinceCode) {
			continue
		}
		misplaced = append(misplaced, row)
	}
	if len(misplaced) > 0 {
		s.logger.Warn("municipality codes disagree with their province", zap.Int("count", len(misplaced)))
	}
	return misplaced, nil
}

func codePrefix(code string) string {
	if len(code) < psgcPrefixLen {
		return code
	}
	return code[:psgcPrefixLen]
}

func trimLocation(loc models.Location) models.Location {
	clean := func(ref *string) *string {
		if ref == nil {
			return nil
		}
		v := strings.TrimSpace(*ref)
		if v == "" {
			return nil
		}
		return &v
	}
	return models.Location{
		ProvinceID:     clean(loc.ProvinceID),
		MunicipalityID: clean(loc.MunicipalityID),
		BarangayID:     clean(loc.BarangayID),
	}
}

func lookupError(err error, level string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown %s", level))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", level))
}

func (s *LocationService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if !s.cache.Enabled() {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *LocationService) toCache(ctx context.Context, key string, value interface{}) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.Set(ctx, key, value, s.ttl)
}
