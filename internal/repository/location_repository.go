package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// LocationRepository reads the province, municipality and barangay directory.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs the repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

const (
	provinceColumns     = `id, name, code, active, featured, description, created_at, updated_at`
	municipalityColumns = `id, name, code, province_id, kind, active`
	barangayColumns     = `id, name, COALESCE(code, '') AS code, municipality_id`
)

// FindProvince looks a province up by code. A missing province is (nil, nil).
func (r *LocationRepository) FindProvince(ctx context.Context, code string) (*models.Province, error) {
	query := `SELECT ` + provinceColumns + ` FROM provinces WHERE code = $1 LIMIT 1`
	var province models.Province
	if err := r.db.GetContext(ctx, &province, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find province by code: %w", err)
	}
	return &province, nil
}

// FindMunicipality looks a municipality up by code within a province. A missing one is (nil, nil).
func (r *LocationRepository) FindMunicipality(ctx context.Context, code, provinceID string) (*models.Municipality, error) {
	query := `SELECT ` + municipalityColumns + ` FROM municipalities WHERE code = $1 AND province_id = $2 LIMIT 1`
	var municipality models.Municipality
	if err := r.db.GetContext(ctx, &municipality, query, code, provinceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find municipality by code: %w", err)
	}
	return &municipality, nil
}

// FindMunicipalityByCode looks a municipality up by its nationally unique code. A missing one is (nil, nil).
func (r *LocationRepository) FindMunicipalityByCode(ctx context.Context, code string) (*models.Municipality, error) {
	query := `SELECT ` + municipalityColumns + ` FROM municipalities WHERE code = $1`
	var municipality models.Municipality
	if err := r.db.GetContext(ctx, &municipality, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find municipality by code: %w", err)
	}
	return &municipality, nil
}

// FindBarangay looks a barangay up by code within a municipality. A missing one is (nil, nil).
func (r *LocationRepository) FindBarangay(ctx context.Context, code, municipalityID string) (*models.Barangay, error) {
	query := `SELECT ` + barangayColumns + ` FROM barangays WHERE code = $1 AND municipality_id = $2 LIMIT 1`
	var barangay models.Barangay
	if err := r.db.GetContext(ctx, &barangay, query, code, municipalityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find barangay by code: %w", err)
	}
	return &barangay, nil
}

// ListProvinces returns provinces with their active municipality counts, featured first.
func (r *LocationRepository) ListProvinces(ctx context.Context, activeOnly bool) ([]models.ProvinceSummary, error) {
	const query = `SELECT p.id, p.name, p.code, p.featured,
        COUNT(m.id) FILTER (WHERE m.active) AS municipality_count
        FROM provinces p LEFT JOIN municipalities m ON m.province_id = p.id
        WHERE (NOT $1::boolean OR p.active) GROUP BY p.id ORDER BY p.featured DESC, p.name ASC`
	provinces := []models.ProvinceSummary{}
	if err := r.db.SelectContext(ctx, &provinces, query, activeOnly); err != nil {
		return nil, fmt.Errorf("list provinces: %w", err)
	}
	return provinces, nil
}

// GetProvince returns a province by id or sql.ErrNoRows.
func (r *LocationRepository) GetProvince(ctx context.Context, id string) (*models.Province, error) {
	query := `SELECT ` + provinceColumns + ` FROM provinces WHERE id = $1`
	var province models.Province
	if err := r.db.GetContext(ctx, &province, query, id); err != nil {
		err = noRowsOnMalformedID(err)
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get province: %w", err)
	}
	return &province, nil
}

// GetMunicipality returns a municipality by id or sql.ErrNoRows.
func (r *LocationRepository) GetMunicipality(ctx context.Context, id string) (*models.Municipality, error) {
	query := `SELECT ` + municipalityColumns + ` FROM municipalities WHERE id = $1`
	var municipality models.Municipality
	if err := r.db.GetContext(ctx, &municipality, query, id); err != nil {
		err = noRowsOnMalformedID(err)
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get municipality: %w", err)
	}
	return &municipality, nil
}

// GetBarangay returns a barangay by id or sql.ErrNoRows.
func (r *LocationRepository) GetBarangay(ctx context.Context, id string) (*models.Barangay, error) {
	query := `SELECT ` + barangayColumns + ` FROM barangays WHERE id = $1`
	var barangay models.Barangay
	if err := r.db.GetContext(ctx, &barangay, query, id); err != nil {
		err = noRowsOnMalformedID(err)
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get barangay: %w", err)
	}
	return &barangay, nil
}

// ListActiveMunicipalities returns the active municipalities of a province by name.
// Sub-municipality districts are left out unless requested.
func (r *LocationRepository) ListActiveMunicipalities(ctx context.Context, provinceID string, includeDistricts bool) ([]models.Municipality, error) {
	query := `SELECT ` + municipalityColumns + ` FROM municipalities
        WHERE province_id = $1 AND active AND ($2::boolean OR kind <> 'SUBMUN') ORDER BY name ASC`
	municipalities := []models.Municipality{}
	if err := r.db.SelectContext(ctx, &municipalities, query, provinceID, includeDistricts); err != nil {
		return nil, fmt.Errorf("list municipalities: %w", err)
	}
	return municipalities, nil
}

// ListBarangays returns the barangays of a municipality by name.
func (r *LocationRepository) ListBarangays(ctx context.Context, municipalityID string) ([]models.Barangay, error) {
	query := `SELECT ` + barangayColumns + ` FROM barangays WHERE municipality_id = $1 ORDER BY name ASC`
	barangays := []models.Barangay{}
	if err := r.db.SelectContext(ctx, &barangays, query, municipalityID); err != nil {
		return nil, fmt.Errorf("list barangays: %w", err)
	}
	return barangays, nil
}

// ListMunicipalityCodes returns every municipality joined with its province code for integrity checks.
func (r *LocationRepository) ListMunicipalityCodes(ctx context.Context) ([]models.LocationCheck, error) {
	const query = `SELECT p.code AS province_code, p.name AS province_name,
        m.code AS municipality_code, m.name AS municipality_name, m.kind AS municipality_kind
        FROM municipalities m JOIN provinces p ON p.id = m.province_id ORDER BY p.code, m.code`
	rows := []models.LocationCheck{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list municipality codes: %w", err)
	}
	return rows, nil
}
