package visibility

import (
	"context"
	"fmt"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// Directory looks up location records by their stable external code. Lookups are exact
// matches scoped to the parent; a missing record is (nil, nil), never an error.
type Directory interface {
	FindProvince(ctx context.Context, code string) (*models.Province, error)
	FindMunicipality(ctx context.Context, code, provinceID string) (*models.Municipality, error)
	FindBarangay(ctx context.Context, code, municipalityID string) (*models.Barangay, error)
}

// Resolved is a scope whose codes have been translated into directory ids.
type Resolved struct {
	Scope          Scope
	Unresolvable   bool
	FailedLevel    models.LocationLevel
	ProvinceID     string
	MunicipalityID string
	BarangayID     string
}

// ResolveScope looks every level of scope up in dir, each within its resolved parent.
// The first code that does not resolve marks the result Unresolvable.
func ResolveScope(ctx context.Context, dir Directory, scope Scope) (Resolved, error) {
	res := Resolved{Scope: scope}
	if scope.Level() == models.LocationLevelNone {
		return res, nil
	}

	province, err := dir.FindProvince(ctx, scope.ProvinceCode())
	if err != nil {
		return res, fmt.Errorf("find province %q: %w", scope.ProvinceCode(), err)
	}
	if province == nil {
		return res.fail(models.LocationLevelProvince), nil
	}
	res.ProvinceID = province.ID
	if scope.Level() == models.LocationLevelProvince {
		return res, nil
	}

	municipality, err := dir.FindMunicipality(ctx, scope.MunicipalityCode(), province.ID)
	if err != nil {
		return res, fmt.Errorf("find municipality %q: %w", scope.MunicipalityCode(), err)
	}
	if municipality == nil {
		return res.fail(models.LocationLevelMunicipality), nil
	}
	res.MunicipalityID = municipality.ID
	if scope.Level() == models.LocationLevelMunicipality {
		return res, nil
	}

	barangay, err := dir.FindBarangay(ctx, scope.BarangayCode(), municipality.ID)
	if err != nil {
		return res, fmt.Errorf("find barangay %q: %w", scope.BarangayCode(), err)
	}
	if barangay == nil {
		return res.fail(models.LocationLevelBarangay), nil
	}
	res.BarangayID = barangay.ID
	return res, nil
}

func (r Resolved) fail(level models.LocationLevel) Resolved {
	r.Unresolvable = true
	r.FailedLevel = level
	r.ProvinceID, r.MunicipalityID, r.BarangayID = "", "", ""
	return r
}
