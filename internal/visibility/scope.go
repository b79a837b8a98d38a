// Package visibility decides which listings and announcements are visible for a requested
// province / municipality / barangay scope.
//
// Listings and announcements cascade differently. A listing whose finer location fields are
// null is visible everywhere beneath its coarsest set field, unconditionally. An announcement
// only reaches below its own level through explicit wide-scope flags, and at barangay level
// that reach is gated by priority.
package visibility

import (
	"fmt"
	"strings"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// Scope is the requested location scope. Construct it with NoScope, ProvinceScope,
// MunicipalityScope, BarangayScope or ParseScope; every level implies all coarser levels.
type Scope struct {
	level        models.LocationLevel
	province     string
	municipality string
	barangay     string
	truncated    bool
}

// NoScope matches every location.
func NoScope() Scope {
	return Scope{level: models.LocationLevelNone}
}

// ProvinceScope requests a single province.
func ProvinceScope(province string) Scope {
	return Scope{level: models.LocationLevelProvince, province: province}
}

// MunicipalityScope requests a municipality inside a province.
func MunicipalityScope(province, municipality string) Scope {
	return Scope{level: models.LocationLevelMunicipality, province: province, municipality: municipality}
}

// BarangayScope requests a barangay inside a municipality inside a province.
func BarangayScope(province, municipality, barangay string) Scope {
	return Scope{level: models.LocationLevelBarangay, province: province, municipality: municipality, barangay: barangay}
}

// ParseScope builds a scope from raw query values. Codes are opaque: only surrounding
// whitespace is removed. A level supplied without every coarser level is dropped together
// with everything below it, so the result is the coarsest complete prefix of the input.
func ParseScope(province, municipality, barangay string) Scope {
	p := strings.TrimSpace(province)
	m := strings.TrimSpace(municipality)
	b := strings.TrimSpace(barangay)

	var s Scope
	switch {
	case p == "":
		s = NoScope()
	case m == "":
		s = ProvinceScope(p)
	case b == "":
		s = MunicipalityScope(p, m)
	default:
		return BarangayScope(p, m, b)
	}
	s.truncated = (p == "" && (m != "" || b != "")) || (m == "" && b != "")
	return s
}

// Level is the finest level the scope constrains.
func (s Scope) Level() models.LocationLevel { return s.level }

// ProvinceCode returns the requested province code, empty below LevelProvince.
func (s Scope) ProvinceCode() string { return s.province }

// MunicipalityCode returns the requested municipality code when the scope reaches that level.
func (s Scope) MunicipalityCode() string { return s.municipality }

// BarangayCode returns the requested barangay code when the scope reaches that level.
func (s Scope) BarangayCode() string { return s.barangay }

// Truncated reports whether ParseScope discarded finer codes that lacked a coarser parent.
func (s Scope) Truncated() bool { return s.truncated }

// Key is a stable representation usable in cache keys and logs.
func (s Scope) Key() string {
	switch s.level {
	case models.LocationLevelProvince:
		return "p:" + s.province
	case models.LocationLevelMunicipality:
		return fmt.Sprintf("p:%s/m:%s", s.province, s.municipality)
	case models.LocationLevelBarangay:
		return fmt.Sprintf("p:%s/m:%s/b:%s", s.province, s.municipality, s.barangay)
	default:
		return "all"
	}
}

func (s Scope) String() string { return s.Key() }
