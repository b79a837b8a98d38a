package models

import "time"

// MunicipalityKind distinguishes ordinary municipalities, cities and sub-municipality districts.
type MunicipalityKind string

const (
	MunicipalityKindMunicipality    MunicipalityKind = "MUN"
	MunicipalityKindCity            MunicipalityKind = "CITY"
	MunicipalityKindSubMunicipality MunicipalityKind = "SUBMUN"
)

// Province is the root of the location hierarchy.
type Province struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	Active      bool      `db:"active" json:"active"`
	Featured    bool      `db:"featured" json:"featured"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Municipality is a city, municipality or sub-municipality district owned by exactly one province.
type Municipality struct {
	ID         string           `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	Code       string           `db:"code" json:"code"`
	ProvinceID string           `db:"province_id" json:"province_id"`
	Kind       MunicipalityKind `db:"kind" json:"kind"`
	Active     bool             `db:"active" json:"active"`
}

// IsSubMunicipality reports whether the row is a capital-region district.
func (m Municipality) IsSubMunicipality() bool {
	return m.Kind == MunicipalityKindSubMunicipality
}

// Barangay is the leaf of the location hierarchy. Names may repeat inside a municipality.
type Barangay struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Code           string `db:"code" json:"code"`
	MunicipalityID string `db:"municipality_id" json:"municipality_id"`
}

// ProvinceSummary is the dropdown projection of a province.
type ProvinceSummary struct {
	ID                string `db:"id" json:"id"`
	Name              string `db:"name" json:"name"`
	Code              string `db:"code" json:"code"`
	Featured          bool   `db:"featured" json:"featured"`
	MunicipalityCount int    `db:"municipality_count" json:"municipality_count"`
}

// Location tags a content record with three independent, nullable hierarchy references.
type Location struct {
	ProvinceID     *string `db:"province_id" json:"province_id"`
	MunicipalityID *string `db:"municipality_id" json:"municipality_id"`
	BarangayID     *string `db:"barangay_id" json:"barangay_id"`
}

// LocationLevel names a depth in the province/municipality/barangay tree.
type LocationLevel int

const (
	LocationLevelNone LocationLevel = iota
	LocationLevelProvince
	LocationLevelMunicipality
	LocationLevelBarangay
)

// String returns the lowercase level name.
func (l LocationLevel) String() string {
	switch l {
	case LocationLevelProvince:
		return "province"
	case LocationLevelMunicipality:
		return "municipality"
	case LocationLevelBarangay:
		return "barangay"
	default:
		return "none"
	}
}

// LocationCheck reports a municipality whose code prefix disagrees with its province.
type LocationCheck struct {
	ProvinceCode     string `db:"province_code" json:"province_code"`
	ProvinceName     string `db:"province_name" json:"province_name"`
	MunicipalityCode string `db:"municipality_code" json:"municipality_code"`
	MunicipalityName string `db:"municipality_name" json:"municipality_name"`
	MunicipalityKind string `db:"municipality_kind" json:"municipality_kind"`
}
