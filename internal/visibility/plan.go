package visibility

import (
	"time"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// Entity names the kind of content a plan applies to.
type Entity string

const (
	EntityListing      Entity = "listing"
	EntityAnnouncement Entity = "announcement"
)

// TierKind separates same-level matches from matches reaching down from a coarser scope.
type TierKind string

const (
	TierExact   TierKind = "exact"
	TierCascade TierKind = "cascade"
)

// Tier is one disjunct of the inclusion predicate. Every non-zero field is a conjunct:
// id fields require equality, *Null fields require the reference to be null, Require*Wide
// fields require the flag to be set, and MinPriority gates on priority.
type Tier struct {
	Name string
	Kind TierKind

	ProvinceID     string
	MunicipalityID string
	BarangayID     string

	MunicipalityNull bool
	BarangayNull     bool

	RequireProvinceWide     bool
	RequireMunicipalityWide bool
	MinPriority             models.AnnouncementPriority
}

// Gated reports whether the tier only admits records at or above a priority.
func (t Tier) Gated() bool {
	return t.MinPriority != ""
}

// attributes is the slice of a content record that tiers inspect.
type attributes struct {
	loc              models.Location
	provinceWide     bool
	municipalityWide bool
	priority         models.AnnouncementPriority
}

func (t Tier) admits(a attributes) bool {
	if t.ProvinceID != "" && !refEquals(a.loc.ProvinceID, t.ProvinceID) {
		return false
	}
	if t.MunicipalityID != "" && !refEquals(a.loc.MunicipalityID, t.MunicipalityID) {
		return false
	}
	if t.BarangayID != "" && !refEquals(a.loc.BarangayID, t.BarangayID) {
		return false
	}
	if t.MunicipalityNull && a.loc.MunicipalityID != nil {
		return false
	}
	if t.BarangayNull && a.loc.BarangayID != nil {
		return false
	}
	if t.RequireProvinceWide && !a.provinceWide {
		return false
	}
	if t.RequireMunicipalityWide && !a.municipalityWide {
		return false
	}
	if t.Gated() && !a.priority.AtLeast(t.MinPriority) {
		return false
	}
	return true
}

func refEquals(ref *string, id string) bool {
	return ref != nil && *ref == id
}

// Plan is the complete visibility decision for one request: the union of its tiers,
// narrowed by the expiry cutoff when one is set.
type Plan struct {
	Entity Entity
	Level  models.LocationLevel
	// Empty means an unresolvable code was supplied and nothing is visible.
	Empty bool
	Tiers []Tier
	// ExpiryCutoff excludes records whose expiry date falls strictly before it.
	ExpiryCutoff *time.Time
}

// Unfiltered reports whether the plan places no location constraint.
func (p Plan) Unfiltered() bool {
	return !p.Empty && len(p.Tiers) == 0
}

// Outcome classifies the plan for metrics and logs.
func (p Plan) Outcome() string {
	switch {
	case p.Empty:
		return "empty"
	case p.Unfiltered():
		return "unfiltered"
	default:
		return "filtered"
	}
}

// TierNames lists the tier names in evaluation order.
func (p Plan) TierNames() []string {
	names := make([]string, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		names = append(names, t.Name)
	}
	return names
}

// MatchListing reports whether the listing is visible under the plan.
func (p Plan) MatchListing(l models.Listing) bool {
	return p.match(attributes{loc: l.Location})
}

// MatchAnnouncement reports whether the announcement is visible under the plan.
func (p Plan) MatchAnnouncement(a models.Announcement) bool {
	if p.ExpiryCutoff != nil && a.ExpiredOn(*p.ExpiryCutoff) {
		return false
	}
	return p.match(attributes{
		loc:              a.Location,
		provinceWide:     a.IsProvinceWide,
		municipalityWide: a.IsMunicipalityWide,
		priority:         a.Priority,
	})
}

func (p Plan) match(a attributes) bool {
	if p.Empty {
		return false
	}
	if len(p.Tiers) == 0 {
		return true
	}
	for _, t := range p.Tiers {
		if t.admits(a) {
			return true
		}
	}
	return false
}
