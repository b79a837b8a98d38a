package visibility

import (
	"context"
	"time"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

const (
	// municipalityWideGate is the minimum priority for a municipality-wide notice to reach its barangays.
	municipalityWideGate = models.PriorityHigh
	// provinceWideBarangayGate is the minimum priority for a province-wide notice to reach barangays.
	provinceWideBarangayGate = models.PriorityUrgent
)

// AnnouncementOptions carries the per-request knobs of announcement resolution.
type AnnouncementOptions struct {
	// IncludeExpired disables expiry exclusion entirely.
	IncludeExpired bool
	// Today is the reference day; only its calendar date is used.
	Today time.Time
}

// AnnouncementPlan builds the announcement cascade. Exact-level matches are unconditional;
// matches reaching down from a coarser level need the matching wide flag, and at barangay
// level also a minimum priority.
func AnnouncementPlan(r Resolved, opts AnnouncementOptions) Plan {
	plan := Plan{Entity: EntityAnnouncement, Level: r.Scope.Level()}
	if !opts.IncludeExpired {
		cutoff := models.CalendarDate(opts.Today)
		plan.ExpiryCutoff = &cutoff
	}
	if r.Unresolvable {
		plan.Empty = true
		return plan
	}

	switch r.Scope.Level() {
	case models.LocationLevelProvince:
		plan.Tiers = []Tier{
			{Name: "province", Kind: TierExact, ProvinceID: r.ProvinceID},
		}
	case models.LocationLevelMunicipality:
		plan.Tiers = []Tier{
			{Name: "municipality", Kind: TierExact, ProvinceID: r.ProvinceID, MunicipalityID: r.MunicipalityID},
			{Name: "province-wide", Kind: TierCascade, ProvinceID: r.ProvinceID, RequireProvinceWide: true},
		}
	case models.LocationLevelBarangay:
		plan.Tiers = []Tier{
			{Name: "barangay", Kind: TierExact, ProvinceID: r.ProvinceID, MunicipalityID: r.MunicipalityID, BarangayID: r.BarangayID},
			{Name: "municipality-wide", Kind: TierCascade, ProvinceID: r.ProvinceID, MunicipalityID: r.MunicipalityID, RequireMunicipalityWide: true, MinPriority: municipalityWideGate},
			{Name: "province-wide", Kind: TierCascade, ProvinceID: r.ProvinceID, RequireProvinceWide: true, MinPriority: provinceWideBarangayGate},
		}
	}
	return plan
}

// ResolveAnnouncements narrows base to the announcements visible at scope, excluding
// expired ones unless opts.IncludeExpired is set.
func ResolveAnnouncements(ctx context.Context, dir Directory, base []models.Announcement, scope Scope, opts AnnouncementOptions) ([]models.Announcement, error) {
	resolved, err := ResolveScope(ctx, dir, scope)
	if err != nil {
		return nil, err
	}
	return FilterAnnouncements(base, AnnouncementPlan(resolved, opts)), nil
}

// FilterAnnouncements applies an already built plan to base.
func FilterAnnouncements(base []models.Announcement, plan Plan) []models.Announcement {
	out := make([]models.Announcement, 0, len(base))
	for _, a := range base {
		if plan.MatchAnnouncement(a) {
			out = append(out, a)
		}
	}
	return out
}
