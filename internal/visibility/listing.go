package visibility

import (
	"context"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// ListingPlan builds the listing cascade. A listing is visible when its most specific
// non-null location is at or above the requested level and matches there; there is no
// priority gate and no flag, null finer references alone widen the listing.
func ListingPlan(r Resolved) Plan {
	plan := Plan{Entity: EntityListing, Level: r.Scope.Level()}
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
			{Name: "municipality", Kind: TierExact, MunicipalityID: r.MunicipalityID},
			{Name: "province-wide", Kind: TierCascade, ProvinceID: r.ProvinceID, MunicipalityNull: true},
		}
	case models.LocationLevelBarangay:
		plan.Tiers = []Tier{
			{Name: "barangay", Kind: TierExact, BarangayID: r.BarangayID},
			{Name: "municipality-wide", Kind: TierCascade, MunicipalityID: r.MunicipalityID, BarangayNull: true},
			{Name: "province-wide", Kind: TierCascade, ProvinceID: r.ProvinceID, MunicipalityNull: true},
		}
	}
	return plan
}

// ResolveListings narrows base to the listings visible at scope. The base order is kept
// and base is never widened. Unknown codes yield an empty, non-nil slice.
func ResolveListings(ctx context.Context, dir Directory, base []models.Listing, scope Scope) ([]models.Listing, error) {
	resolved, err := ResolveScope(ctx, dir, scope)
	if err != nil {
		return nil, err
	}
	return FilterListings(base, ListingPlan(resolved)), nil
}

// FilterListings applies an already built plan to base.
func FilterListings(base []models.Listing, plan Plan) []models.Listing {
	out := make([]models.Listing, 0, len(base))
	for _, l := range base {
		if plan.MatchListing(l) {
			out = append(out, l)
		}
	}
	return out
}
