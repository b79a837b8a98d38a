package visibility

// StoredPlan selects the records stored at or beneath the resolved scope and nothing that
// merely cascades into it. Moderation views use it to see everything filed in their area,
// regardless of flags or priority. Expiry is never applied.
func StoredPlan(entity Entity, r Resolved) Plan {
	plan := Plan{Entity: entity, Level: r.Scope.Level()}
	if r.Unresolvable {
		plan.Empty = true
		return plan
	}
	if r.ProvinceID == "" {
		return plan
	}
	plan.Tiers = []Tier{{
		Name:           "stored",
		Kind:           TierExact,
		ProvinceID:     r.ProvinceID,
		MunicipalityID: r.MunicipalityID,
		BarangayID:     r.BarangayID,
	}}
	return plan
}
