package repository

import (
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
)

const dateLayout = "2006-01-02"

// matchNothing is the predicate for plans built from unresolvable codes.
const matchNothing = "1 = 0"

// planConditions compiles a visibility plan into WHERE fragments bound to sb. An unfiltered
// plan contributes nothing; otherwise the tiers become one OR group of AND groups.
func planConditions(sb *sqlbuilder.SelectBuilder, plan visibility.Plan) []string {
	var where []string
	if plan.ExpiryCutoff != nil {
		where = append(where, sb.Or(
			sb.IsNull("expiry_date"),
			sb.GreaterEqualThan("expiry_date", plan.ExpiryCutoff.Format(dateLayout)),
		))
	}
	if plan.Empty {
		return append(where, matchNothing)
	}
	if len(plan.Tiers) == 0 {
		return where
	}

	tiers := make([]string, 0, len(plan.Tiers))
	for _, tier := range plan.Tiers {
		tiers = append(tiers, tierCondition(sb, tier))
	}
	return append(where, sb.Or(tiers...))
}

func tierCondition(sb *sqlbuilder.SelectBuilder, tier visibility.Tier) string {
	var conds []string
	if tier.ProvinceID != "" {
		conds = append(conds, sb.Equal("province_id", tier.ProvinceID))
	}
	if tier.MunicipalityID != "" {
		conds = append(conds, sb.Equal("municipality_id", tier.MunicipalityID))
	}
	if tier.BarangayID != "" {
		conds = append(conds, sb.Equal("barangay_id", tier.BarangayID))
	}
	if tier.MunicipalityNull {
		conds = append(conds, sb.IsNull("municipality_id"))
	}
	if tier.BarangayNull {
		conds = append(conds, sb.IsNull("barangay_id"))
	}
	if tier.RequireProvinceWide {
		conds = append(conds, sb.Equal("is_province_wide", true))
	}
	if tier.RequireMunicipalityWide {
		conds = append(conds, sb.Equal("is_municipality_wide", true))
	}
	if tier.Gated() {
		conds = append(conds, sb.In("priority", priorityArgs(models.PrioritiesAtLeast(tier.MinPriority))...))
	}
	if len(conds) == 0 {
		return "1 = 1"
	}
	return sb.And(conds...)
}

func priorityArgs(priorities []models.AnnouncementPriority) []interface{} {
	args := make([]interface{}, 0, len(priorities))
	for _, p := range priorities {
		args = append(args, string(p))
	}
	return args
}

// likeEscaper quotes LIKE wildcards with the default Postgres escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// searchCondition matches the term case-insensitively against any of the columns.
func searchCondition(sb *sqlbuilder.SelectBuilder, term string, columns ...string) string {
	pattern := likePattern(term)
	conds := make([]string, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, sb.Like("LOWER("+col+")", pattern))
	}
	return sb.Or(conds...)
}

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
