package visibility

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

func TestStoredPlanExcludesCascade(t *testing.T) {
	dir := newDirectory()
	resolved, err := ResolveScope(context.Background(), dir, MunicipalityScope(codeP1, codeM1))
	require.NoError(t, err)

	plan := StoredPlan(EntityAnnouncement, resolved)
	require.Len(t, plan.Tiers, 1)
	assert.Nil(t, plan.ExpiryCutoff)

	inMunicipality := models.Announcement{ID: "in", Location: loc("p1", "m1", "")}
	inBarangay := models.Announcement{ID: "deeper", Location: loc("p1", "m1", "b1")}
	provinceWide := models.Announcement{ID: "wide", Location: loc("p1", "", ""), IsProvinceWide: true, Priority: models.PriorityUrgent}

	assert.True(t, plan.MatchAnnouncement(inMunicipality))
	assert.True(t, plan.MatchAnnouncement(inBarangay))
	assert.False(t, plan.MatchAnnouncement(provinceWide))
}

func TestStoredPlanProvince(t *testing.T) {
	dir := newDirectory()
	resolved, err := ResolveScope(context.Background(), dir, ProvinceScope(codeP1))
	require.NoError(t, err)

	plan := StoredPlan(EntityListing, resolved)
	assert.True(t, plan.MatchListing(models.Listing{Location: loc("p1", "m2", "")}))
	assert.False(t, plan.MatchListing(models.Listing{Location: loc("p2", "", "")}))
	assert.False(t, plan.MatchListing(models.Listing{}))
}

func TestStoredPlanUnresolvable(t *testing.T) {
	dir := newDirectory()
	resolved, err := ResolveScope(context.Background(), dir, MunicipalityScope(codeP1, "999999999"))
	require.NoError(t, err)

	plan := StoredPlan(EntityListing, resolved)
	assert.True(t, plan.Empty)
	assert.Equal(t, "empty", plan.Outcome())
}
