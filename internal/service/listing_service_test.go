package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jbernadas/islalist-pwa/internal/models"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

type listingFixture struct {
	svc       *ListingService
	repo      *memListings
	locations *memLocations
	metrics   *MetricsService
}

func newListingFixture(rows ...models.Listing) listingFixture {
	locations := newMemLocations()
	repo := &memListings{rows: rows}
	metrics := NewMetricsService()
	locSvc := NewLocationService(locations, nil, time.Hour, nil)
	categories := &memCategories{ids: map[string]bool{"cat-1": true}}
	svc := NewListingService(repo, categories, locSvc, locSvc.Directory(), metrics, nil, nil, 0)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	return listingFixture{svc: svc, repo: repo, locations: locations, metrics: metrics}
}

func activeListing(id, seller string, loc models.Location) models.Listing {
	return models.Listing{ID: id, Title: id, SellerID: seller, Status: models.ListingStatusActive, Location: loc}
}

func listingIDsOf(rows []models.Listing) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestListingServiceListCascades(t *testing.T) {
	f := newListingFixture(
		activeListing("in-apokon", "s1", models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m1"), BarangayID: strRef("b1")}),
		activeListing("tagum-wide", "s1", models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m1")}),
		activeListing("province-wide", "s1", models.Location{ProvinceID: strRef("p1")}),
		activeListing("in-bincungan", "s1", models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m1"), BarangayID: strRef("b2")}),
		activeListing("asuncion", "s1", models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m2")}),
		activeListing("other-province", "s1", models.Location{ProvinceID: strRef("p2")}),
	)

	rows, page, err := f.svc.List(context.Background(), ListingListRequest{
		Scope: ScopeQuery{Province: "112300000", Municipality: "112314000", Barangay: "112314001"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"in-apokon", "tagum-wide", "province-wide"}, listingIDsOf(rows))
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, []models.ListingStatus{models.ListingStatusActive}, f.repo.lastFilter.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.resolutions.WithLabelValues("listing", "barangay", "filtered")))
}

func TestListingServiceListHidesInactive(t *testing.T) {
	sold := activeListing("sold", "s1", models.Location{ProvinceID: strRef("p1")})
	sold.Status = models.ListingStatusSold
	f := newListingFixture(sold, activeListing("live", "s1", models.Location{ProvinceID: strRef("p1")}))

	rows, _, err := f.svc.List(context.Background(), ListingListRequest{Filter: models.ListingFilter{Status: []models.ListingStatus{models.ListingStatusSold}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, listingIDsOf(rows))
}

func TestListingServiceListUnknownCodeIsEmpty(t *testing.T) {
	f := newListingFixture(activeListing("a", "s1", models.Location{ProvinceID: strRef("p1")}))

	rows, page, err := f.svc.List(context.Background(), ListingListRequest{Scope: ScopeQuery{Province: "999999999"}})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Zero(t, page.TotalCount)
	assert.True(t, f.repo.lastPlan.Empty)
}

func TestListingServiceListLogsResolution(t *testing.T) {
	f := newListingFixture()
	core, logs := observer.New(zapcore.DebugLevel)
	f.svc.logger = zap.New(core)

	_, _, err := f.svc.List(context.Background(), ListingListRequest{Scope: ScopeQuery{Municipality: "112314000"}})
	require.NoError(t, err)
	_, _, err = f.svc.List(context.Background(), ListingListRequest{Scope: ScopeQuery{Province: "112300000", Municipality: "112314000"}})
	require.NoError(t, err)

	entries := logs.FilterMessage("visibility resolved").All()
	require.Len(t, entries, 2)
	assert.Equal(t, true, entries[0].ContextMap()["truncated"])
	assert.Equal(t, false, entries[1].ContextMap()["truncated"])
	assert.Equal(t, []interface{}{"municipality", "province-wide"}, entries[1].ContextMap()["tiers"])
}

func TestListingServiceListDirectoryFailure(t *testing.T) {
	f := newListingFixture()
	f.locations.err = errors.New("db down")

	_, _, err := f.svc.List(context.Background(), ListingListRequest{Scope: ScopeQuery{Province: "112300000"}})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}

func TestListingServiceGetCountsView(t *testing.T) {
	f := newListingFixture(activeListing("a", "s1", models.Location{}))

	listing, err := f.svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, listing.ViewsCount)
	assert.Equal(t, 1, f.repo.views["a"])

	_, err = f.svc.Get(context.Background(), "missing")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestListingServiceGetHidesInactiveListings(t *testing.T) {
	rows := []models.Listing{}
	for _, status := range []models.ListingStatus{models.ListingStatusHidden, models.ListingStatusSold, models.ListingStatusExpired} {
		l := activeListing(string(status), "s1", models.Location{})
		l.Status = status
		rows = append(rows, l)
	}
	f := newListingFixture(rows...)

	for _, l := range rows {
		_, err := f.svc.Get(context.Background(), l.ID)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code), l.ID)
		assert.Zero(t, f.repo.views[l.ID], l.ID)
	}

	updated, err := f.svc.MarkSold(context.Background(), "s1", "hidden")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, updated.Status)
}

func TestListingServiceCreate(t *testing.T) {
	f := newListingFixture()
	price := 2500000.0
	house := "house"

	listing, err := f.svc.Create(context.Background(), "seller-1", ListingRequest{
		Title:         "Bahay sa Apokon",
		Description:   "Two storey house",
		Price:         &price,
		PropertyType:  &house,
		CategoryID:    "cat-1",
		LocationInput: LocationInput{BarangayID: strRef("b1")},
	})
	require.NoError(t, err)
	assert.Equal(t, "seller-1", listing.SellerID)
	assert.Equal(t, models.ListingStatusActive, listing.Status)
	assert.Equal(t, models.ConditionNotApplicable, listing.Condition)
	assert.Equal(t, "p1", *listing.ProvinceID)
	assert.Equal(t, "m1", *listing.MunicipalityID)
	require.NotNil(t, listing.ExpiresAt)
	assert.Equal(t, time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC), *listing.ExpiresAt)
}

func TestListingServiceCreateRejects(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "s1", ListingRequest{Description: "no title", CategoryID: "cat-1"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = f.svc.Create(ctx, "s1", ListingRequest{Title: "t", Description: "d", CategoryID: "cat-404"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	bogus := "castle"
	_, err = f.svc.Create(ctx, "s1", ListingRequest{Title: "t", Description: "d", CategoryID: "cat-1", PropertyType: &bogus})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = f.svc.Create(ctx, "s1", ListingRequest{
		Title: "t", Description: "d", CategoryID: "cat-1",
		LocationInput: LocationInput{MunicipalityID: strRef("m2"), BarangayID: strRef("b1")},
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInconsistentPlace.Code))
}

func TestListingServiceOwnerOnly(t *testing.T) {
	f := newListingFixture(activeListing("a", "owner", models.Location{ProvinceID: strRef("p1")}))
	ctx := context.Background()
	req := ListingRequest{Title: "new", Description: "d", CategoryID: "cat-1"}

	_, err := f.svc.Update(ctx, "intruder", "a", req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotOwner.Code))
	_, err = f.svc.MarkSold(ctx, "intruder", "a")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotOwner.Code))
	assert.True(t, appErrors.IsCode(f.svc.Delete(ctx, "intruder", "a"), appErrors.ErrNotOwner.Code))

	updated, err := f.svc.Update(ctx, "owner", "a", req)
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)

	sold, err := f.svc.MarkSold(ctx, "owner", "a")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, sold.Status)

	require.NoError(t, f.svc.Delete(ctx, "owner", "a"))
	assert.Empty(t, f.repo.rows)
}

func TestListingServiceMine(t *testing.T) {
	hidden := activeListing("b", "me", models.Location{})
	hidden.Status = models.ListingStatusHidden
	f := newListingFixture(activeListing("a", "me", models.Location{}), hidden, activeListing("c", "you", models.Location{}))

	rows, err := f.svc.Mine(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, listingIDsOf(rows))
}
