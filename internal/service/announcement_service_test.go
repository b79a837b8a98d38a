package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbernadas/islalist-pwa/internal/models"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

var manilaZone = time.FixedZone("PHT", 8*60*60)

func newAnnouncementFixture(rows ...models.Announcement) (*AnnouncementService, *memAnnouncements) {
	repo := &memAnnouncements{rows: rows}
	locSvc := NewLocationService(newMemLocations(), nil, time.Hour, nil)
	svc := NewAnnouncementService(repo, locSvc, locSvc.Directory(), nil, nil, nil, manilaZone)
	// 2024-03-15 00:30 in Manila is still the 14th in UTC.
	svc.now = func() time.Time { return time.Date(2024, 3, 14, 16, 30, 0, 0, time.UTC) }
	return svc, repo
}

func announcement(id string, priority models.AnnouncementPriority, loc models.Location) models.Announcement {
	return models.Announcement{ID: id, Title: id, Priority: priority, Location: loc, IsActive: true, AuthorID: "author"}
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func announcementIDsOf(rows []models.Announcement) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestAnnouncementServiceListBarangayGates(t *testing.T) {
	tagumWideHigh := announcement("tagum-high", models.PriorityHigh, models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m1")})
	tagumWideHigh.IsMunicipalityWide = true
	tagumWideLow := announcement("tagum-low", models.PriorityLow, models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m1")})
	tagumWideLow.IsMunicipalityWide = true
	provinceUrgent := announcement("province-urgent", models.PriorityUrgent, models.Location{ProvinceID: strRef("p1")})
	provinceUrgent.IsProvinceWide = true
	provinceHigh := announcement("province-high", models.PriorityHigh, models.Location{ProvinceID: strRef("p1")})
	provinceHigh.IsProvinceWide = true
	local := announcement("apokon", models.PriorityLow, models.Location{ProvinceID: strRef("p1"), MunicipalityID: strRef("m1"), BarangayID: strRef("b1")})

	svc, _ := newAnnouncementFixture(tagumWideHigh, tagumWideLow, provinceUrgent, provinceHigh, local)
	rows, _, err := svc.List(context.Background(), AnnouncementListRequest{
		Scope: ScopeQuery{Province: "112300000", Municipality: "112314000", Barangay: "112314001"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"apokon", "tagum-high", "province-urgent"}, announcementIDsOf(rows))
}

func TestAnnouncementServiceListExpiryUsesLocalDay(t *testing.T) {
	yesterday := announcement("yesterday", models.PriorityLow, models.Location{})
	yesterday.ExpiryDate = day(2024, 3, 14)
	today := announcement("today", models.PriorityLow, models.Location{})
	today.ExpiryDate = day(2024, 3, 15)
	open := announcement("open", models.PriorityLow, models.Location{})

	svc, repo := newAnnouncementFixture(yesterday, today, open)

	rows, _, err := svc.List(context.Background(), AnnouncementListRequest{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"today", "open"}, announcementIDsOf(rows))
	require.NotNil(t, repo.lastPlan.ExpiryCutoff)
	assert.Equal(t, "2024-03-15", repo.lastPlan.ExpiryCutoff.Format("2006-01-02"))

	rows, _, err = svc.List(context.Background(), AnnouncementListRequest{IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestAnnouncementServiceListForcesActive(t *testing.T) {
	hidden := announcement("hidden", models.PriorityLow, models.Location{})
	hidden.IsActive = false
	svc, repo := newAnnouncementFixture(hidden, announcement("shown", models.PriorityLow, models.Location{}))

	inactive := false
	rows, _, err := svc.List(context.Background(), AnnouncementListRequest{Filter: models.AnnouncementFilter{Active: &inactive}})
	require.NoError(t, err)
	assert.Equal(t, []string{"shown"}, announcementIDsOf(rows))
	assert.True(t, *repo.lastFilter.Active)
}

func TestAnnouncementServiceCreateDefaults(t *testing.T) {
	svc, _ := newAnnouncementFixture()
	expiry := "2024-04-01"

	ann, err := svc.Create(context.Background(), "author-1", AnnouncementRequest{
		Title:          "Water interruption",
		Description:    "Scheduled maintenance",
		ExpiryDate:     &expiry,
		IsProvinceWide: true,
		LocationInput:  LocationInput{ProvinceID: strRef("p1")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, ann.Priority)
	assert.Equal(t, models.AnnouncementTypeGeneral, ann.Type)
	assert.True(t, ann.IsActive)
	assert.Equal(t, "author-1", ann.AuthorID)
	require.NotNil(t, ann.ExpiryDate)
	assert.Equal(t, "2024-04-01", ann.ExpiryDate.Format("2006-01-02"))
}

func TestAnnouncementServiceCreateValidation(t *testing.T) {
	svc, _ := newAnnouncementFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "a", AnnouncementRequest{Title: "t", Description: "d", Priority: "critical"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Create(ctx, "a", AnnouncementRequest{Title: "t", Description: "d", Type: "rumour"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	bad := "15/03/2024"
	_, err = svc.Create(ctx, "a", AnnouncementRequest{Title: "t", Description: "d", ExpiryDate: &bad})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestAnnouncementServiceAuthorOnly(t *testing.T) {
	svc, repo := newAnnouncementFixture(announcement("a1", models.PriorityLow, models.Location{}))
	ctx := context.Background()
	req := AnnouncementRequest{Title: "edited", Description: "d", Priority: "urgent"}

	_, err := svc.Update(ctx, "someone", "a1", req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotOwner.Code))
	assert.True(t, appErrors.IsCode(svc.Delete(ctx, "someone", "a1"), appErrors.ErrNotOwner.Code))

	updated, err := svc.Update(ctx, "author", "a1", req)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, updated.Priority)

	require.NoError(t, svc.Delete(ctx, "author", "a1"))
	assert.Empty(t, repo.rows)

	_, err = svc.Get(ctx, "a1")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestAnnouncementServiceGetHidesUnpublished(t *testing.T) {
	unpublished := announcement("a1", models.PriorityHigh, models.Location{})
	unpublished.IsActive = false
	svc, _ := newAnnouncementFixture(unpublished, announcement("a2", models.PriorityLow, models.Location{}))
	ctx := context.Background()

	_, err := svc.Get(ctx, "a1")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	got, err := svc.Get(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.ID)

	require.NoError(t, svc.Delete(ctx, "author", "a1"))
}
