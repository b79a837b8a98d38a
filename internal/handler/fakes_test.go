package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/service"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// staticTokens maps a fixed bearer token per role onto canned claims.
type staticTokens struct{}

func (staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "user":
		return &models.JWTClaims{UserID: "user-1", Username: "juan", Role: models.RoleUser}, nil
	case "moderator":
		return &models.JWTClaims{UserID: "mod-1", Username: "maria", Role: models.RoleModerator}, nil
	case "admin":
		return &models.JWTClaims{UserID: "admin-1", Username: "root", Role: models.RoleAdmin}, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type fakeServices struct {
	auth          *fakeAuth
	locations     *fakeLocations
	categories    *fakeCategories
	listings      *fakeListings
	announcements *fakeAnnouncements
	moderation    *fakeModeration
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeServices) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fakes := &fakeServices{
		auth:          &fakeAuth{},
		locations:     &fakeLocations{},
		categories:    &fakeCategories{slugs: map[string]string{"real-estate": "cat-re"}},
		listings:      &fakeListings{},
		announcements: &fakeAnnouncements{},
		moderation:    &fakeModeration{},
	}
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Auth:          NewAuthHandler(fakes.auth),
		Locations:     NewLocationHandler(fakes.locations),
		Categories:    NewCategoryHandler(fakes.categories),
		Listings:      NewListingHandler(fakes.listings, fakes.categories),
		Announcements: NewAnnouncementHandler(fakes.announcements),
		Moderation:    NewModerationHandler(fakes.moderation, nil),
	}, staticTokens{})
	return router, fakes
}

func performRequest(router *gin.Engine, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type fakeAuth struct {
	last models.LoginRequest
	err  error
}

func (f *fakeAuth) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "signed", ExpiresIn: 3600, User: models.UserInfo{ID: "user-1", Username: req.Username}}, nil
}

type fakeLocations struct {
	lastProvince     string
	includeDistricts bool
	checks           []models.LocationCheck
}

func (f *fakeLocations) Provinces(context.Context) ([]models.ProvinceSummary, error) {
	return []models.ProvinceSummary{{ID: "p1", Name: "Davao del Norte", Code: "112300000"}}, nil
}

func (f *fakeLocations) Municipalities(_ context.Context, code string, includeDistricts bool) ([]models.Municipality, error) {
	f.lastProvince = code
	f.includeDistricts = includeDistricts
	if code == "000000000" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "province not found")
	}
	return []models.Municipality{{ID: "m1", Name: "Tagum", Code: "112314000"}}, nil
}

func (f *fakeLocations) Barangays(context.Context, string) ([]models.Barangay, error) {
	return []models.Barangay{}, nil
}

func (f *fakeLocations) CheckCodePrefixes(context.Context) ([]models.LocationCheck, error) {
	return f.checks, nil
}

type fakeCategories struct {
	slugs map[string]string
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "cat-re", Name: "Real Estate", Slug: "real-estate"}}, nil
}

func (f *fakeCategories) ResolveID(_ context.Context, raw string) (string, bool, error) {
	id, ok := f.slugs[raw]
	return id, ok, nil
}

type fakeListings struct {
	listCalls int
	lastList  service.ListingListRequest
	lastWrite service.ListingRequest
	lastUser  string
	lastID    string
	err       error
}

func (f *fakeListings) List(_ context.Context, req service.ListingListRequest) ([]models.Listing, *models.Pagination, error) {
	f.listCalls++
	f.lastList = req
	return []models.Listing{{ID: "l1", Title: "Lot for sale"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *fakeListings) Get(_ context.Context, id string) (*models.Listing, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
	}
	return &models.Listing{ID: id, ViewsCount: 1}, nil
}

func (f *fakeListings) Mine(_ context.Context, sellerID string) ([]models.Listing, error) {
	f.lastUser = sellerID
	return nil, nil
}

func (f *fakeListings) Create(_ context.Context, sellerID string, req service.ListingRequest) (*models.Listing, error) {
	f.lastUser, f.lastWrite = sellerID, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Listing{ID: "new", Title: req.Title, SellerID: sellerID, Status: models.ListingStatusActive}, nil
}

func (f *fakeListings) Update(_ context.Context, sellerID, id string, req service.ListingRequest) (*models.Listing, error) {
	f.lastUser, f.lastID, f.lastWrite = sellerID, id, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Listing{ID: id, Title: req.Title}, nil
}

func (f *fakeListings) MarkSold(_ context.Context, sellerID, id string) (*models.Listing, error) {
	f.lastUser, f.lastID = sellerID, id
	return &models.Listing{ID: id, Status: models.ListingStatusSold}, nil
}

func (f *fakeListings) Delete(_ context.Context, sellerID, id string) error {
	f.lastUser, f.lastID = sellerID, id
	return f.err
}

type fakeAnnouncements struct {
	listCalls int
	lastList  service.AnnouncementListRequest
	lastUser  string
}

func (f *fakeAnnouncements) List(_ context.Context, req service.AnnouncementListRequest) ([]models.Announcement, *models.Pagination, error) {
	f.listCalls++
	f.lastList = req
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeAnnouncements) Get(_ context.Context, id string) (*models.Announcement, error) {
	return &models.Announcement{ID: id}, nil
}

func (f *fakeAnnouncements) Mine(_ context.Context, authorID string) ([]models.Announcement, error) {
	f.lastUser = authorID
	return []models.Announcement{{ID: "a1", AuthorID: authorID}}, nil
}

func (f *fakeAnnouncements) Create(_ context.Context, authorID string, req service.AnnouncementRequest) (*models.Announcement, error) {
	f.lastUser = authorID
	return &models.Announcement{ID: "new", Title: req.Title, AuthorID: authorID}, nil
}

func (f *fakeAnnouncements) Update(_ context.Context, authorID, id string, req service.AnnouncementRequest) (*models.Announcement, error) {
	f.lastUser = authorID
	return &models.Announcement{ID: id, Title: req.Title}, nil
}

func (f *fakeAnnouncements) Delete(_ context.Context, authorID, _ string) error {
	f.lastUser = authorID
	return nil
}

type fakeModeration struct {
	lastUser         string
	lastListingQuery service.ModerationListingQuery
	lastAnnQuery     service.ModerationAnnouncementQuery
	lastStatus       string
	lastActive       *bool
	lastFormat       string
	err              error
}

func (f *fakeModeration) Status(_ context.Context, userID string) (*models.ModeratorStatus, error) {
	f.lastUser = userID
	if userID != "mod-1" {
		return &models.ModeratorStatus{}, nil
	}
	return &models.ModeratorStatus{IsModerator: true, Province: &models.ProvinceSummary{ID: "p1", Code: "112300000"}}, nil
}

func (f *fakeModeration) Dashboard(_ context.Context, userID string) (*models.ModerationDashboard, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.ModerationDashboard{Listings: models.DashboardListings{Total: 3}}, nil
}

func (f *fakeModeration) Users(_ context.Context, userID string, page, size int) ([]models.ProvinceMember, *models.Pagination, error) {
	f.lastUser = userID
	return nil, &models.Pagination{Page: page, PageSize: size}, nil
}

func (f *fakeModeration) Listings(_ context.Context, userID string, query service.ModerationListingQuery) ([]models.Listing, *models.Pagination, error) {
	f.lastUser, f.lastListingQuery = userID, query
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeModeration) SetListingStatus(_ context.Context, userID, id, status string) (*models.Listing, error) {
	f.lastUser, f.lastStatus = userID, status
	if f.err != nil {
		return nil, f.err
	}
	return &models.Listing{ID: id, Status: models.ListingStatus(status)}, nil
}

func (f *fakeModeration) DeleteListing(_ context.Context, userID, _ string) (string, error) {
	f.lastUser = userID
	return `Listing "Lot for sale" has been deleted`, nil
}

func (f *fakeModeration) Announcements(_ context.Context, userID string, query service.ModerationAnnouncementQuery) ([]models.Announcement, *models.Pagination, error) {
	f.lastUser, f.lastAnnQuery = userID, query
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeModeration) SetAnnouncementActive(_ context.Context, userID, id string, active bool) (*models.Announcement, error) {
	f.lastUser, f.lastActive = userID, &active
	return &models.Announcement{ID: id, IsActive: active}, nil
}

func (f *fakeModeration) DeleteAnnouncement(_ context.Context, userID, _ string) (string, error) {
	f.lastUser = userID
	return `Announcement "Water interruption" has been deleted`, nil
}

func (f *fakeModeration) ExportListings(_ context.Context, userID string, query service.ModerationListingQuery, format string) (*service.ExportFile, error) {
	f.lastUser, f.lastListingQuery, f.lastFormat = userID, query, format
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportFile{
		Filename:    "listings_112300000_20240301_080000.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("ID,Title\nl1,Lot\n"),
		Rows:        1,
	}, nil
}
