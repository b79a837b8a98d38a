package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbernadas/islalist-pwa/internal/models"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

func TestListingListPassesScopeAndFilters(t *testing.T) {
	router, fakes := newTestRouter(t)

	rec := performRequest(router, http.MethodGet,
		"/api/v1/listings?province=112300000&municipality=112314000&category=real-estate&property_type=LAND&min_price=1000&max_price=5000.5&search=%20lot%20&ordering=-price&page=2&page_size=10", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	req := fakes.listings.lastList
	assert.Equal(t, "112300000", req.Scope.Province)
	assert.Equal(t, "112314000", req.Scope.Municipality)
	assert.Empty(t, req.Scope.Barangay)
	assert.Equal(t, "cat-re", req.Filter.CategoryID)
	assert.Equal(t, "land", req.Filter.PropertyType)
	require.NotNil(t, req.Filter.MinPrice)
	assert.Equal(t, 1000.0, *req.Filter.MinPrice)
	assert.Equal(t, 5000.5, *req.Filter.MaxPrice)
	assert.Equal(t, "lot", req.Filter.Search)
	assert.Equal(t, "-price", req.Filter.Ordering)
	assert.Equal(t, 2, req.Filter.Page)
	assert.Equal(t, 10, req.Filter.PageSize)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestListingListRejectsMalformedQuery(t *testing.T) {
	cases := map[string]string{
		"min_price":     "min_price=cheap",
		"negative":      "max_price=-1",
		"inverted":      "min_price=10&max_price=5",
		"ordering":      "ordering=title",
		"property_type": "property_type=castle",
		"page":          "page=two",
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			router, fakes := newTestRouter(t)
			rec := performRequest(router, http.MethodGet, "/api/v1/listings?"+query, nil, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
			assert.Zero(t, fakes.listings.listCalls)
		})
	}
}

func TestListingListUnknownCategoryReturnsEmptyPage(t *testing.T) {
	router, fakes := newTestRouter(t)

	rec := performRequest(router, http.MethodGet, "/api/v1/listings?category=spaceships&page=3", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fakes.listings.listCalls)
	env := decodeEnvelope(t, rec)
	assert.JSONEq(t, `[]`, string(env.Data))
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.Page)
	assert.Zero(t, env.Pagination.TotalCount)
}

func TestListingGet(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := performRequest(router, http.MethodGet, "/api/v1/listings/l1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(router, http.MethodGet, "/api/v1/listings/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListingMineRequiresToken(t *testing.T) {
	router, fakes := newTestRouter(t)

	rec := performRequest(router, http.MethodGet, "/api/v1/listings/mine", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(router, http.MethodGet, "/api/v1/listings/mine", nil, "user")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", fakes.listings.lastUser)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}

func TestListingCreate(t *testing.T) {
	router, fakes := newTestRouter(t)
	body := `{"title":"Lot for sale","description":"Corner lot","price":1500000,"category_id":"cat-re","province_id":"p1","municipality_id":"m1"}`

	rec := performRequest(router, http.MethodPost, "/api/v1/listings", strings.NewReader(body), "user")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", fakes.listings.lastUser)
	assert.Equal(t, "Lot for sale", fakes.listings.lastWrite.Title)
	require.NotNil(t, fakes.listings.lastWrite.MunicipalityID)
	assert.Equal(t, "m1", *fakes.listings.lastWrite.MunicipalityID)
	assert.Nil(t, fakes.listings.lastWrite.BarangayID)

	var listing models.Listing
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &listing))
	assert.Equal(t, models.ListingStatusActive, listing.Status)
}

func TestListingCreateRejectsBadJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/listings", strings.NewReader(`{"title":`), "user")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListingUpdatePropagatesOwnershipError(t *testing.T) {
	router, fakes := newTestRouter(t)
	fakes.listings.err = appErrors.ErrNotOwner

	rec := performRequest(router, http.MethodPut, "/api/v1/listings/l1", strings.NewReader(`{"title":"x"}`), "user")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "l1", fakes.listings.lastID)
	assert.Equal(t, appErrors.ErrNotOwner.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestListingMarkSoldAndDelete(t *testing.T) {
	router, fakes := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/listings/l1/sold", nil, "user")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "l1", fakes.listings.lastID)

	rec = performRequest(router, http.MethodDelete, "/api/v1/listings/l2", nil, "user")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "l2", fakes.listings.lastID)
}
