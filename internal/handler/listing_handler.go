package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/service"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
	"github.com/jbernadas/islalist-pwa/pkg/response"
)

type listingService interface {
	List(ctx context.Context, req service.ListingListRequest) ([]models.Listing, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Mine(ctx context.Context, sellerID string) ([]models.Listing, error)
	Create(ctx context.Context, sellerID string, req service.ListingRequest) (*models.Listing, error)
	Update(ctx context.Context, sellerID, id string, req service.ListingRequest) (*models.Listing, error)
	MarkSold(ctx context.Context, sellerID, id string) (*models.Listing, error)
	Delete(ctx context.Context, sellerID, id string) error
}

// ListingHandler exposes the public marketplace and seller endpoints.
type ListingHandler struct {
	service    listingService
	categories categoryService
}

// NewListingHandler constructs the handler.
func NewListingHandler(service listingService, categories categoryService) *ListingHandler {
	return &ListingHandler{service: service, categories: categories}
}

// List godoc
// @Summary Browse listings
// @Description Active listings visible from the requested location. Broader-scope listings cascade down to finer scopes.
// @Tags Listings
// @Produce json
// @Param province query string false "Province code"
// @Param municipality query string false "Municipality code"
// @Param barangay query string false "Barangay code"
// @Param category query string false "Category id or slug"
// @Param property_type query string false "Property type"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param search query string false "Search in title and description"
// @Param ordering query string false "created_at, -created_at, price, -price, views_count, -views_count"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	filter, err := h.listingFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if raw := strings.TrimSpace(c.Query("category")); raw != "" && h.categories != nil {
		id, found, err := h.categories.ResolveID(c.Request.Context(), raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !found {
			page, size := models.NormalizePage(filter.Page, filter.PageSize)
			response.JSON(c, http.StatusOK, []models.Listing{}, &models.Pagination{Page: page, PageSize: size})
			return
		}
		filter.CategoryID = id
	}

	rows, pagination, err := h.service.List(c.Request.Context(), service.ListingListRequest{Scope: scopeQuery(c), Filter: filter})
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.Listing{}
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

func (h *ListingHandler) listingFilter(c *gin.Context) (models.ListingFilter, error) {
	var filter models.ListingFilter
	var err error

	if filter.MinPrice, err = queryOptionalFloat(c, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryOptionalFloat(c, "max_price"); err != nil {
		return filter, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return filter, appErrors.Clone(appErrors.ErrValidation, "min_price must not exceed max_price")
	}
	if filter.Ordering, err = queryOrdering(c); err != nil {
		return filter, err
	}
	if filter.Page, filter.PageSize, err = queryPage(c); err != nil {
		return filter, err
	}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("property_type"))); raw != "" {
		if !models.PropertyType(raw).Valid() {
			return filter, invalidQuery("property_type")
		}
		filter.PropertyType = raw
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	return filter, nil
}

// Get godoc
// @Summary Get listing
// @Description Returns a listing and increments its view counter
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// Mine godoc
// @Summary My listings
// @Description Every listing of the caller regardless of status
// @Tags Listings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /listings/mine [get]
func (h *ListingHandler) Mine(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Mine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.Listing{}
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Create listing
// @Tags Listings
// @Accept json
// @Produce json
// @Param payload body service.ListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}
	listing, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, listing)
}

// Update godoc
// @Summary Update listing
// @Tags Listings
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param payload body service.ListingRequest true "Listing payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /listings/{id} [put]
func (h *ListingHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}
	listing, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// MarkSold godoc
// @Summary Mark listing as sold
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /listings/{id}/sold [post]
func (h *ListingHandler) MarkSold(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	listing, err := h.service.MarkSold(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// Delete godoc
// @Summary Delete listing
// @Tags Listings
// @Param id path string true "Listing ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
