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

type announcementService interface {
	List(ctx context.Context, req service.AnnouncementListRequest) ([]models.Announcement, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Mine(ctx context.Context, authorID string) ([]models.Announcement, error)
	Create(ctx context.Context, authorID string, req service.AnnouncementRequest) (*models.Announcement, error)
	Update(ctx context.Context, authorID, id string, req service.AnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, authorID, id string) error
}

// AnnouncementHandler exposes the public announcement board and author endpoints.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// List godoc
// @Summary Browse announcements
// @Description Active announcements visible from the requested location, most urgent first
// @Tags Announcements
// @Produce json
// @Param province query string false "Province code"
// @Param municipality query string false "Municipality code"
// @Param barangay query string false "Barangay code"
// @Param include_expired query bool false "Include announcements past their expiry date"
// @Param priority query string false "low, medium, high or urgent"
// @Param announcement_type query string false "Announcement type"
// @Param search query string false "Search in title and description"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	includeExpired, err := queryFlag(c, "include_expired", false)
	if err != nil {
		response.Error(c, err)
		return
	}
	var filter models.AnnouncementFilter
	if filter.Priority, err = queryPriority(c); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Type, err = queryAnnouncementType(c); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Page, filter.PageSize, err = queryPage(c); err != nil {
		response.Error(c, err)
		return
	}
	filter.Search = strings.TrimSpace(c.Query("search"))

	rows, pagination, err := h.service.List(c.Request.Context(), service.AnnouncementListRequest{
		Scope:          scopeQuery(c),
		IncludeExpired: includeExpired,
		Filter:         filter,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	ann, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ann, nil)
}

// Mine godoc
// @Summary My announcements
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /announcements/mine [get]
func (h *AnnouncementHandler) Mine(c *gin.Context) {
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
		rows = []models.Announcement{}
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body service.AnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}
	ann, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ann)
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body service.AnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}
	ann, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ann, nil)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
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
