package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/service"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
	"github.com/jbernadas/islalist-pwa/pkg/logger"
	"github.com/jbernadas/islalist-pwa/pkg/response"
)

type moderationService interface {
	Status(ctx context.Context, userID string) (*models.ModeratorStatus, error)
	Dashboard(ctx context.Context, userID string) (*models.ModerationDashboard, error)
	Users(ctx context.Context, userID string, page, size int) ([]models.ProvinceMember, *models.Pagination, error)
	Listings(ctx context.Context, userID string, query service.ModerationListingQuery) ([]models.Listing, *models.Pagination, error)
	SetListingStatus(ctx context.Context, userID, id, status string) (*models.Listing, error)
	DeleteListing(ctx context.Context, userID, id string) (string, error)
	Announcements(ctx context.Context, userID string, query service.ModerationAnnouncementQuery) ([]models.Announcement, *models.Pagination, error)
	SetAnnouncementActive(ctx context.Context, userID, id string, active bool) (*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, userID, id string) (string, error)
	ExportListings(ctx context.Context, userID string, query service.ModerationListingQuery, format string) (*service.ExportFile, error)
}

type listingStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

type announcementStatusPayload struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ModerationHandler exposes the province moderator workflows.
type ModerationHandler struct {
	service moderationService
	logger  *zap.Logger
}

// NewModerationHandler constructs the handler.
func NewModerationHandler(service moderationService, log *zap.Logger) *ModerationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModerationHandler{service: service, logger: log}
}

// Status godoc
// @Summary Moderator status
// @Description Reports whether the caller moderates a province
// @Tags Moderation
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /mod/status [get]
func (h *ModerationHandler) Status(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Dashboard godoc
// @Summary Moderator dashboard
// @Tags Moderation
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mod/dashboard [get]
func (h *ModerationHandler) Dashboard(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dashboard, err := h.service.Dashboard(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Users godoc
// @Summary Province members
// @Description Users who posted content in the moderator's province
// @Tags Moderation
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mod/users [get]
func (h *ModerationHandler) Users(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, size, err := queryPage(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.Users(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.ProvinceMember{}
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Listings godoc
// @Summary Province listings
// @Tags Moderation
// @Produce json
// @Param municipality query string false "Municipality code"
// @Param barangay query string false "Barangay code"
// @Param status query string false "Listing status"
// @Param search query string false "Search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mod/listings [get]
func (h *ModerationHandler) Listings(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := moderationListingQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.Listings(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.Listing{}
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

func moderationListingQuery(c *gin.Context) (service.ModerationListingQuery, error) {
	query := service.ModerationListingQuery{
		Municipality: strings.TrimSpace(c.Query("municipality")),
		Barangay:     strings.TrimSpace(c.Query("barangay")),
		Search:       strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" {
		if !models.ListingStatus(raw).Valid() {
			return query, invalidQuery("status")
		}
		query.Status = raw
	}
	var err error
	query.Page, query.PageSize, err = queryPage(c)
	return query, err
}

// UpdateListingStatus godoc
// @Summary Hide or restore a listing
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param payload body listingStatusPayload true "active or hidden"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mod/listings/{id}/status [patch]
func (h *ModerationHandler) UpdateListingStatus(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload listingStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	listing, err := h.service.SetListingStatus(c.Request.Context(), userID, c.Param("id"), strings.ToLower(strings.TrimSpace(payload.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.ForRequest(h.logger, c).Info("listing status changed by moderator",
		zap.String("listing_id", listing.ID),
		zap.String("status", string(listing.Status)),
	)
	response.JSON(c, http.StatusOK, listing, nil)
}

// DeleteListing godoc
// @Summary Delete a listing in the province
// @Tags Moderation
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mod/listings/{id} [delete]
func (h *ModerationHandler) DeleteListing(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	message, err := h.service.DeleteListing(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.ForRequest(h.logger, c).Info("listing deleted by moderator", zap.String("listing_id", c.Param("id")))
	response.Message(c, http.StatusOK, message)
}

// Announcements godoc
// @Summary Province announcements
// @Tags Moderation
// @Produce json
// @Param municipality query string false "Municipality code"
// @Param barangay query string false "Barangay code"
// @Param is_active query bool false "Active flag"
// @Param announcement_type query string false "Announcement type"
// @Param search query string false "Search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mod/announcements [get]
func (h *ModerationHandler) Announcements(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := service.ModerationAnnouncementQuery{
		Municipality: strings.TrimSpace(c.Query("municipality")),
		Barangay:     strings.TrimSpace(c.Query("barangay")),
		Search:       strings.TrimSpace(c.Query("search")),
	}
	if query.Active, err = queryOptionalBool(c, "is_active"); err != nil {
		response.Error(c, err)
		return
	}
	kind, err := queryAnnouncementType(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if kind != nil {
		query.Type = string(*kind)
	}
	if query.Page, query.PageSize, err = queryPage(c); err != nil {
		response.Error(c, err)
		return
	}

	rows, pagination, err := h.service.Announcements(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// UpdateAnnouncementStatus godoc
// @Summary Activate or deactivate an announcement
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body announcementStatusPayload true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mod/announcements/{id}/status [patch]
func (h *ModerationHandler) UpdateAnnouncementStatus(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload announcementStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "is_active is required"))
		return
	}
	ann, err := h.service.SetAnnouncementActive(c.Request.Context(), userID, c.Param("id"), *payload.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.ForRequest(h.logger, c).Info("announcement status changed by moderator",
		zap.String("announcement_id", ann.ID),
		zap.Bool("is_active", ann.IsActive),
	)
	response.JSON(c, http.StatusOK, ann, nil)
}

// DeleteAnnouncement godoc
// @Summary Delete an announcement in the province
// @Tags Moderation
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mod/announcements/{id} [delete]
func (h *ModerationHandler) DeleteAnnouncement(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	message, err := h.service.DeleteAnnouncement(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.ForRequest(h.logger, c).Info("announcement deleted by moderator", zap.String("announcement_id", c.Param("id")))
	response.Message(c, http.StatusOK, message)
}

// ExportListings godoc
// @Summary Export province listings
// @Tags Moderation
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param municipality query string false "Municipality code"
// @Param barangay query string false "Barangay code"
// @Param status query string false "Listing status"
// @Param search query string false "Search"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mod/listings/export [get]
func (h *ModerationHandler) ExportListings(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := moderationListingQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.ExportListings(c.Request.Context(), userID, query, strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.ForRequest(h.logger, c).Info("listings exported",
		zap.String("filename", file.Filename),
		zap.Int("rows", file.Rows),
	)
	response.Download(c, file.Filename, file.ContentType, file.Data)
}
