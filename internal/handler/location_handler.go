package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/pkg/response"
)

type locationService interface {
	Provinces(ctx context.Context) ([]models.ProvinceSummary, error)
	Municipalities(ctx context.Context, provinceCode string, includeDistricts bool) ([]models.Municipality, error)
	Barangays(ctx context.Context, municipalityCode string) ([]models.Barangay, error)
	CheckCodePrefixes(ctx context.Context) ([]models.LocationCheck, error)
}

// LocationHandler serves the province, municipality and barangay dropdowns.
type LocationHandler struct {
	service locationService
}

// NewLocationHandler constructs the handler.
func NewLocationHandler(service locationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// Provinces godoc
// @Summary List provinces
// @Description Active provinces, featured first
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /locations/provinces [get]
func (h *LocationHandler) Provinces(c *gin.Context) {
	rows, err := h.service.Provinces(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Municipalities godoc
// @Summary List municipalities of a province
// @Tags Locations
// @Produce json
// @Param code path string true "Province code"
// @Param include_districts query bool false "Include sub-municipality districts"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/provinces/{code}/municipalities [get]
func (h *LocationHandler) Municipalities(c *gin.Context) {
	includeDistricts, err := queryFlag(c, "include_districts", false)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Municipalities(c.Request.Context(), strings.TrimSpace(c.Param("code")), includeDistricts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Barangays godoc
// @Summary List barangays of a municipality
// @Tags Locations
// @Produce json
// @Param code path string true "Municipality code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/municipalities/{code}/barangays [get]
func (h *LocationHandler) Barangays(c *gin.Context) {
	rows, err := h.service.Barangays(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// CheckCodes godoc
// @Summary Audit municipality codes
// @Description Municipalities whose code prefix disagrees with their province. Admin only.
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/locations/check [get]
func (h *LocationHandler) CheckCodes(c *gin.Context) {
	rows, err := h.service.CheckCodePrefixes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{"misplaced": len(rows)})
}
