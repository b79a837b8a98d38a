package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jbernadas/islalist-pwa/internal/middleware"
	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/repository"
	"github.com/jbernadas/islalist-pwa/internal/service"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

func invalidQuery(name string) error {
	return appErrors.Clone(appErrors.ErrValidation, "invalid value for query parameter "+name)
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// queryFlag reads a boolean flag, returning def when the parameter is absent.
func queryFlag(c *gin.Context, name string, def bool) (bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	value, valid := parseBool(raw)
	if !valid {
		return false, invalidQuery(name)
	}
	return value, nil
}

func queryOptionalBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, valid := parseBool(raw)
	if !valid {
		return nil, invalidQuery(name)
	}
	return &value, nil
}

func queryOptionalFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, invalidQuery(name)
	}
	return &value, nil
}

// queryPage reads page and page_size. Out-of-range values are clamped later by the services.
func queryPage(c *gin.Context) (int, int, error) {
	page, size := 0, 0
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, invalidQuery("page")
		}
		page = v
	}
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, invalidQuery("page_size")
		}
		size = v
	}
	return page, size, nil
}

func scopeQuery(c *gin.Context) service.ScopeQuery {
	return service.ScopeQuery{
		Province:     strings.TrimSpace(c.Query("province")),
		Municipality: strings.TrimSpace(c.Query("municipality")),
		Barangay:     strings.TrimSpace(c.Query("barangay")),
	}
}

func queryOrdering(c *gin.Context) (string, error) {
	ordering := strings.TrimSpace(c.Query("ordering"))
	if ordering != "" && !repository.ValidListingOrdering(ordering) {
		return "", invalidQuery("ordering")
	}
	return ordering, nil
}

func queryPriority(c *gin.Context) (*models.AnnouncementPriority, error) {
	raw := strings.TrimSpace(c.Query("priority"))
	if raw == "" {
		return nil, nil
	}
	priority, ok := models.ParsePriority(raw)
	if !ok {
		return nil, invalidQuery("priority")
	}
	return &priority, nil
}

func queryAnnouncementType(c *gin.Context) (*models.AnnouncementType, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Query("announcement_type")))
	if raw == "" {
		return nil, nil
	}
	kind := models.AnnouncementType(raw)
	if !kind.Valid() {
		return nil, invalidQuery("announcement_type")
	}
	return &kind, nil
}

// currentUserID returns the authenticated caller or an unauthorized error.
func currentUserID(c *gin.Context) (string, error) {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		return "", appErrors.ErrUnauthorized
	}
	return claims.UserID, nil
}
