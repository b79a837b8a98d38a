package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/pkg/response"
)

type categoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	ResolveID(ctx context.Context, raw string) (string, bool, error)
}

// CategoryHandler lists marketplace categories.
type CategoryHandler struct {
	service categoryService
}

// NewCategoryHandler constructs the handler.
func NewCategoryHandler(service categoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List godoc
// @Summary List categories
// @Description Active root categories ordered for display
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
