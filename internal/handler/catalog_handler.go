package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadops/tuition-api/internal/models"
	"github.com/acadops/tuition-api/internal/service"
	"github.com/acadops/tuition-api/pkg/response"
)

type catalogManager interface {
	ClassDetail(ctx context.Context, id string) (*models.Class, error)
	InvalidateCatalog(ctx context.Context, classID string) error
}

// CatalogHandler exposes class catalog reads and cache maintenance.
type CatalogHandler struct {
	catalog catalogManager
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog *service.PlannerService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Get godoc
// @Summary Get one class with its weekly schedule rules
// @Tags Catalog
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	class, err := h.catalog.ClassDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// InvalidateCache godoc
// @Summary Drop cached catalog entries for one class
// @Description Forces the next plan regeneration to reread the class and its closure calendar after an upstream change.
// @Tags Catalog
// @Param id path string true "Class ID"
// @Success 204 "cache invalidated"
// @Router /classes/{id}/cache [delete]
func (h *CatalogHandler) InvalidateCache(c *gin.Context) {
	if err := h.catalog.InvalidateCatalog(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
