package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/service"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/pkg/response"
)

// LayerHandler handles HTTP requests for the web map layers
type LayerHandler struct {
	service *service.LayerService
}

// NewLayerHandler creates a new layer handler
func NewLayerHandler(service *service.LayerService) *LayerHandler {
	return &LayerHandler{service: service}
}

// ListLayers returns the ordered layer index
// GET /api/v1/layers
func (h *LayerHandler) ListLayers(c *gin.Context) {
	response.Success(c, h.service.Index())
}

// GetLayer streams a simplified GeoJSON by display name or path
// GET /api/v1/layers/*name
func (h *LayerHandler) GetLayer(c *gin.Context) {
	name := c.Param("name")
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	if name == "" {
		response.BadRequest(c, "Layer name is required")
		return
	}

	body, entry, err := h.service.Open(c.Request.Context(), name)
	if errors.Is(err, service.ErrLayerNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	defer body.Close()

	c.Header("Content-Type", "application/geo+json")
	if entry.Bytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(entry.Bytes, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Printf("[LayerHandler] Failed to stream %s: %v", entry.Path, err)
	}
}
