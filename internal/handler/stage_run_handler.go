package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/service"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/pkg/response"
)

// StageRunHandler handles HTTP requests for the stage-run ledger
type StageRunHandler struct {
	service *service.StageRunService
}

// NewStageRunHandler creates a new stage-run handler
func NewStageRunHandler(service *service.StageRunService) *StageRunHandler {
	return &StageRunHandler{service: service}
}

// GetRun retrieves a run by ID
// GET /api/v1/runs/:id
func (h *StageRunHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, run)
}

// ListRuns retrieves runs newest first
// GET /api/v1/runs
func (h *StageRunHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	filters := models.StageRunFilters{
		Stage:  c.Query("stage"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	}
	runs, err := h.service.ListRuns(filters)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Paged(c, runs, limit, offset)
}

// ListStages lists the registered pipeline stages
// GET /api/v1/stages
func (h *StageRunHandler) ListStages(c *gin.Context) {
	response.Success(c, h.service.Stages())
}
