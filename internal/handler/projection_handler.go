package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableProjector interface {
	ParseView(query dto.TimetableViewQuery) (scheduler.View, error)
	Project(ctx context.Context, view scheduler.View) (*dto.ProjectionResponse, bool, error)
}

type timetableExporter interface {
	Export(ctx context.Context, view scheduler.View, format string) (*service.ExportResult, error)
}

// ProjectionHandler serves timetable grids and downloads.
type ProjectionHandler struct {
	projections timetableProjector
	exporter    timetableExporter
}

// NewProjectionHandler constructs the handler.
func NewProjectionHandler(projections *service.ProjectionService, exporter *service.ExportService) *ProjectionHandler {
	return &ProjectionHandler{projections: projections, exporter: exporter}
}

// View godoc
// @Summary Timetable grid for everyone, a teacher, a group or a room
// @Description One cell per working day and hour band, empty cells included.
// @Tags Timetable
// @Produce json
// @Param view query string false "all, teacher, group or room"
// @Param id query string false "Teacher, group or room ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/view [get]
func (h *ProjectionHandler) View(c *gin.Context) {
	var query dto.TimetableViewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view query"))
		return
	}
	view, err := h.projections.ParseView(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, hit, err := h.projections.Project(c.Request.Context(), view)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download a timetable grid as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param view query string false "all, teacher, group or room"
// @Param id query string false "Teacher, group or room ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /timetable/export [get]
func (h *ProjectionHandler) Export(c *gin.Context) {
	var query dto.TimetableExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	view, err := h.projections.ParseView(query.TimetableViewQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), view, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
