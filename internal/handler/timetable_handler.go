package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, opts service.GenerateOptions) (*dto.GenerateScheduleResponse, error)
	CheckConflicts(ctx context.Context, courseID string, req dto.ManualScheduleRequest) (*dto.ConflictCheckResponse, error)
	CommitManual(ctx context.Context, courseID string, req dto.ManualScheduleRequest) (*dto.ManualScheduleResponse, error)
	ClearCourse(ctx context.Context, courseID string) (*dto.ClearScheduleResponse, error)
	Verify(ctx context.Context) (*dto.VerificationResponse, error)
	ListRuns(ctx context.Context, page, pageSize int) ([]models.GenerationRun, *models.Pagination, error)
}

type generationQueue interface {
	Enqueue(requestedBy string) (*dto.GenerationRunStatus, error)
	Status(ctx context.Context, id string) (*dto.GenerationRunStatus, error)
}

// TimetableHandler exposes generation and manual scheduling endpoints.
type TimetableHandler struct {
	service timetableService
	runner  generationQueue
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, runner *service.GenerationRunner) *TimetableHandler {
	return &TimetableHandler{service: svc, runner: runner}
}

func requester(c *gin.Context) string {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// Generate godoc
// @Summary Generate the whole timetable
// @Description Replaces every stored session. Sessions that cannot be placed are listed, not fatal.
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	result, err := h.service.Generate(c.Request.Context(), service.GenerateOptions{
		Trigger:     models.TriggerSync,
		RequestedBy: requester(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GenerateAsync godoc
// @Summary Queue a timetable generation
// @Tags Timetable
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /timetable/generate/async [post]
func (h *TimetableHandler) GenerateAsync(c *gin.Context) {
	status, err := h.runner.Enqueue(requester(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/async")+"/runs/"+status.ID)
	response.Accepted(c, status)
}

// RunStatus godoc
// @Summary Get the status of a generation run
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate/runs/{id} [get]
func (h *TimetableHandler) RunStatus(c *gin.Context) {
	status, err := h.runner.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// ListRuns godoc
// @Summary List generation history
// @Tags Timetable
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate/runs [get]
func (h *TimetableHandler) ListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	runs, pagination, err := h.service.ListRuns(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

func bindManualRequest(c *gin.Context) (dto.ManualScheduleRequest, bool) {
	var req dto.ManualScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid manual schedule payload"))
		return req, false
	}
	return req, true
}

// CheckConflicts godoc
// @Summary Preview conflicts of a manual schedule
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ManualScheduleRequest true "Proposed slots"
// @Success 200 {object} response.Envelope
// @Router /timetable/courses/{id}/conflicts [post]
func (h *TimetableHandler) CheckConflicts(c *gin.Context) {
	req, ok := bindManualRequest(c)
	if !ok {
		return
	}
	result, err := h.service.CheckConflicts(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CommitSchedule godoc
// @Summary Replace a course's weekly schedule
// @Description Refused with 409 and the conflict list when any proposed slot conflicts.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ManualScheduleRequest true "Proposed slots"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/courses/{id}/schedule [put]
func (h *TimetableHandler) CommitSchedule(c *gin.Context) {
	req, ok := bindManualRequest(c)
	if !ok {
		return
	}
	result, err := h.service.CommitManual(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ClearSchedule godoc
// @Summary Remove every session of a course
// @Tags Timetable
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/courses/{id}/schedule [delete]
func (h *TimetableHandler) ClearSchedule(c *gin.Context) {
	result, err := h.service.ClearCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Verify godoc
// @Summary Check the stored timetable for clashes
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/verify [get]
func (h *TimetableHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
