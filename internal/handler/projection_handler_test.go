package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type projectorMock struct {
	hit     bool
	lastFmt string
	views   []scheduler.View
}

func (m *projectorMock) ParseView(query dto.TimetableViewQuery) (scheduler.View, error) {
	view, err := scheduler.ParseView(query.View, query.ID)
	if err != nil {
		return scheduler.View{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error())
	}
	return view, nil
}

func (m *projectorMock) Project(ctx context.Context, view scheduler.View) (*dto.ProjectionResponse, bool, error) {
	m.views = append(m.views, view)
	return &dto.ProjectionResponse{
		View:  string(view.Kind),
		ID:    view.ID,
		Days:  []string{"Monday"},
		Times: []string{"08:00-09:00"},
		Cells: []scheduler.Cell{{Day: "Monday", Time: "08:00-09:00"}},
	}, m.hit, nil
}

func (m *projectorMock) Export(ctx context.Context, view scheduler.View, format string) (*service.ExportResult, error) {
	m.lastFmt = format
	if format == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportResult{Filename: "timetable_teacher_t1.csv", ContentType: "text/csv", Payload: []byte("Time,Monday\n")}, nil
}

func newProjectionRouter(m *projectorMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ProjectionHandler{projections: m, exporter: m}
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.GET("/timetable/view", h.View)
	router.GET("/timetable/export", h.Export)
	return router
}

func TestProjectionHandlerViewCacheHeader(t *testing.T) {
	m := &projectorMock{}
	router := newProjectionRouter(m)

	w := perform(router, http.MethodGet, "/timetable/view?view=teacher&id=t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	require.Len(t, m.views, 1)
	assert.Equal(t, scheduler.View{Kind: scheduler.ViewTeacher, ID: "t1"}, m.views[0])

	var body struct {
		Data dto.ProjectionResponse `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "teacher", body.Data.View)
	assert.Len(t, body.Data.Cells, 1)
	assert.Equal(t, false, body.Meta["cache_hit"])

	m.hit = true
	w = perform(router, http.MethodGet, "/timetable/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, scheduler.View{Kind: scheduler.ViewAll}, m.views[1])
}

func TestProjectionHandlerViewRejectsBadQuery(t *testing.T) {
	m := &projectorMock{}
	router := newProjectionRouter(m)

	w := perform(router, http.MethodGet, "/timetable/view?view=building&id=b1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	w = perform(router, http.MethodGet, "/timetable/view?view=room", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, m.views)
}

func TestProjectionHandlerExport(t *testing.T) {
	m := &projectorMock{}
	router := newProjectionRouter(m)

	w := perform(router, http.MethodGet, "/timetable/export?view=teacher&id=t1&format=csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", m.lastFmt)
	assert.Equal(t, `attachment; filename="timetable_teacher_t1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Time,Monday\n", w.Body.String())
}

func TestProjectionHandlerExportUnknownFormat(t *testing.T) {
	m := &projectorMock{}
	router := newProjectionRouter(m)

	w := perform(router, http.MethodGet, "/timetable/export?format=xlsx", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestMetricsHandlerReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	degraded := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})

	router := gin.New()
	router.GET("/health", healthy.Health)
	router.GET("/ready", healthy.Ready)
	router.GET("/ready-degraded", degraded.Ready)
	router.GET("/metrics", healthy.Prometheus)
	router.GET("/metrics-missing", degraded.Prometheus)

	w := perform(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready"`)

	w = perform(router, http.MethodGet, "/ready-degraded", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])

	w = perform(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timetable_generation_queue_depth")

	w = perform(router, http.MethodGet, "/metrics-missing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
