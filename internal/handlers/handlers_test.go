package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/etl"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/services"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== SERVICE MOCKS =====

type MockETLService struct{ mock.Mock }

func (m *MockETLService) RunFullReload(ctx context.Context) (*etl.LoadResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*etl.LoadResult)
	return result, args.Error(1)
}

func (m *MockETLService) ReloadDimension(ctx context.Context, dimension string) (*etl.LoadResult, error) {
	args := m.Called(ctx, dimension)
	result, _ := args.Get(0).(*etl.LoadResult)
	return result, args.Error(1)
}

type MockReportService struct{ mock.Mock }

func (m *MockReportService) ScoresOverTime(ctx context.Context, query services.ScoreReportQuery) ([]models.ScorePoint, error) {
	args := m.Called(ctx, query)
	points, _ := args.Get(0).([]models.ScorePoint)
	return points, args.Error(1)
}

func (m *MockReportService) CourseDetail(ctx context.Context, query services.DetailReportQuery) ([]models.AnswerBreakdown, error) {
	args := m.Called(ctx, query)
	rows, _ := args.Get(0).([]models.AnswerBreakdown)
	return rows, args.Error(1)
}

func (m *MockReportService) MaterialConsumption(ctx context.Context) *models.MaterialConsumption {
	return m.Called(ctx).Get(0).(*models.MaterialConsumption)
}

type MockExportService struct{ mock.Mock }

func (m *MockExportService) ExportUserReport(ctx context.Context, query services.DetailReportQuery) ([]byte, error) {
	args := m.Called(ctx, query)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockRecommendationService struct{ mock.Mock }

func (m *MockRecommendationService) Recommend(ctx context.Context, query services.RecommendationQuery) (*models.Recommendations, error) {
	args := m.Called(ctx, query)
	result, _ := args.Get(0).(*models.Recommendations)
	return result, args.Error(1)
}

// ===== HELPERS =====

type testServer struct {
	router          *gin.Engine
	etl             *MockETLService
	reports         *MockReportService
	export          *MockExportService
	recommendations *MockRecommendationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		router:          gin.New(),
		etl:             new(MockETLService),
		reports:         new(MockReportService),
		export:          new(MockExportService),
		recommendations: new(MockRecommendationService),
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	NewHandlerManager(ServiceSet{
		ETL:             ts.etl,
		Reports:         ts.reports,
		Export:          ts.export,
		Recommendations: ts.recommendations,
	}, nil, logger).SetupRoutes(ts.router)

	t.Cleanup(func() {
		ts.etl.AssertExpectations(t)
		ts.reports.AssertExpectations(t)
		ts.export.AssertExpectations(t)
		ts.recommendations.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ===== HEALTH =====

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

// ===== ETL =====

func TestRunFullReload_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.etl.On("RunFullReload", mock.Anything).Return(&etl.LoadResult{
		Mode:         etl.ModeFull,
		Stage:        etl.StageCommitted,
		Rows:         map[string]int{"dim_user": 1, "dim_time": 3, "dim_topic": 2, "fact_simulation_results": 2},
		SkippedFacts: 2,
		Duration:     150 * time.Millisecond,
	}, nil)

	w := ts.do(http.MethodPost, "/api/v1/etl/run")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "full", body["mode"])
	assert.Equal(t, float64(2), body["skipped_facts"])
	assert.Equal(t, float64(150), body["duration_ms"])
	assert.NotContains(t, body, "dimension")
	assert.Equal(t, float64(3), body["rows"].(map[string]interface{})["dim_time"])
}

func TestRunFullReload_FailureCarriesMessage(t *testing.T) {
	ts := newTestServer(t)
	ts.etl.On("RunFullReload", mock.Anything).Return(nil, &etl.StageError{
		Stage: etl.StageLoadFacts,
		Err:   errors.New("answers table unavailable"),
	})

	w := ts.do(http.MethodPost, "/api/v1/etl/run")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "load_facts: answers table unavailable", body["message"])
	assert.Equal(t, "load_facts", body["stage"])
}

func TestRunFullReload_Conflict(t *testing.T) {
	ts := newTestServer(t)
	ts.etl.On("RunFullReload", mock.Anything).Return(nil, services.ErrReloadInProgress)

	w := ts.do(http.MethodPost, "/api/v1/etl/run")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReloadDimension(t *testing.T) {
	ts := newTestServer(t)
	ts.etl.On("ReloadDimension", mock.Anything, "time").Return(&etl.LoadResult{
		Mode:      etl.ModeDimension,
		Dimension: etl.DimensionTime,
		Stage:     etl.StageCommitted,
		Rows:      map[string]int{"dim_time": 3},
	}, nil)

	w := ts.do(http.MethodPost, "/api/v1/etl/dimensions/time")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "time", body["dimension"])
}

func TestReloadDimension_Unknown(t *testing.T) {
	ts := newTestServer(t)
	ts.etl.On("ReloadDimension", mock.Anything, "material").
		Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownDimension, "material"))

	w := ts.do(http.MethodPost, "/api/v1/etl/dimensions/material")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ===== REPORTS =====

func TestGetScores(t *testing.T) {
	ts := newTestServer(t)
	query := services.ScoreReportQuery{UserID: 7, Year: 2024, Month: "marzo"}
	ts.reports.On("ScoresOverTime", mock.Anything, query).Return([]models.ScorePoint{
		{Date: "04/03/2024", Score: 8.14},
	}, nil)

	w := ts.do(http.MethodGet, "/api/v1/reports/users/7/scores?year=2024&month=marzo")

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "04/03/2024", data[0].(map[string]interface{})["date"])
}

func TestGetScores_BadInput(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/reports/users/abc/scores?year=2024&month=marzo").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/reports/users/0/scores?year=2024&month=marzo").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/reports/users/7/scores?year=abc&month=marzo").Code)
}

func TestGetScores_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", services.ValidationErrors{{Field: "month", Message: "must be a calendar month name"}}, http.StatusUnprocessableEntity},
		{"invalid month", services.ErrInvalidMonth, http.StatusUnprocessableEntity},
		{"user not found", fmt.Errorf("user 9: %w", services.ErrUserNotFound), http.StatusNotFound},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.reports.On("ScoresOverTime", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := ts.do(http.MethodGet, "/api/v1/reports/users/9/scores?year=2024&month=marzo")

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGetDetails_WithCourse(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.On("CourseDetail", mock.Anything, mock.MatchedBy(func(q services.DetailReportQuery) bool {
		return q.UserID == 7 && q.Month == "enero" && q.Year == 2024 && q.CourseID != nil && *q.CourseID == 10
	})).Return([]models.AnswerBreakdown{{Date: "05/01/2024", Blank: 1, Incorrect: 0, Correct: 2}}, nil)

	w := ts.do(http.MethodGet, "/api/v1/reports/users/7/details?year=2024&month=enero&course_id=10")

	require.Equal(t, http.StatusOK, w.Code)
	row := decode(t, w)["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(2), row["correct"])
}

func TestGetDetails_CourseNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.On("CourseDetail", mock.Anything, mock.Anything).Return(nil, services.ErrCourseNotFound)

	w := ts.do(http.MethodGet, "/api/v1/reports/users/7/details?year=2024&month=enero&course_id=99")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Course not found", decode(t, w)["message"])
}

func TestExportUserReport(t *testing.T) {
	ts := newTestServer(t)
	ts.export.On("ExportUserReport", mock.Anything, mock.MatchedBy(func(q services.DetailReportQuery) bool {
		return q.UserID == 7 && q.CourseID == nil
	})).Return([]byte("xlsx-bytes"), nil)

	w := ts.do(http.MethodGet, "/api/v1/reports/users/7/export?year=2024&month=marzo")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report_7_marzo_2024.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestGetMaterialConsumption_AlwaysOK(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.On("MaterialConsumption", mock.Anything).Return(&models.MaterialConsumption{
		Status:  services.StatusError,
		Message: "material consumption is temporarily unavailable",
		TimeUsage: []models.UsageValue{
			{Name: models.MaterialFlashcards}, {Name: models.MaterialPDF},
			{Name: models.MaterialVideo}, {Name: models.MaterialSolucionario},
		},
	})

	w := ts.do(http.MethodGet, "/api/v1/reports/materials/consumption")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Len(t, body["time_usage"], 4)
}

func TestGetMaterialConsumption_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.On("MaterialConsumption", mock.Anything).Return(&models.MaterialConsumption{
		Status:         services.StatusSuccess,
		TimeUsage:      []models.UsageValue{{Name: models.MaterialPDF, Value: 12.5}},
		FrequencyUsage: []models.UsageValue{{Name: models.MaterialPDF, Value: 3}},
	})

	w := ts.do(http.MethodGet, "/api/v1/reports/materials/consumption")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, services.StatusSuccess, body["status"])
	assert.Len(t, body["frequency_usage"], 1)
}

// ===== RECOMMENDATIONS =====

func TestGetRecommendations(t *testing.T) {
	ts := newTestServer(t)
	query := services.RecommendationQuery{UserID: 7, Month: 1, Year: 2024}
	ts.recommendations.On("Recommend", mock.Anything, query).Return(&models.Recommendations{
		Courses: []models.RecommendedCourse{{
			CourseID:   10,
			CourseName: "Algebra",
			Topics:     []models.RecommendedTopic{{TopicID: 1, TopicName: "Ecuaciones"}},
			TopicCount: 1,
		}},
	}, nil)

	w := ts.do(http.MethodGet, "/api/v1/recommendations/users/7?month=1&year=2024")

	require.Equal(t, http.StatusOK, w.Code)
	courses := decode(t, w)["courses"].([]interface{})
	require.Len(t, courses, 1)
	assert.Equal(t, "Algebra", courses[0].(map[string]interface{})["course_name"])
}

func TestGetRecommendations_EmptyIsList(t *testing.T) {
	ts := newTestServer(t)
	ts.recommendations.On("Recommend", mock.Anything, mock.Anything).
		Return(&models.Recommendations{Courses: []models.RecommendedCourse{}}, nil)

	w := ts.do(http.MethodGet, "/api/v1/recommendations/users/7?month=5&year=2024")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"courses":[]}`, w.Body.String())
}

func TestGetRecommendations_InvalidMonth(t *testing.T) {
	ts := newTestServer(t)
	ts.recommendations.On("Recommend", mock.Anything, mock.Anything).
		Return(nil, services.ValidationErrors{{Field: "month", Message: "must be a month number between 1 and 12"}})

	w := ts.do(http.MethodGet, "/api/v1/recommendations/users/7?month=13&year=2024")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
