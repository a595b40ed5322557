package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/cache"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/validator"
)

const (
	reportCacheNamespace = "reports"

	StatusSuccess = "success"
	StatusError   = "error"
)

// ===== REQUEST TYPES =====

type ScoreReportQuery struct {
	UserID uint   `json:"user_id" validate:"required"`
	Year   int    `json:"year" form:"year" validate:"required,report_year"`
	Month  string `json:"month" form:"month" validate:"required,month_name"`
}

type DetailReportQuery struct {
	UserID   uint   `json:"user_id" validate:"required"`
	Year     int    `json:"year" form:"year" validate:"required,report_year"`
	Month    string `json:"month" form:"month" validate:"required,month_name"`
	CourseID *uint  `json:"course_id,omitempty" form:"course_id" validate:"omitempty,min=1"`
}

// ===== SERVICE =====

type ReportService interface {
	ScoresOverTime(ctx context.Context, query ScoreReportQuery) ([]models.ScorePoint, error)
	CourseDetail(ctx context.Context, query DetailReportQuery) ([]models.AnswerBreakdown, error)
	// MaterialConsumption never fails: errors are reported in the Status field
	MaterialConsumption(ctx context.Context) *models.MaterialConsumption
}

type reportService struct {
	datamart  repositories.DatamartRepository
	cache     cache.CacheService
	cacheTTL  time.Duration
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewReportService builds the datamart read side. reportCache may be nil.
func NewReportService(datamart repositories.DatamartRepository, reportCache cache.CacheService, cacheTTL time.Duration, v *validator.Validator, logger *slog.Logger) ReportService {
	if v == nil {
		v = validator.New()
	}
	return &reportService{
		datamart:  datamart,
		cache:     reportCache,
		cacheTTL:  cacheTTL,
		validator: v,
		logger:    NewServiceLogger(logger, LogConfig{Service: "reporting", Component: "reports"}),
	}
}

func (s *reportService) ScoresOverTime(ctx context.Context, query ScoreReportQuery) (points []models.ScorePoint, err error) {
	op := s.logger.WithOperation(ctx, "scores_over_time", query.UserID)
	defer func() { op.LogResult("report", err) }()

	if err := s.validator.ValidateStruct(query); err != nil {
		return nil, err
	}
	month, ok := utils.MonthNumber(query.Month)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, query.Month)
	}

	key := cache.Key(reportCacheNamespace, "scores", uintPart(query.UserID), strconv.Itoa(query.Year), strconv.Itoa(month))
	if s.fromCache(ctx, key, &points) {
		return points, nil
	}

	userKey, err := s.userKey(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	rows, err := s.datamart.ScoresByDate(ctx, nil, userKey, query.Year, month)
	if err != nil {
		return nil, fmt.Errorf("query scores by date: %w", err)
	}

	points = make([]models.ScorePoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, models.ScorePoint{
			Date:  utils.ReportDate(row.Date),
			Score: row.Score,
		})
	}

	s.toCache(ctx, key, points)
	return points, nil
}

func (s *reportService) CourseDetail(ctx context.Context, query DetailReportQuery) (breakdown []models.AnswerBreakdown, err error) {
	op := s.logger.WithOperation(ctx, "course_detail", query.UserID)
	defer func() { op.LogResult("report", err) }()

	if err := s.validator.ValidateStruct(query); err != nil {
		return nil, err
	}
	month, ok := utils.MonthNumber(query.Month)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, query.Month)
	}

	course := "all"
	if query.CourseID != nil {
		course = uintPart(*query.CourseID)
	}
	key := cache.Key(reportCacheNamespace, "details", uintPart(query.UserID), strconv.Itoa(query.Year), strconv.Itoa(month), course)
	if s.fromCache(ctx, key, &breakdown) {
		return breakdown, nil
	}

	userKey, err := s.userKey(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	var topicKeys []uint
	if query.CourseID != nil {
		topicKeys, err = s.datamart.FindTopicKeysByCourse(ctx, nil, *query.CourseID)
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: course %d", ErrCourseNotFound, *query.CourseID)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve course topics: %w", err)
		}
	}

	rows, err := s.datamart.AnswerCountsByDate(ctx, nil, userKey, query.Year, month, topicKeys)
	if err != nil {
		return nil, fmt.Errorf("query answer counts by date: %w", err)
	}

	breakdown = make([]models.AnswerBreakdown, 0, len(rows))
	for _, row := range rows {
		breakdown = append(breakdown, models.AnswerBreakdown{
			Date:      utils.ReportDate(row.Date),
			Blank:     row.Blank,
			Incorrect: row.Incorrect,
			Correct:   row.Correct,
		})
	}

	s.toCache(ctx, key, breakdown)
	return breakdown, nil
}

func (s *reportService) MaterialConsumption(ctx context.Context) *models.MaterialConsumption {
	op := s.logger.WithOperation(ctx, "material_consumption", 0)

	key := cache.Key(reportCacheNamespace, "materials")
	var cached models.MaterialConsumption
	if s.fromCache(ctx, key, &cached) {
		op.LogResult("report", nil)
		return &cached
	}

	result, err := s.materialConsumption(ctx)
	op.LogResult("report", err)
	if err != nil {
		return &models.MaterialConsumption{
			Status:         StatusError,
			Message:        "material consumption is temporarily unavailable",
			TimeUsage:      CompleteUsage(nil, 1),
			FrequencyUsage: CompleteUsage(nil, 1),
		}
	}

	s.toCache(ctx, key, result)
	return result
}

func (s *reportService) materialConsumption(ctx context.Context) (*models.MaterialConsumption, error) {
	times, err := s.datamart.AverageTimeByMaterialType(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("average time by material: %w", err)
	}
	frequencies, err := s.datamart.AverageFrequencyByMaterialType(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("average frequency by material: %w", err)
	}

	return &models.MaterialConsumption{
		Status:         StatusSuccess,
		TimeUsage:      CompleteUsage(times, 1.0/60),
		FrequencyUsage: CompleteUsage(frequencies, 1),
	}, nil
}

// CompleteUsage scales and rounds the averages to one decimal and returns exactly
// the canonical material types, missing ones at zero, sorted by value
// descending. Equal values keep the canonical order. Unknown types are dropped.
func CompleteUsage(averages []repositories.MaterialTypeAverage, scale float64) []models.UsageValue {
	values := make(map[string]float64, len(models.CanonicalMaterialTypes))
	for _, avg := range averages {
		name, ok := canonicalMaterial(avg.MaterialType)
		if !ok {
			continue
		}
		values[name] = roundOneDecimal(avg.Value * scale)
	}

	usage := make([]models.UsageValue, 0, len(models.CanonicalMaterialTypes))
	for _, name := range models.CanonicalMaterialTypes {
		usage = append(usage, models.UsageValue{Name: name, Value: values[name]})
	}
	sort.SliceStable(usage, func(i, j int) bool {
		return usage[i].Value > usage[j].Value
	})
	return usage
}

func canonicalMaterial(materialType string) (string, bool) {
	trimmed := strings.TrimSpace(materialType)
	for _, name := range models.CanonicalMaterialTypes {
		if strings.EqualFold(name, trimmed) {
			return name, true
		}
	}
	return "", false
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *reportService) userKey(ctx context.Context, userID uint) (uint, error) {
	key, err := s.datamart.FindUserKey(ctx, nil, userID)
	if repositories.IsNotFoundError(err) {
		return 0, fmt.Errorf("%w: user %d", ErrUserNotFound, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve user key: %w", err)
	}
	return key, nil
}

// ===== CACHE HELPERS =====

func (s *reportService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Logger().WarnContext(ctx, "Report cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *reportService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Logger().WarnContext(ctx, "Report cache write failed", "key", key, "error", err)
	}
}

func uintPart(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
