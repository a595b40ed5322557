package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/validator"
)

type RecommendationQuery struct {
	UserID uint `json:"user_id" validate:"required"`
	Month  int  `json:"month" form:"month" validate:"required,month_number"`
	Year   int  `json:"year" form:"year" validate:"required,report_year"`
}

type RecommendationService interface {
	// Recommend merges the suggestions stored on the user's attempts of the
	// month before (Month, Year). No data yields an empty list.
	Recommend(ctx context.Context, query RecommendationQuery) (*models.Recommendations, error)
}

type recommendationService struct {
	source    repositories.SourceRepository
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewRecommendationService(source repositories.SourceRepository, v *validator.Validator, logger *slog.Logger) RecommendationService {
	if v == nil {
		v = validator.New()
	}
	return &recommendationService{
		source:    source,
		validator: v,
		logger:    NewServiceLogger(logger, LogConfig{Service: "reporting", Component: "recommendations"}),
	}
}

func (s *recommendationService) Recommend(ctx context.Context, query RecommendationQuery) (result *models.Recommendations, err error) {
	op := s.logger.WithOperation(ctx, "recommend_courses", query.UserID)
	defer func() { op.LogResult("recommendation", err) }()

	if err := s.validator.ValidateStruct(query); err != nil {
		return nil, err
	}

	month, year := utils.PreviousMonth(query.Month, query.Year)
	from, to := utils.MonthRange(month, year)

	rows, err := s.source.ListSuggestionPayloads(ctx, query.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list suggestion payloads: %w", err)
	}

	merger := NewSuggestionMerger()
	for _, row := range rows {
		courses, ok := models.ParseSuggestions(row.Payload)
		if !ok {
			s.logger.Logger().DebugContext(ctx, "Skipping malformed suggestions payload",
				"attempt_id", row.AttemptID,
			)
			continue
		}
		merger.Add(courses)
	}

	return merger.Result(), nil
}

// SuggestionMerger folds suggestion payloads keeping the first name seen for
// every course and every topic within a course.
type SuggestionMerger struct {
	courses *utils.OrderedMap[uint, *mergedCourse]
}

type mergedCourse struct {
	name   string
	topics *utils.OrderedMap[uint, string]
}

func NewSuggestionMerger() *SuggestionMerger {
	return &SuggestionMerger{courses: utils.NewOrderedMap[uint, *mergedCourse]()}
}

func (m *SuggestionMerger) Add(courses []models.SuggestedCourse) {
	for _, c := range courses {
		if c.ID == 0 {
			continue
		}
		entry, _ := m.courses.InsertIfAbsent(c.ID, &mergedCourse{
			name:   c.Name,
			topics: utils.NewOrderedMap[uint, string](),
		})
		for _, topic := range c.Topics {
			if topic.ID == 0 {
				continue
			}
			(*entry).topics.InsertIfAbsent(topic.ID, topic.Name)
		}
	}
}

func (m *SuggestionMerger) Result() *models.Recommendations {
	result := &models.Recommendations{Courses: make([]models.RecommendedCourse, 0, m.courses.Len())}
	for _, id := range m.courses.Keys() {
		course, _ := m.courses.Get(id)

		topicIDs := course.topics.Keys()
		topics := make([]models.RecommendedTopic, 0, len(topicIDs))
		for _, topicID := range topicIDs {
			name, _ := course.topics.Get(topicID)
			topics = append(topics, models.RecommendedTopic{TopicID: topicID, TopicName: name})
		}

		result.Courses = append(result.Courses, models.RecommendedCourse{
			CourseID:   id,
			CourseName: course.name,
			Topics:     topics,
			TopicCount: len(topics),
		})
	}
	return result
}
