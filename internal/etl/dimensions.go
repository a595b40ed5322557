package etl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"gorm.io/gorm"
)

// Builder transforms source rows into datamart rows. Every Load method is
// insert-only and writes through the transaction it is given; the caller
// truncates first.
type Builder struct {
	source      repositories.SourceRepository
	datamart    repositories.DatamartRepository
	studentRole string
	logger      *slog.Logger
}

func NewBuilder(source repositories.SourceRepository, datamart repositories.DatamartRepository, studentRole string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		source:      source,
		datamart:    datamart,
		studentRole: studentRole,
		logger:      logger.With("component", "etl_builder"),
	}
}

// ===== USER DIMENSION =====

func (b *Builder) LoadUsers(ctx context.Context, tx *gorm.DB) (int, error) {
	students, err := b.source.ListStudents(ctx, b.studentRole)
	if err != nil {
		return 0, fmt.Errorf("read students: %w", err)
	}

	rows := UserRows(students)
	if err := b.datamart.InsertUsers(ctx, tx, rows); err != nil {
		return 0, fmt.Errorf("insert dim_user: %w", err)
	}
	return len(rows), nil
}

// UserRows maps each student to one dim_user row.
func UserRows(students []repositories.StudentRow) []*models.DimUser {
	rows := make([]*models.DimUser, 0, len(students))
	for _, s := range students {
		rows = append(rows, &models.DimUser{
			UserID:   s.UserID,
			FullName: s.FirstName + " " + s.LastName,
		})
	}
	return rows
}

// ===== TIME DIMENSION =====

func (b *Builder) LoadTimes(ctx context.Context, tx *gorm.DB) (int, error) {
	dates := NewDateSet()
	err := b.source.EachAttemptTimestamps(ctx, func(ts repositories.AttemptTimestamps) error {
		dates.Add(ts.CreatedAt)
		dates.Add(ts.UpdatedAt)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("read attempt dates: %w", err)
	}

	rows := dates.Rows()
	if err := b.datamart.InsertTimes(ctx, tx, rows); err != nil {
		return 0, fmt.Errorf("insert dim_time: %w", err)
	}
	return len(rows), nil
}

// DateSet collects distinct calendar dates.
type DateSet struct {
	days map[string]time.Time
}

func NewDateSet() *DateSet {
	return &DateSet{days: make(map[string]time.Time)}
}

// Add records the calendar date of t. Zero times are ignored.
func (s *DateSet) Add(t time.Time) {
	if t.IsZero() {
		return
	}
	day := utils.DayOf(t)
	s.days[utils.DayKey(day)] = day
}

func (s *DateSet) Len() int {
	return len(s.days)
}

// Rows returns one dim_time row per distinct date, oldest first.
func (s *DateSet) Rows() []*models.DimTime {
	keys := make([]string, 0, len(s.days))
	for k := range s.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]*models.DimTime, 0, len(keys))
	for _, k := range keys {
		day := s.days[k]
		rows = append(rows, &models.DimTime{
			Date:  day,
			Year:  day.Year(),
			Month: int(day.Month()),
		})
	}
	return rows
}

// ===== TOPIC DIMENSION =====

func (b *Builder) LoadTopics(ctx context.Context, tx *gorm.DB) (int, error) {
	topics, err := b.source.ListTopics(ctx)
	if err != nil {
		return 0, fmt.Errorf("read topics: %w", err)
	}

	rows := TopicRows(topics)
	if err := b.datamart.InsertTopics(ctx, tx, rows); err != nil {
		return 0, fmt.Errorf("insert dim_topic: %w", err)
	}
	return len(rows), nil
}

func TopicRows(topics []repositories.TopicRow) []*models.DimTopic {
	rows := make([]*models.DimTopic, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, &models.DimTopic{
			TopicID:    t.TopicID,
			CourseID:   t.CourseID,
			CourseName: t.CourseName,
			TopicName:  t.TopicName,
		})
	}
	return rows
}
