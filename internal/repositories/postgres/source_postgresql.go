package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"gorm.io/gorm"
)

type SourcePostgreSQL struct {
	db *gorm.DB
}

func NewSourcePostgreSQL(db *gorm.DB) repositories.SourceRepository {
	return &SourcePostgreSQL{db: db}
}

func (s SourcePostgreSQL) ListStudents(ctx context.Context, roleName string) ([]repositories.StudentRow, error) {
	var rows []repositories.StudentRow
	if err := s.db.WithContext(ctx).
		Table(models.User{}.TableName()+" AS u").
		Select("u.id AS user_id, u.first_name, u.last_name").
		Joins("JOIN roles r ON r.id = u.role_id").
		Where("r.name = ?", roleName).
		Order("u.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s SourcePostgreSQL) ListTopics(ctx context.Context) ([]repositories.TopicRow, error) {
	var rows []repositories.TopicRow
	if err := s.db.WithContext(ctx).
		Table(models.Topic{}.TableName()+" AS t").
		Select("t.id AS topic_id, c.id AS course_id, c.name AS course_name, t.name AS topic_name").
		Joins("JOIN courses c ON c.id = t.course_id").
		Order("t.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s SourcePostgreSQL) EachAttemptTimestamps(ctx context.Context, fn func(repositories.AttemptTimestamps) error) error {
	rows, err := s.db.WithContext(ctx).
		Model(&models.SimulationAttempt{}).
		Select("created_at, updated_at").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ts repositories.AttemptTimestamps
		if err := rows.Scan(&ts.CreatedAt, &ts.UpdatedAt); err != nil {
			return fmt.Errorf("scan attempt timestamps: %w", err)
		}
		if err := fn(ts); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s SourcePostgreSQL) EachAnswer(ctx context.Context, fn func(repositories.AnswerRow) error) error {
	rows, err := s.db.WithContext(ctx).
		Table(models.SimulationAnswer{}.TableName()+" AS a").
		Select("att.user_id, att.created_at, q.topic_id, a.selected_option, a.result, a.time_spent").
		Joins("JOIN simulation_attempts att ON att.id = a.attempt_id").
		Joins("JOIN questions q ON q.id = a.question_id").
		Order("att.user_id ASC, att.created_at ASC, a.id ASC").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row      repositories.AnswerRow
			selected sql.NullString
			result   sql.NullBool
			spent    sql.NullInt64
		)
		if err := rows.Scan(&row.UserID, &row.AttemptedAt, &row.TopicID, &selected, &result, &spent); err != nil {
			return fmt.Errorf("scan answer: %w", err)
		}
		row.Answered = selected.Valid && selected.String != ""
		if result.Valid {
			v := result.Bool
			row.Result = &v
		}
		row.TimeSpent = int(spent.Int64)

		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s SourcePostgreSQL) ListSuggestionPayloads(ctx context.Context, userID uint, from, to time.Time) ([]repositories.SuggestionRow, error) {
	var attempts []models.SimulationAttempt
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ? AND suggestions IS NOT NULL", userID, from, to).
		Order("created_at ASC, id ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	rows := make([]repositories.SuggestionRow, 0, len(attempts))
	for _, a := range attempts {
		if a.Suggestions == nil {
			continue
		}
		rows = append(rows, repositories.SuggestionRow{
			AttemptID: a.ID,
			CreatedAt: a.CreatedAt,
			Payload:   []byte(*a.Suggestions),
		})
	}
	return rows, nil
}
