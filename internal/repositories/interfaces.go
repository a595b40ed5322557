package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ===== SOURCE ROWS =====

type StudentRow struct {
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TopicRow struct {
	TopicID    uint   `json:"topic_id"`
	CourseID   uint   `json:"course_id"`
	CourseName string `json:"course_name"`
	TopicName  string `json:"topic_name"`
}

type AttemptTimestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerRow is one per-question answer joined with its attempt and question.
type AnswerRow struct {
	UserID      uint      `json:"user_id"`
	AttemptedAt time.Time `json:"attempted_at"`
	TopicID     uint      `json:"topic_id"`
	Answered    bool      `json:"answered"`
	Result      *bool     `json:"result"`
	TimeSpent   int       `json:"time_spent"`
}

type SuggestionRow struct {
	AttemptID uint      `json:"attempt_id"`
	CreatedAt time.Time `json:"created_at"`
	Payload   []byte    `json:"payload"`
}

// ===== DATAMART AGGREGATES =====

type DailyScore struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

type DailyAnswerCounts struct {
	Date      time.Time `json:"date"`
	Blank     int       `json:"blank"`
	Incorrect int       `json:"incorrect"`
	Correct   int       `json:"correct"`
}

type MaterialTypeAverage struct {
	MaterialType string  `json:"material_type"`
	Value        float64 `json:"value"`
}

// IsNotFoundError reports whether err is a missing record
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
