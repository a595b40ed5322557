package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tables of the transactional store. The reporting service only reads them;
// ownership stays with the platform backend.

type Role struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:50"`
}

func (Role) TableName() string {
	return "roles"
}

type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"not null;size:100"`
	LastName  string `json:"last_name" gorm:"not null;size:100"`
	RoleID    uint   `json:"role_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Course struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:200"`
}

func (Course) TableName() string {
	return "courses"
}

type Topic struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null;size:200"`
}

func (Topic) TableName() string {
	return "topics"
}

type Question struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	TopicID uint `json:"topic_id" gorm:"not null;index"`
}

func (Question) TableName() string {
	return "questions"
}

// SimulationAttempt is one student sitting of a mock exam. Suggestions holds
// the recommended courses produced by the grading step, as free-form JSON.
type SimulationAttempt struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"not null;index"`
	SimulationID uint            `json:"simulation_id" gorm:"index"`
	Suggestions  *datatypes.JSON `json:"suggestions" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SimulationAttempt) TableName() string {
	return "simulation_attempts"
}

// SimulationAnswer is a per-question answer. A nil SelectedOption is a blank answer.
type SimulationAnswer struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	AttemptID      uint    `json:"attempt_id" gorm:"not null;index"`
	QuestionID     uint    `json:"question_id" gorm:"not null;index"`
	SelectedOption *string `json:"selected_option" gorm:"size:10"`
	Result         *bool   `json:"result"`
	TimeSpent      int     `json:"time_spent"` // seconds
}

func (SimulationAnswer) TableName() string {
	return "simulation_answers"
}
