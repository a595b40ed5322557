// Package testutil opens throwaway in-memory stores for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLite opens a private in-memory database migrated with the given models.
// A single connection keeps every statement on the same in-memory database.
func NewSQLite(t *testing.T, tables ...interface{}) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func NewSourceDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewSQLite(t, models.SourceTables()...)
}

func NewDatamartDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewSQLite(t, models.DatamartTables()...)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// At returns the given UTC instant.
func At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

// SourceFixture seeds the transactional store.
type SourceFixture struct {
	t  *testing.T
	db *gorm.DB
}

func NewSourceFixture(t *testing.T, db *gorm.DB) *SourceFixture {
	return &SourceFixture{t: t, db: db}
}

func (f *SourceFixture) Role(name string) *models.Role {
	role := &models.Role{Name: name}
	require.NoError(f.t, f.db.Create(role).Error)
	return role
}

func (f *SourceFixture) User(first, last string, roleID uint) *models.User {
	user := &models.User{FirstName: first, LastName: last, RoleID: roleID}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *SourceFixture) Course(name string) *models.Course {
	course := &models.Course{Name: name}
	require.NoError(f.t, f.db.Create(course).Error)
	return course
}

func (f *SourceFixture) Topic(courseID uint, name string) *models.Topic {
	topic := &models.Topic{CourseID: courseID, Name: name}
	require.NoError(f.t, f.db.Create(topic).Error)
	return topic
}

func (f *SourceFixture) Question(topicID uint) *models.Question {
	question := &models.Question{TopicID: topicID}
	require.NoError(f.t, f.db.Create(question).Error)
	return question
}

// Attempt stores an attempt with explicit timestamps and an optional raw suggestions payload.
func (f *SourceFixture) Attempt(userID uint, createdAt, updatedAt time.Time, suggestions string) *models.SimulationAttempt {
	attempt := &models.SimulationAttempt{
		UserID:       userID,
		SimulationID: 1,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if suggestions != "" {
		payload := datatypes.JSON(suggestions)
		attempt.Suggestions = &payload
	}
	require.NoError(f.t, f.db.Create(attempt).Error)
	return attempt
}

// Answer stores one answer. An empty option is stored as NULL.
func (f *SourceFixture) Answer(attemptID, questionID uint, option string, result *bool, timeSpent int) *models.SimulationAnswer {
	answer := &models.SimulationAnswer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Result:     result,
		TimeSpent:  timeSpent,
	}
	if option != "" {
		answer.SelectedOption = &option
	}
	require.NoError(f.t, f.db.Create(answer).Error)
	return answer
}

func Bool(v bool) *bool {
	return &v
}
