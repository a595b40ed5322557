package repositories

import (
	"context"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"gorm.io/gorm"
)

// DatamartRepository writes and reads the star schema. Every method takes an
// optional transaction; a nil tx runs against the datamart connection.
type DatamartRepository interface {
	// Transaction runs fn inside one datamart transaction, rolling back on error or panic
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Reload writes
	TruncateAll(ctx context.Context, tx *gorm.DB) error
	InsertUsers(ctx context.Context, tx *gorm.DB, rows []*models.DimUser) error
	InsertTimes(ctx context.Context, tx *gorm.DB, rows []*models.DimTime) error
	InsertTopics(ctx context.Context, tx *gorm.DB, rows []*models.DimTopic) error
	InsertFacts(ctx context.Context, tx *gorm.DB, rows []*models.FactSimulationResult) error

	// Surrogate key lookups, natural key -> surrogate key
	UserKeys(ctx context.Context, tx *gorm.DB) (map[uint]uint, error)
	TimeKeys(ctx context.Context, tx *gorm.DB) (map[string]uint, error)
	TopicKeys(ctx context.Context, tx *gorm.DB) (map[uint]uint, error)

	// Report reads
	FindUserKey(ctx context.Context, tx *gorm.DB, userID uint) (uint, error)
	FindTopicKeysByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error)
	ScoresByDate(ctx context.Context, tx *gorm.DB, userKey uint, year, month int) ([]DailyScore, error)
	AnswerCountsByDate(ctx context.Context, tx *gorm.DB, userKey uint, year, month int, topicKeys []uint) ([]DailyAnswerCounts, error)
	AverageTimeByMaterialType(ctx context.Context, tx *gorm.DB) ([]MaterialTypeAverage, error)
	AverageFrequencyByMaterialType(ctx context.Context, tx *gorm.DB) ([]MaterialTypeAverage, error)
}
