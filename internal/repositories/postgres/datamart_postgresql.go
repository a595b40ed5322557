package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// reloadTables are emptied by TruncateAll. dim_material and its consumption
// fact are owned by another loader and stay untouched.
var reloadTables = []string{
	models.FactSimulationResult{}.TableName(),
	models.DimUser{}.TableName(),
	models.DimTime{}.TableName(),
	models.DimTopic{}.TableName(),
}

type DatamartPostgreSQL struct {
	db *gorm.DB
}

func NewDatamartPostgreSQL(db *gorm.DB) repositories.DatamartRepository {
	return &DatamartPostgreSQL{db: db}
}

func (d DatamartPostgreSQL) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = d.db
	}
	return tx.WithContext(ctx)
}

func (d DatamartPostgreSQL) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(fn)
}

// TruncateAll empties the fact table and the three rebuilt dimensions and resets their identities.
func (d DatamartPostgreSQL) TruncateAll(ctx context.Context, tx *gorm.DB) error {
	db := d.conn(ctx, tx)

	if db.Dialector.Name() != "sqlite" {
		stmt := "TRUNCATE TABLE "
		for i, table := range reloadTables {
			if i > 0 {
				stmt += ", "
			}
			stmt += table
		}
		stmt += " RESTART IDENTITY CASCADE"
		return db.Exec(stmt).Error
	}

	// sqlite has no TRUNCATE; used by the in-memory test stores
	for _, table := range reloadTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	var sequences int64
	if err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").
		Scan(&sequences).Error; err != nil {
		return err
	}
	if sequences > 0 {
		return db.Exec("DELETE FROM sqlite_sequence WHERE name IN ?", reloadTables).Error
	}
	return nil
}

func (d DatamartPostgreSQL) InsertUsers(ctx context.Context, tx *gorm.DB, rows []*models.DimUser) error {
	if len(rows) == 0 {
		return nil
	}
	return d.conn(ctx, tx).CreateInBatches(rows, insertBatchSize).Error
}

func (d DatamartPostgreSQL) InsertTimes(ctx context.Context, tx *gorm.DB, rows []*models.DimTime) error {
	if len(rows) == 0 {
		return nil
	}
	return d.conn(ctx, tx).CreateInBatches(rows, insertBatchSize).Error
}

func (d DatamartPostgreSQL) InsertTopics(ctx context.Context, tx *gorm.DB, rows []*models.DimTopic) error {
	if len(rows) == 0 {
		return nil
	}
	return d.conn(ctx, tx).CreateInBatches(rows, insertBatchSize).Error
}

func (d DatamartPostgreSQL) InsertFacts(ctx context.Context, tx *gorm.DB, rows []*models.FactSimulationResult) error {
	if len(rows) == 0 {
		return nil
	}
	return d.conn(ctx, tx).CreateInBatches(rows, insertBatchSize).Error
}

// Key lookups keep the lowest surrogate key when a natural key repeats.

func (d DatamartPostgreSQL) UserKeys(ctx context.Context, tx *gorm.DB) (map[uint]uint, error) {
	var dims []models.DimUser
	if err := d.conn(ctx, tx).Order("user_key ASC").Find(&dims).Error; err != nil {
		return nil, err
	}
	keys := make(map[uint]uint, len(dims))
	for _, dim := range dims {
		if _, seen := keys[dim.UserID]; !seen {
			keys[dim.UserID] = dim.UserKey
		}
	}
	return keys, nil
}

func (d DatamartPostgreSQL) TimeKeys(ctx context.Context, tx *gorm.DB) (map[string]uint, error) {
	var dims []models.DimTime
	if err := d.conn(ctx, tx).Order("time_key ASC").Find(&dims).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]uint, len(dims))
	for _, dim := range dims {
		day := utils.DayKey(dim.Date)
		if _, seen := keys[day]; !seen {
			keys[day] = dim.TimeKey
		}
	}
	return keys, nil
}

func (d DatamartPostgreSQL) TopicKeys(ctx context.Context, tx *gorm.DB) (map[uint]uint, error) {
	var dims []models.DimTopic
	if err := d.conn(ctx, tx).Order("topic_key ASC").Find(&dims).Error; err != nil {
		return nil, err
	}
	keys := make(map[uint]uint, len(dims))
	for _, dim := range dims {
		if _, seen := keys[dim.TopicID]; !seen {
			keys[dim.TopicID] = dim.TopicKey
		}
	}
	return keys, nil
}

// FindUserKey returns gorm.ErrRecordNotFound when the user is not in dim_user
func (d DatamartPostgreSQL) FindUserKey(ctx context.Context, tx *gorm.DB, userID uint) (uint, error) {
	var dim models.DimUser
	if err := d.conn(ctx, tx).
		Where("user_id = ?", userID).
		Order("user_key ASC").
		First(&dim).Error; err != nil {
		return 0, err
	}
	return dim.UserKey, nil
}

// FindTopicKeysByCourse returns gorm.ErrRecordNotFound when the course has no topic in dim_topic
func (d DatamartPostgreSQL) FindTopicKeysByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	var keys []uint
	if err := d.conn(ctx, tx).
		Model(&models.DimTopic{}).
		Where("course_id = ?", courseID).
		Order("topic_key ASC").
		Pluck("topic_key", &keys).Error; err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return keys, nil
}

func (d DatamartPostgreSQL) ScoresByDate(ctx context.Context, tx *gorm.DB, userKey uint, year, month int) ([]repositories.DailyScore, error) {
	var rows []repositories.DailyScore
	if err := d.conn(ctx, tx).
		Table(models.FactSimulationResult{}.TableName()+" AS f").
		Select("t.date AS date, SUM(f.total_score) AS score").
		Joins("JOIN dim_time t ON t.time_key = f.time_key").
		Where("f.user_key = ? AND t.year = ? AND t.month = ?", userKey, year, month).
		Group("t.date").
		Order("t.date ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (d DatamartPostgreSQL) AnswerCountsByDate(ctx context.Context, tx *gorm.DB, userKey uint, year, month int, topicKeys []uint) ([]repositories.DailyAnswerCounts, error) {
	query := d.conn(ctx, tx).
		Table(models.FactSimulationResult{}.TableName()+" AS f").
		Select("t.date AS date, SUM(f.blank_count) AS blank, SUM(f.incorrect_count) AS incorrect, SUM(f.correct_count) AS correct").
		Joins("JOIN dim_time t ON t.time_key = f.time_key").
		Where("f.user_key = ? AND t.year = ? AND t.month = ?", userKey, year, month)

	if len(topicKeys) > 0 {
		query = query.Where("f.topic_key IN ?", topicKeys)
	}

	var rows []repositories.DailyAnswerCounts
	if err := query.Group("t.date").Order("t.date ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (d DatamartPostgreSQL) AverageTimeByMaterialType(ctx context.Context, tx *gorm.DB) ([]repositories.MaterialTypeAverage, error) {
	return d.materialAverage(ctx, tx, "c.time_spent")
}

func (d DatamartPostgreSQL) AverageFrequencyByMaterialType(ctx context.Context, tx *gorm.DB) ([]repositories.MaterialTypeAverage, error) {
	return d.materialAverage(ctx, tx, "c.frequency")
}

// materialAverage groups on the trimmed lower-cased type so spelling variants of
// one label share a single average
func (d DatamartPostgreSQL) materialAverage(ctx context.Context, tx *gorm.DB, column string) ([]repositories.MaterialTypeAverage, error) {
	if column != "c.time_spent" && column != "c.frequency" {
		return nil, errors.New("unsupported material measure")
	}

	var rows []repositories.MaterialTypeAverage
	if err := d.conn(ctx, tx).
		Table(models.FactMaterialConsumption{}.TableName()+" AS c").
		Select("LOWER(TRIM(m.material_type)) AS material_type, AVG(" + column + ") AS value").
		Joins("JOIN dim_material m ON m.material_key = c.material_key").
		Group("LOWER(TRIM(m.material_type))").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
