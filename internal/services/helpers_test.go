package services

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/cache"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// memoryCache is an in-process CacheService for tests
type memoryCache struct {
	mu       sync.Mutex
	items    map[string][]byte
	patterns []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = payload
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	payload, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *memoryCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

// MockDatamartRepository is a mock implementation of DatamartRepository
type MockDatamartRepository struct {
	mock.Mock
}

var _ repositories.DatamartRepository = (*MockDatamartRepository)(nil)

func (m *MockDatamartRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockDatamartRepository) TruncateAll(ctx context.Context, tx *gorm.DB) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockDatamartRepository) InsertUsers(ctx context.Context, tx *gorm.DB, rows []*models.DimUser) error {
	args := m.Called(ctx, tx, rows)
	return args.Error(0)
}

func (m *MockDatamartRepository) InsertTimes(ctx context.Context, tx *gorm.DB, rows []*models.DimTime) error {
	args := m.Called(ctx, tx, rows)
	return args.Error(0)
}

func (m *MockDatamartRepository) InsertTopics(ctx context.Context, tx *gorm.DB, rows []*models.DimTopic) error {
	args := m.Called(ctx, tx, rows)
	return args.Error(0)
}

func (m *MockDatamartRepository) InsertFacts(ctx context.Context, tx *gorm.DB, rows []*models.FactSimulationResult) error {
	args := m.Called(ctx, tx, rows)
	return args.Error(0)
}

func (m *MockDatamartRepository) UserKeys(ctx context.Context, tx *gorm.DB) (map[uint]uint, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(map[uint]uint), args.Error(1)
}

func (m *MockDatamartRepository) TimeKeys(ctx context.Context, tx *gorm.DB) (map[string]uint, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(map[string]uint), args.Error(1)
}

func (m *MockDatamartRepository) TopicKeys(ctx context.Context, tx *gorm.DB) (map[uint]uint, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(map[uint]uint), args.Error(1)
}

func (m *MockDatamartRepository) FindUserKey(ctx context.Context, tx *gorm.DB, userID uint) (uint, error) {
	args := m.Called(ctx, tx, userID)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockDatamartRepository) FindTopicKeysByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	args := m.Called(ctx, tx, courseID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockDatamartRepository) ScoresByDate(ctx context.Context, tx *gorm.DB, userKey uint, year, month int) ([]repositories.DailyScore, error) {
	args := m.Called(ctx, tx, userKey, year, month)
	return args.Get(0).([]repositories.DailyScore), args.Error(1)
}

func (m *MockDatamartRepository) AnswerCountsByDate(ctx context.Context, tx *gorm.DB, userKey uint, year, month int, topicKeys []uint) ([]repositories.DailyAnswerCounts, error) {
	args := m.Called(ctx, tx, userKey, year, month, topicKeys)
	return args.Get(0).([]repositories.DailyAnswerCounts), args.Error(1)
}

func (m *MockDatamartRepository) AverageTimeByMaterialType(ctx context.Context, tx *gorm.DB) ([]repositories.MaterialTypeAverage, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).([]repositories.MaterialTypeAverage), args.Error(1)
}

func (m *MockDatamartRepository) AverageFrequencyByMaterialType(ctx context.Context, tx *gorm.DB) ([]repositories.MaterialTypeAverage, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).([]repositories.MaterialTypeAverage), args.Error(1)
}
