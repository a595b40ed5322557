package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/etl"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/events"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories/postgres"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type etlFixture struct {
	service   ETLService
	guard     *LocalReloadGuard
	publisher *events.MockEventPublisher
	cache     *memoryCache
	datamart  *gorm.DB
}

func newETLFixture(t *testing.T, source repositories.SourceRepository, sourceDB *gorm.DB) *etlFixture {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	datamart := testutil.NewDatamartDB(t)

	if source == nil {
		source = postgres.NewSourcePostgreSQL(sourceDB)
	}
	loader := etl.NewLoader(source, postgres.NewDatamartPostgreSQL(datamart), "student", logger)

	fx := &etlFixture{
		guard:     NewLocalReloadGuard(),
		publisher: events.NewMockEventPublisher(logger),
		cache:     newMemoryCache(),
		datamart:  datamart,
	}
	fx.service = NewETLService(loader, fx.guard, fx.publisher, fx.cache, logger)
	return fx
}

func seedSource(t *testing.T) *gorm.DB {
	db := testutil.NewSourceDB(t)
	f := testutil.NewSourceFixture(t, db)

	role := f.Role("student")
	user := f.User("Ana", "Torres", role.ID)
	course := f.Course("Química")
	topic := f.Topic(course.ID, "Gases")
	question := f.Question(topic.ID)

	at := testutil.At(2024, 3, 4, 10, 0)
	attempt := f.Attempt(user.ID, at, at, "")
	f.Answer(attempt.ID, question.ID, "A", testutil.Bool(true), 30)
	return db
}

func TestETLService_RunFullReload(t *testing.T) {
	fx := newETLFixture(t, nil, seedSource(t))
	ctx := context.Background()

	require.NoError(t, fx.cache.Set(ctx, "reports:scores:1:2024:3", []int{1}, 0))

	result, err := fx.service.RunFullReload(ctx)
	require.NoError(t, err)
	assert.Equal(t, etl.StageCommitted, result.Stage)
	assert.Equal(t, 1, result.Rows["fact_simulation_results"])

	var n int64
	require.NoError(t, fx.datamart.Model(&models.FactSimulationResult{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, []string{"reports:*"}, fx.cache.patterns)
	assert.Empty(t, fx.cache.keys())

	published := fx.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventDatamartReloaded, published[0].Type)

	data, ok := published[0].Data.(events.ReloadEvent)
	require.True(t, ok)
	assert.Equal(t, "full", data.Mode)
	assert.Equal(t, "committed", data.Stage)
	assert.Empty(t, data.Error)
}

func TestETLService_RejectsConcurrentReload(t *testing.T) {
	fx := newETLFixture(t, nil, seedSource(t))
	ctx := context.Background()

	release, err := fx.guard.TryAcquire(ctx)
	require.NoError(t, err)

	_, err = fx.service.RunFullReload(ctx)
	require.ErrorIs(t, err, ErrReloadInProgress)
	assert.True(t, IsConflict(err))

	_, err = fx.service.ReloadDimension(ctx, "user")
	assert.ErrorIs(t, err, ErrReloadInProgress)
	assert.Empty(t, fx.publisher.GetPublishedEvents())

	release()
	_, err = fx.service.RunFullReload(ctx)
	assert.NoError(t, err)
}

func TestETLService_FailurePublishesAndKeepsCache(t *testing.T) {
	sourceDB := seedSource(t)
	broken := brokenAnswers{SourceRepository: postgres.NewSourcePostgreSQL(sourceDB)}
	fx := newETLFixture(t, broken, sourceDB)
	ctx := context.Background()

	_, err := fx.service.RunFullReload(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answers table unavailable")

	assert.Empty(t, fx.cache.patterns)

	published := fx.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventDatamartReloadFailed, published[0].Type)
	data := published[0].Data.(events.ReloadEvent)
	assert.Equal(t, "rolled_back", data.Stage)
	assert.Contains(t, data.Error, "answers table unavailable")
	assert.Equal(t, "reload", published[0].Metadata["type"])
	assert.Equal(t, "load_facts", published[0].Metadata["stage"])
}

func TestETLService_ReloadDimension(t *testing.T) {
	fx := newETLFixture(t, nil, seedSource(t))
	ctx := context.Background()

	result, err := fx.service.ReloadDimension(ctx, "topic")
	require.NoError(t, err)
	assert.Equal(t, etl.DimensionTopic, result.Dimension)
	assert.Equal(t, 1, result.Rows["dim_topic"])

	published := fx.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventDimensionReloaded, published[0].Type)
	assert.Equal(t, "topic", published[0].Data.(events.ReloadEvent).Mode)
}

func TestETLService_ReloadUnknownDimension(t *testing.T) {
	fx := newETLFixture(t, nil, seedSource(t))

	_, err := fx.service.ReloadDimension(context.Background(), "material")
	require.ErrorIs(t, err, ErrUnknownDimension)
	assert.True(t, IsValidation(err))
}

type brokenAnswers struct {
	repositories.SourceRepository
}

func (brokenAnswers) EachAnswer(ctx context.Context, fn func(repositories.AnswerRow) error) error {
	return errors.New("answers table unavailable")
}
