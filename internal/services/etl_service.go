package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/cache"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/etl"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/events"
)

// reportCachePattern matches every cached report response
const reportCachePattern = reportCacheNamespace + ":*"

type ETLService interface {
	RunFullReload(ctx context.Context) (*etl.LoadResult, error)
	ReloadDimension(ctx context.Context, dimension string) (*etl.LoadResult, error)
}

type etlService struct {
	loader    *etl.Loader
	guard     ReloadGuard
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *ServiceLogger
}

// NewETLService wires the loader behind the reload guard. publisher and
// reportCache may be nil.
func NewETLService(loader *etl.Loader, guard ReloadGuard, publisher events.EventPublisher, reportCache cache.CacheService, logger *slog.Logger) ETLService {
	if guard == nil {
		guard = NewLocalReloadGuard()
	}
	return &etlService{
		loader:    loader,
		guard:     guard,
		publisher: publisher,
		cache:     reportCache,
		logger:    NewServiceLogger(logger, LogConfig{Service: "reporting", Component: "etl"}),
	}
}

func (s *etlService) RunFullReload(ctx context.Context) (*etl.LoadResult, error) {
	op := s.logger.WithOperation(ctx, "full_reload", 0)

	result, err := s.guarded(ctx, func() (*etl.LoadResult, error) {
		return s.loader.FullReload(ctx)
	})
	op.LogResult("datamart", err)
	return result, err
}

func (s *etlService) ReloadDimension(ctx context.Context, dimension string) (*etl.LoadResult, error) {
	op := s.logger.WithOperation(ctx, "reload_dimension", 0)

	dim, ok := etl.ParseDimension(dimension)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
		op.LogResult("datamart", err)
		return nil, err
	}

	result, err := s.guarded(ctx, func() (*etl.LoadResult, error) {
		return s.loader.ReloadDimension(ctx, dim)
	})
	op.LogResult("datamart", err)
	return result, err
}

func (s *etlService) guarded(ctx context.Context, run func() (*etl.LoadResult, error)) (*etl.LoadResult, error) {
	release, err := s.guard.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := run()
	if err != nil {
		s.publish(ctx, events.EventDatamartReloadFailed, result, err)
		return result, err
	}

	s.invalidateReports(ctx)

	eventType := events.EventDatamartReloaded
	if result.Mode == etl.ModeDimension {
		eventType = events.EventDimensionReloaded
	}
	s.publish(ctx, eventType, result, nil)
	return result, nil
}

func (s *etlService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, reportCachePattern); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to invalidate report cache", "error", err)
	}
}

func (s *etlService) publish(ctx context.Context, eventType events.EventType, result *etl.LoadResult, cause error) {
	if s.publisher == nil {
		return
	}

	data := events.ReloadEvent{Mode: etl.ModeFull}
	if result != nil {
		data.Mode = result.Mode
		if result.Dimension != "" {
			data.Mode = string(result.Dimension)
		}
		data.Stage = string(result.Stage)
		data.Rows = result.Rows
		data.SkippedFact = result.SkippedFacts
		data.DurationMS = result.Duration.Milliseconds()
	}
	if cause != nil {
		data.Error = cause.Error()
	}

	event := events.NewEvent(eventType, data)
	if cause != nil {
		event.Metadata = FormatError(cause)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to publish datamart event",
			"event_type", string(eventType),
			"error", err,
		)
	}
}
