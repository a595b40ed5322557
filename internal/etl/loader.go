package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"gorm.io/gorm"
)

// Stage is a step of a datamart reload.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageTruncateAll Stage = "truncate_all"
	StageLoadUser    Stage = "load_user"
	StageLoadTime    Stage = "load_time"
	StageLoadTopic   Stage = "load_topic"
	StageLoadFacts   Stage = "load_facts"
	StageCommitted   Stage = "committed"
	StageRolledBack  Stage = "rolled_back"
)

// Dimension names a dimension that can be reloaded on its own.
type Dimension string

const (
	DimensionUser  Dimension = "user"
	DimensionTime  Dimension = "time"
	DimensionTopic Dimension = "topic"
)

func ParseDimension(s string) (Dimension, bool) {
	switch d := Dimension(s); d {
	case DimensionUser, DimensionTime, DimensionTopic:
		return d, true
	}
	return "", false
}

const (
	ModeFull      = "full"
	ModeDimension = "dimension"
)

// LoadResult reports the outcome of one reload. Rows is keyed by table name.
type LoadResult struct {
	Mode         string         `json:"mode"`
	Dimension    Dimension      `json:"dimension,omitempty"`
	Stage        Stage          `json:"stage"`
	Rows         map[string]int `json:"rows"`
	SkippedFacts int            `json:"skipped_facts"`
	Duration     time.Duration  `json:"duration"`
}

// StageError is returned when a reload fails; the transaction has been rolled back.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Loader runs reloads against the datamart. It does not guard against
// concurrent calls; callers serialize reloads.
type Loader struct {
	datamart repositories.DatamartRepository
	builder  *Builder
	logger   *slog.Logger
}

func NewLoader(source repositories.SourceRepository, datamart repositories.DatamartRepository, studentRole string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		datamart: datamart,
		builder:  NewBuilder(source, datamart, studentRole, logger),
		logger:   logger.With("component", "etl_loader"),
	}
}

// FullReload truncates and rebuilds every dimension and the fact table in one
// transaction. Readers see either the previous snapshot or the new one.
func (l *Loader) FullReload(ctx context.Context) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{Mode: ModeFull, Stage: StageIdle, Rows: make(map[string]int)}

	err := l.datamart.Transaction(ctx, func(tx *gorm.DB) error {
		if err := l.enter(ctx, result, StageTruncateAll, func() error {
			return l.datamart.TruncateAll(ctx, tx)
		}); err != nil {
			return err
		}

		if err := l.enter(ctx, result, StageLoadUser, func() error {
			n, err := l.builder.LoadUsers(ctx, tx)
			result.Rows[models.DimUser{}.TableName()] = n
			return err
		}); err != nil {
			return err
		}

		if err := l.enter(ctx, result, StageLoadTime, func() error {
			n, err := l.builder.LoadTimes(ctx, tx)
			result.Rows[models.DimTime{}.TableName()] = n
			return err
		}); err != nil {
			return err
		}

		if err := l.enter(ctx, result, StageLoadTopic, func() error {
			n, err := l.builder.LoadTopics(ctx, tx)
			result.Rows[models.DimTopic{}.TableName()] = n
			return err
		}); err != nil {
			return err
		}

		return l.enter(ctx, result, StageLoadFacts, func() error {
			load, err := l.builder.LoadFacts(ctx, tx)
			result.Rows[models.FactSimulationResult{}.TableName()] = load.Inserted
			result.SkippedFacts = load.Skipped
			return err
		})
	})

	return l.finish(ctx, result, start, err)
}

// ReloadDimension empties ALL dimensions and facts, then loads only the
// requested dimension. The datamart stays partial until the next full reload.
func (l *Loader) ReloadDimension(ctx context.Context, dim Dimension) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{Mode: ModeDimension, Dimension: dim, Stage: StageIdle, Rows: make(map[string]int)}

	var (
		stage Stage
		table string
		load  func(ctx context.Context, tx *gorm.DB) (int, error)
	)
	switch dim {
	case DimensionUser:
		stage, table, load = StageLoadUser, models.DimUser{}.TableName(), l.builder.LoadUsers
	case DimensionTime:
		stage, table, load = StageLoadTime, models.DimTime{}.TableName(), l.builder.LoadTimes
	case DimensionTopic:
		stage, table, load = StageLoadTopic, models.DimTopic{}.TableName(), l.builder.LoadTopics
	default:
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}

	l.logger.WarnContext(ctx, "Targeted reload truncates every dimension and all facts",
		"dimension", string(dim),
	)

	err := l.datamart.Transaction(ctx, func(tx *gorm.DB) error {
		if err := l.enter(ctx, result, StageTruncateAll, func() error {
			return l.datamart.TruncateAll(ctx, tx)
		}); err != nil {
			return err
		}
		return l.enter(ctx, result, stage, func() error {
			n, err := load(ctx, tx)
			result.Rows[table] = n
			return err
		})
	})

	return l.finish(ctx, result, start, err)
}

func (l *Loader) enter(ctx context.Context, result *LoadResult, stage Stage, run func() error) error {
	result.Stage = stage
	l.logger.DebugContext(ctx, "Entering reload stage", "mode", result.Mode, "stage", string(stage))
	if err := run(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

func (l *Loader) finish(ctx context.Context, result *LoadResult, start time.Time, err error) (*LoadResult, error) {
	result.Duration = time.Since(start)

	if err != nil {
		failed := result.Stage
		result.Stage = StageRolledBack
		l.logger.ErrorContext(ctx, "Datamart reload rolled back",
			"mode", result.Mode,
			"failed_stage", string(failed),
			"duration", result.Duration,
			"error", err.Error(),
		)
		return result, err
	}

	result.Stage = StageCommitted
	l.logger.InfoContext(ctx, "Datamart reload committed",
		"mode", result.Mode,
		"rows", result.Rows,
		"skipped_facts", result.SkippedFacts,
		"duration", result.Duration,
	)
	return result, nil
}
