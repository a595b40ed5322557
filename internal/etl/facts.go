package etl

import (
	"context"
	"fmt"
	"sort"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/repositories"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"gorm.io/gorm"
)

// GroupKey is the grain of fact_simulation_results.
type GroupKey struct {
	UserID  uint
	Day     string // yyyy-mm-dd
	TopicID uint
}

type FactGroup struct {
	Key       GroupKey
	Total     int
	Correct   int
	Incorrect int
	Blank     int
	TotalTime int
}

// FactAccumulator folds streamed answers into (user, day, topic) groups.
type FactAccumulator struct {
	groups map[GroupKey]*FactGroup
}

func NewFactAccumulator() *FactAccumulator {
	return &FactAccumulator{groups: make(map[GroupKey]*FactGroup)}
}

// Add counts one answer. An unanswered question is blank, an answered one is
// correct only when its result is true.
func (a *FactAccumulator) Add(row repositories.AnswerRow) {
	key := GroupKey{
		UserID:  row.UserID,
		Day:     utils.DayKey(utils.DayOf(row.AttemptedAt)),
		TopicID: row.TopicID,
	}
	g, ok := a.groups[key]
	if !ok {
		g = &FactGroup{Key: key}
		a.groups[key] = g
	}

	g.Total++
	g.TotalTime += row.TimeSpent
	switch {
	case !row.Answered:
		g.Blank++
	case row.Result != nil && *row.Result:
		g.Correct++
	default:
		g.Incorrect++
	}
}

// Groups returns the groups ordered by user, day and topic.
func (a *FactAccumulator) Groups() []FactGroup {
	out := make([]FactGroup, 0, len(a.groups))
	for _, g := range a.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Key, out[j].Key
		if ki.UserID != kj.UserID {
			return ki.UserID < kj.UserID
		}
		if ki.Day != kj.Day {
			return ki.Day < kj.Day
		}
		return ki.TopicID < kj.TopicID
	})
	return out
}

// DimensionKeys maps natural keys to surrogate keys as loaded in the datamart.
type DimensionKeys struct {
	Users  map[uint]uint
	Times  map[string]uint
	Topics map[uint]uint
}

// ResolveFacts turns groups into fact rows. A group with any unresolved key is
// dropped and counted in skipped.
func ResolveFacts(groups []FactGroup, keys DimensionKeys) (facts []*models.FactSimulationResult, skipped []FactGroup) {
	facts = make([]*models.FactSimulationResult, 0, len(groups))
	for _, g := range groups {
		userKey, okUser := keys.Users[g.Key.UserID]
		timeKey, okTime := keys.Times[g.Key.Day]
		topicKey, okTopic := keys.Topics[g.Key.TopicID]
		if !okUser || !okTime || !okTopic {
			skipped = append(skipped, g)
			continue
		}

		facts = append(facts, &models.FactSimulationResult{
			UserKey:        userKey,
			TimeKey:        timeKey,
			TopicKey:       topicKey,
			TotalQuestions: g.Total,
			CorrectCount:   g.Correct,
			IncorrectCount: g.Incorrect,
			BlankCount:     g.Blank,
			TotalTime:      g.TotalTime,
			TotalScore:     Score(g.Correct, g.Incorrect, g.Blank),
		})
	}
	return facts, skipped
}

type FactLoad struct {
	Inserted int
	Skipped  int
}

// LoadFacts aggregates every source answer and inserts the resolvable groups.
// Keys are read through tx so dimensions loaded earlier in the same
// transaction are visible.
func (b *Builder) LoadFacts(ctx context.Context, tx *gorm.DB) (FactLoad, error) {
	acc := NewFactAccumulator()
	err := b.source.EachAnswer(ctx, func(row repositories.AnswerRow) error {
		acc.Add(row)
		return nil
	})
	if err != nil {
		return FactLoad{}, fmt.Errorf("read answers: %w", err)
	}

	keys, err := b.dimensionKeys(ctx, tx)
	if err != nil {
		return FactLoad{}, err
	}

	facts, skipped := ResolveFacts(acc.Groups(), keys)
	for _, g := range skipped {
		b.logger.DebugContext(ctx, "Skipping fact group with unresolved dimension key",
			"user_id", g.Key.UserID,
			"date", g.Key.Day,
			"topic_id", g.Key.TopicID,
		)
	}

	if err := b.datamart.InsertFacts(ctx, tx, facts); err != nil {
		return FactLoad{}, fmt.Errorf("insert fact_simulation_results: %w", err)
	}
	return FactLoad{Inserted: len(facts), Skipped: len(skipped)}, nil
}

func (b *Builder) dimensionKeys(ctx context.Context, tx *gorm.DB) (DimensionKeys, error) {
	users, err := b.datamart.UserKeys(ctx, tx)
	if err != nil {
		return DimensionKeys{}, fmt.Errorf("read user keys: %w", err)
	}
	times, err := b.datamart.TimeKeys(ctx, tx)
	if err != nil {
		return DimensionKeys{}, fmt.Errorf("read time keys: %w", err)
	}
	topics, err := b.datamart.TopicKeys(ctx, tx)
	if err != nil {
		return DimensionKeys{}, fmt.Errorf("read topic keys: %w", err)
	}
	return DimensionKeys{Users: users, Times: times, Topics: topics}, nil
}
