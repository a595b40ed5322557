package repositories

import (
	"context"
	"time"
)

// SourceRepository reads the transactional store. It never writes and never
// joins a datamart transaction: the two stores are separate connections.
type SourceRepository interface {
	// Dimension inputs
	ListStudents(ctx context.Context, roleName string) ([]StudentRow, error)
	ListTopics(ctx context.Context) ([]TopicRow, error)
	EachAttemptTimestamps(ctx context.Context, fn func(AttemptTimestamps) error) error

	// Fact input, streamed row by row
	EachAnswer(ctx context.Context, fn func(AnswerRow) error) error

	// Suggestions payloads of one user created in [from, to), oldest first
	ListSuggestionPayloads(ctx context.Context, userID uint, from, to time.Time) ([]SuggestionRow, error)
}
