package catalog

import (
	"context"

	"trivia-session-service/internal/domain"
)

// DefaultSetName is the set used when a room has no set bound to it.
const DefaultSetName = "Default Set"

// Catalog is the question source consulted when a session starts. Every
// implementation returns canonical domain.Question values; normalization of
// loose source shapes happens exactly once, behind this interface.
type Catalog interface {
	ListSets(ctx context.Context) ([]domain.QuestionSet, error)
	SetByName(ctx context.Context, name string) (domain.QuestionSet, error)
	QuestionsForSet(ctx context.Context, setID string) ([]domain.Question, error)
	DefaultSet(ctx context.Context) (domain.QuestionSet, []domain.Question, error)
	QuestionByID(ctx context.Context, questionID string) (domain.Question, error)
}
