package memory

import (
	"context"

	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
)

// SeedSet pairs a set with its questions for the static catalog.
type SeedSet struct {
	Set       domain.QuestionSet
	Questions []domain.Question
}

// StaticCatalog serves questions from memory. Used for tests and for
// running the server without a database.
type StaticCatalog struct {
	sets      []domain.QuestionSet
	questions map[string][]domain.Question
}

func NewStaticCatalog(seeds []SeedSet) *StaticCatalog {
	c := &StaticCatalog{questions: make(map[string][]domain.Question)}
	for _, seed := range seeds {
		set := seed.Set
		set.Count = len(seed.Questions)
		c.sets = append(c.sets, set)
		c.questions[set.ID] = seed.Questions
	}
	return c
}

func (c *StaticCatalog) ListSets(_ context.Context) ([]domain.QuestionSet, error) {
	out := make([]domain.QuestionSet, len(c.sets))
	copy(out, c.sets)
	return out, nil
}

func (c *StaticCatalog) SetByName(_ context.Context, name string) (domain.QuestionSet, error) {
	for _, set := range c.sets {
		if set.Name == name {
			return set, nil
		}
	}
	return domain.QuestionSet{}, domain.ErrSetNotFound
}

func (c *StaticCatalog) QuestionsForSet(_ context.Context, setID string) ([]domain.Question, error) {
	qs, ok := c.questions[setID]
	if !ok {
		return nil, domain.ErrSetNotFound
	}
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (c *StaticCatalog) DefaultSet(ctx context.Context) (domain.QuestionSet, []domain.Question, error) {
	set, err := c.SetByName(ctx, catalog.DefaultSetName)
	if err != nil {
		if len(c.sets) == 0 {
			return domain.QuestionSet{}, nil, domain.ErrSetNotFound
		}
		set = c.sets[0]
	}
	qs, err := c.QuestionsForSet(ctx, set.ID)
	if err != nil {
		return domain.QuestionSet{}, nil, err
	}
	return set, qs, nil
}

func (c *StaticCatalog) QuestionByID(_ context.Context, questionID string) (domain.Question, error) {
	for _, qs := range c.questions {
		for _, q := range qs {
			if q.ID == questionID {
				return q, nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}
