package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
)

func TestStaticCatalogLookups(t *testing.T) {
	cat := NewStaticCatalog(seedSets())
	ctx := context.Background()

	sets, err := cat.ListSets(ctx)
	if err != nil || len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d err=%v", len(sets), err)
	}
	if sets[0].Count != 2 {
		t.Fatalf("expected question count filled in, got %+v", sets[0])
	}

	set, err := cat.SetByName(ctx, catalog.DefaultSetName)
	if err != nil || set.ID != "set-default" {
		t.Fatalf("set by name: %+v err=%v", set, err)
	}
	if _, err := cat.SetByName(ctx, "missing"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}

	defSet, questions, err := cat.DefaultSet(ctx)
	if err != nil || defSet.ID != "set-default" || len(questions) != 2 {
		t.Fatalf("default set: %+v %d err=%v", defSet, len(questions), err)
	}

	q, err := cat.QuestionByID(ctx, "q2")
	if err != nil || q.Text != "Second?" {
		t.Fatalf("question by id: %+v err=%v", q, err)
	}
	if _, err := cat.QuestionByID(ctx, "ghost"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestCachedCatalogCaches(t *testing.T) {
	loader := &countingCatalog{Catalog: NewStaticCatalog(seedSets())}
	cached := NewCachedCatalog(loader, time.Minute)
	ctx := context.Background()

	if _, err := cached.QuestionsForSet(ctx, "set-default"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cached.QuestionsForSet(ctx, "set-default"); err != nil {
		t.Fatalf("load 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

type countingCatalog struct {
	catalog.Catalog
	calls int
}

func (c *countingCatalog) QuestionsForSet(ctx context.Context, setID string) ([]domain.Question, error) {
	c.calls++
	return c.Catalog.QuestionsForSet(ctx, setID)
}

func seedSets() []SeedSet {
	return []SeedSet{
		{
			Set: domain.QuestionSet{ID: "set-default", Name: catalog.DefaultSetName},
			Questions: []domain.Question{
				{ID: "q1", Text: "First?", Options: []string{"a", "b"}, CorrectAnswer: "A", TimeLimitSeconds: 30, BasePoints: 1000},
				{ID: "q2", Text: "Second?", Options: []string{"a", "b", "c"}, CorrectAnswer: "1", TimeLimitSeconds: 15, BasePoints: 500},
			},
		},
		{
			Set: domain.QuestionSet{ID: "set-extra", Name: "Extra"},
			Questions: []domain.Question{
				{ID: "q3", Text: "Third?", Options: []string{"x", "y"}, CorrectAnswer: "B", TimeLimitSeconds: 20, BasePoints: 800},
			},
		},
	}
}
