package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/infra/memory"
)

func TestCachedCatalogCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingCatalog{Catalog: memory.NewStaticCatalog(seedSets())}
	cached := NewCachedCatalog(client, loader, time.Minute)
	ctx := context.Background()

	questions, err := cached.QuestionsForSet(ctx, "set-default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 || questions[0].CorrectAnswer != "A" {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("catalog:set:set-default:questions") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit redis, loader not incremented.
	if _, err := cached.QuestionsForSet(ctx, "set-default"); err != nil {
		t.Fatalf("load 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestCachedCatalogDefaultSetGoesThroughCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingCatalog{Catalog: memory.NewStaticCatalog(seedSets())}
	cached := NewCachedCatalog(newClient(mr), loader, time.Minute)

	set, questions, err := cached.DefaultSet(context.Background())
	if err != nil {
		t.Fatalf("default set: %v", err)
	}
	if set.Name != catalog.DefaultSetName || len(questions) != 2 {
		t.Fatalf("unexpected default set %+v with %d questions", set, len(questions))
	}
	if !mr.Exists("catalog:set:set-default:questions") {
		t.Fatalf("expected default set questions cached")
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

func seedSets() []memory.SeedSet {
	return []memory.SeedSet{
		{
			Set: domain.QuestionSet{ID: "set-default", Name: catalog.DefaultSetName},
			Questions: []domain.Question{
				{ID: "q1", Text: "First?", Options: []string{"a", "b"}, CorrectAnswer: "A", TimeLimitSeconds: 30, BasePoints: 1000},
				{ID: "q2", Text: "Second?", Options: []string{"a", "b", "c"}, CorrectAnswer: "1", TimeLimitSeconds: 15, BasePoints: 500},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
