package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
)

// CachedCatalog caches canonical question lists in Redis, one JSON value
// per set, and falls back to an inner catalog on cache miss. Only the
// per-set question payload is cached; set listings and name lookups go to
// the inner catalog directly.
type CachedCatalog struct {
	client *redis.Client
	inner  catalog.Catalog
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewCachedCatalog(client *redis.Client, inner catalog.Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedCatalog) QuestionsForSet(ctx context.Context, setID string) ([]domain.Question, error) {
	key := c.questionsKey(setID)

	if questions, ok := c.readCache(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.readCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.inner.QuestionsForSet(ctx, setID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort fill; a cache write failure is not a load failure
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CachedCatalog) readCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *CachedCatalog) ListSets(ctx context.Context) ([]domain.QuestionSet, error) {
	return c.inner.ListSets(ctx)
}

func (c *CachedCatalog) SetByName(ctx context.Context, name string) (domain.QuestionSet, error) {
	return c.inner.SetByName(ctx, name)
}

func (c *CachedCatalog) DefaultSet(ctx context.Context) (domain.QuestionSet, []domain.Question, error) {
	set, err := c.inner.SetByName(ctx, catalog.DefaultSetName)
	if err != nil {
		return c.inner.DefaultSet(ctx)
	}
	questions, err := c.QuestionsForSet(ctx, set.ID)
	if err != nil {
		return domain.QuestionSet{}, nil, err
	}
	return set, questions, nil
}

func (c *CachedCatalog) QuestionByID(ctx context.Context, questionID string) (domain.Question, error) {
	return c.inner.QuestionByID(ctx, questionID)
}

func (c *CachedCatalog) questionsKey(setID string) string {
	return "catalog:set:" + setID + ":questions"
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
