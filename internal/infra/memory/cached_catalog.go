package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
)

// CachedCatalog caches per-set question lists with TTL to avoid repeated
// loader hits while rooms start. Other catalog calls pass through.
type CachedCatalog struct {
	inner catalog.Catalog
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	rndMu sync.Mutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedCatalog(inner catalog.Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedSet),
	}
}

func (c *CachedCatalog) QuestionsForSet(ctx context.Context, setID string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[setID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(setID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[setID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.inner.QuestionsForSet(ctx, setID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[setID] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
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

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
