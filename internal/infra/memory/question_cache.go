package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
)

const categoriesKey = "categories"

// QuestionCache caches question sets per category with TTL to avoid repeated DB hits.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu         sync.RWMutex
	cache      map[domain.Category]cachedQuestions
	categories cachedCategories
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

type cachedCategories struct {
	categories []domain.Category
	expiresAt  time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Category]cachedQuestions),
	}
}

func (c *QuestionCache) QuestionsByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	if questions, ok := c.lookup(category); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(strconv.Itoa(int(category)), func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if questions, ok := c.lookup(category); ok {
			return questions, nil
		}
		questions, err := c.loader.QuestionsByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[category] = cachedQuestions{questions: questions, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) Categories(ctx context.Context) ([]domain.Category, error) {
	c.mu.RLock()
	entry := c.categories
	c.mu.RUnlock()
	if entry.categories != nil && entry.expiresAt.After(c.clock()) {
		return entry.categories, nil
	}

	result, err, _ := c.sf.Do(categoriesKey, func() (interface{}, error) {
		categories, err := c.loader.Categories(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.categories = cachedCategories{categories: categories, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (c *QuestionCache) lookup(category domain.Category) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[category]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
