package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
)

// QuestionLoader fetches questions from a backing store (e.g., Postgres).
type QuestionLoader interface {
	QuestionsByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// QuestionCache caches question sets in Redis and falls back to a loader on cache miss.
// Questions are stored as: SET trivia:questions:{category} <json array>
// Categories are stored as: SET trivia:categories <json array>
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) QuestionsByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	key := c.questionsKey(category)
	var questions []domain.Question
	if c.readJSON(ctx, key, &questions) {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var cached []domain.Question
		if c.readJSON(ctx, key, &cached) {
			return cached, nil
		}
		loaded, err := c.loader.QuestionsByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		c.writeJSON(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) Categories(ctx context.Context) ([]domain.Category, error) {
	key := c.categoriesKey()
	var categories []domain.Category
	if c.readJSON(ctx, key, &categories) {
		return categories, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		loaded, err := c.loader.Categories(ctx)
		if err != nil {
			return nil, err
		}
		c.writeJSON(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

// Invalidate drops the cached questions of a category and the category list.
func (c *QuestionCache) Invalidate(ctx context.Context, category domain.Category) error {
	if err := c.client.Del(ctx, c.questionsKey(category), c.categoriesKey()).Err(); err != nil {
		return fmt.Errorf("invalidate questions: %w", err)
	}
	return nil
}

func (c *QuestionCache) readJSON(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *QuestionCache) writeJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// cache writes are best-effort; the loader stays the source of truth
	_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
}

func (c *QuestionCache) questionsKey(category domain.Category) string {
	return "trivia:questions:" + strconv.Itoa(int(category))
}

func (c *QuestionCache) categoriesKey() string {
	return "trivia:categories"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
