package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-room-service/internal/domain"
)

// HistoryStore is the durable store behind the feed.
type HistoryStore interface {
	Append(ctx context.Context, history domain.GameHistory) error
	Recent(ctx context.Context, limit int) ([]domain.GameHistory, error)
}

// HistoryFeed keeps the most recent finished games in a capped Redis list in front of
// a durable store, so the history listing does not hit the database on every request.
// Layout: LPUSH trivia:history <json> ; LTRIM trivia:history 0 size-1, only while the
// list exists.
type HistoryFeed struct {
	client *redis.Client
	store  HistoryStore
	size   int
}

func NewHistoryFeed(client *redis.Client, store HistoryStore, size int) *HistoryFeed {
	return &HistoryFeed{client: client, store: store, size: size}
}

const feedTTL = 10 * time.Minute

// pushIfExists only extends a feed that is already there. A missing feed is
// rebuilt from the store by the next Recent, so it never lists a partial history.
var pushIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("LPUSH", KEYS[1], ARGV[1])
redis.call("LTRIM", KEYS[1], 0, tonumber(ARGV[2]))
return 1
`)

// Append writes through to the durable store first; the feed is only updated on success.
func (f *HistoryFeed) Append(ctx context.Context, history domain.GameHistory) error {
	if err := f.store.Append(ctx, history); err != nil {
		return err
	}
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := pushIfExists.Run(ctx, f.client, []string{f.key()}, data, f.size-1).Err(); err != nil {
		// the record is durable; drop the feed so the next read rebuilds it
		_ = f.client.Del(ctx, f.key()).Err()
	}
	return nil
}

func (f *HistoryFeed) Recent(ctx context.Context, limit int) ([]domain.GameHistory, error) {
	if limit <= 0 || limit > f.size {
		limit = f.size
	}
	raw, err := f.client.LRange(ctx, f.key(), 0, int64(limit-1)).Result()
	if err == nil && len(raw) > 0 {
		out := make([]domain.GameHistory, 0, len(raw))
		for _, item := range raw {
			var h domain.GameHistory
			if err := json.Unmarshal([]byte(item), &h); err != nil {
				return f.rebuild(ctx, limit)
			}
			out = append(out, h)
		}
		return out, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return f.store.Recent(ctx, limit)
	}
	return f.rebuild(ctx, limit)
}

func (f *HistoryFeed) rebuild(ctx context.Context, limit int) ([]domain.GameHistory, error) {
	records, err := f.store.Recent(ctx, f.size)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		pipe := f.client.TxPipeline()
		pipe.Del(ctx, f.key())
		for _, h := range records {
			data, err := json.Marshal(h)
			if err != nil {
				continue
			}
			pipe.RPush(ctx, f.key(), data)
		}
		// an Append racing the rebuild can be missed; the expiry bounds how long
		pipe.Expire(ctx, f.key(), feedTTL)
		_, _ = pipe.Exec(ctx)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *HistoryFeed) key() string {
	return "trivia:history"
}
