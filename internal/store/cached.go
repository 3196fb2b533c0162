package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/models"
)

const (
	historyKeyPrefix = "mindcare:history:"

	// idle write counters expire; a missing counter only skips one fill
	generationTTL = 24 * time.Hour
)

// CachedStore puts a Redis read-through cache in front of the history reads
// of another Store. Writes go straight through and drop the user's cached
// page. Redis errors are logged and treated as cache misses.
type CachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{Store: inner, rdb: rdb, ttl: ttl, log: log}
}

// cachedPage records the limit a page was fetched with so a read with a
// different limit is treated as a miss.
type cachedPage[T any] struct {
	Limit int `json:"limit"`
	Items []T `json:"items"`
}

func conversationsKey(userID int64) string {
	return fmt.Sprintf("%sconversations:%d", historyKeyPrefix, userID)
}

func moodKey(userID int64) string {
	return fmt.Sprintf("%smood:%d", historyKeyPrefix, userID)
}

func (s *CachedStore) AddConversation(ctx context.Context, c *models.Conversation) error {
	if err := s.Store.AddConversation(ctx, c); err != nil {
		return err
	}
	s.invalidate(ctx, conversationsKey(c.UserID))
	return nil
}

func (s *CachedStore) AddMoodEntry(ctx context.Context, m *models.MoodEntry) error {
	if err := s.Store.AddMoodEntry(ctx, m); err != nil {
		return err
	}
	s.invalidate(ctx, moodKey(m.UserID))
	return nil
}

func (s *CachedStore) ListConversations(ctx context.Context, userID int64, limit int) ([]models.Conversation, error) {
	items, err := readThrough(ctx, s, conversationsKey(userID), limit, func() ([]models.Conversation, error) {
		return s.Store.ListConversations(ctx, userID, limit)
	})
	// user_id is not part of the JSON form
	for i := range items {
		items[i].UserID = userID
	}
	return items, err
}

func (s *CachedStore) ListMoodEntries(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	items, err := readThrough(ctx, s, moodKey(userID), limit, func() ([]models.MoodEntry, error) {
		return s.Store.ListMoodEntries(ctx, userID, limit)
	})
	for i := range items {
		items[i].UserID = userID
	}
	return items, err
}

// generationKey counts the writes to one history page. A page loaded from
// the backing store is cached only if no write bumped the counter while it
// was being read.
func generationKey(key string) string {
	return key + ":gen"
}

func readThrough[T any](ctx context.Context, s *CachedStore, key string, limit int, load func() ([]T, error)) ([]T, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var page cachedPage[T]
		if jsonErr := json.Unmarshal(raw, &page); jsonErr == nil && page.Limit == limit && page.Items != nil {
			return page.Items, nil
		}
	case !errors.Is(err, redis.Nil):
		s.log.Warn("history cache read failed", zap.String("key", key), zap.Error(err))
		return load()
	}

	genKey := generationKey(key)
	gen, err := s.rdb.Get(ctx, genKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn("history cache read failed", zap.String("key", genKey), zap.Error(err))
		return load()
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cachedPage[T]{Limit: limit, Items: items})
	if err == nil {
		err = s.fill(ctx, key, genKey, gen, data)
	}
	switch {
	case errors.Is(err, errStalePage):
		s.log.Debug("history changed during read, not caching", zap.String("key", key))
	case err != nil:
		s.log.Warn("history cache write failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}

var errStalePage = errors.New("history page is stale")

// fill stores data under key unless the generation moved away from gen.
// WATCH aborts the transaction if a write lands between the check and SET.
func (s *CachedStore) fill(ctx context.Context, key, genKey, gen string, data []byte) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStalePage
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errStalePage
	}
	return err
}

// invalidate drops the cached page and bumps its generation so a read that
// started before the write does not cache what it loaded.
func (s *CachedStore) invalidate(ctx context.Context, key string) {
	genKey := generationKey(key)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		s.log.Warn("history cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
