package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore decorates a MessageStore with a read-through redis cache of each
// room's history. A cache miss or redis error falls through to the inner
// store, so the cache never affects availability. Appends invalidate the
// room's entry.
type CachedStore struct {
	inner MessageStore
	rdb   *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedStore(inner MessageStore, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func historyKey(roomID string) string {
	return "history:" + roomID
}

func (c *CachedStore) GetMessages(ctx context.Context, roomID string) ([]Message, error) {
	key := historyKey(roomID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var messages []Message
		if err := json.Unmarshal(raw, &messages); err == nil {
			return messages, nil
		}
		// Unparseable entry, drop it and refetch.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		c.log.Debug("history cache read failed", "room", roomID, "err", err)
	}

	messages, err := c.inner.GetMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(messages); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Debug("history cache write failed", "room", roomID, "err", err)
		}
	}
	return messages, nil
}

func (c *CachedStore) AppendMessage(ctx context.Context, roomID, content, senderID string) (Message, error) {
	msg, err := c.inner.AppendMessage(ctx, roomID, content, senderID)
	if err != nil {
		return Message{}, err
	}
	if err := c.rdb.Del(ctx, historyKey(roomID)).Err(); err != nil {
		c.log.Debug("history cache invalidation failed", "room", roomID, "err", err)
	}
	return msg, nil
}
