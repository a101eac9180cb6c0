// README: Per-user notification feed stored in Redis lists (newest first).
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"relay/internal/types"
)

const (
	feedKeyPrefix = "notifications:user:%s"
	feedTTL       = 30 * 24 * time.Hour
)

type RedisFeed struct {
	redis  *redis.Client
	maxLen int64
}

func NewRedisFeed(client *redis.Client, maxLen int) *RedisFeed {
	if maxLen <= 0 {
		maxLen = 100
	}
	return &RedisFeed{redis: client, maxLen: int64(maxLen)}
}

func (f *RedisFeed) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := feedKey(n.UserID)
	pipe := f.redis.TxPipeline()
	pipe.LPush(ctx, key, body)
	pipe.LTrim(ctx, key, 0, f.maxLen-1)
	pipe.Expire(ctx, key, feedTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit notifications for the user, newest first.
func (f *RedisFeed) Recent(ctx context.Context, userID types.ID, limit int) ([]Notification, error) {
	if limit <= 0 || int64(limit) > f.maxLen {
		limit = int(f.maxLen)
	}
	raw, err := f.redis.LRange(ctx, feedKey(userID), 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(raw))
	for _, r := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func feedKey(userID types.ID) string {
	return fmt.Sprintf(feedKeyPrefix, string(userID))
}
