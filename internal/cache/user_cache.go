package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"loginify/internal/model"
)

// tombstone marks a key invalidated by a write. A fill that read the row
// before the write committed cannot replace it until it expires.
const (
	tombstone     = "-"
	tombstoneHold = 10 * time.Second
)

type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
	hold   time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
		hold:   tombstoneHold,
	}
}

// GetUser reports a miss as (nil, false, nil).
func (c *UserCache) GetUser(ctx context.Context, email string) (*model.User, bool, error) {
	raw, err := c.client.Get(ctx, c.userKey(email)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get user failed: %w", err)
	}
	if raw == tombstone {
		return nil, false, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return &user, true, nil
}

// SetUser caches the public fields only; the password hash never leaves the
// database. It only fills an empty key, so neither a tombstone nor an entry
// written by a concurrent fill is replaced.
func (c *UserCache) SetUser(ctx context.Context, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user cache failed: %w", err)
	}
	if err := c.client.SetNX(ctx, c.userKey(user.Email), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

// DeleteUser replaces each entry with a short-lived tombstone.
func (c *UserCache) DeleteUser(ctx context.Context, emails ...string) error {
	if len(emails) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, email := range emails {
		pipe.Set(ctx, c.userKey(email), tombstone, c.hold)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete user failed: %w", err)
	}
	return nil
}

func (c *UserCache) userKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}
