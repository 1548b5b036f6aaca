// Package cache provides the shared Redis layer: per-owner task-list caching
// and activity counters. Redis is optional; every method degrades to a no-op
// or a miss when the client is unavailable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskflow/internal/config"
	"taskflow/pkg/logger"
)

var statusValues = []string{"all", "pending", "completed"}
var sortValues = []string{"created", "title"}

// Cache wraps the Redis client.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis from config. Connection failures are logged, not
// fatal; the returned Cache is still usable as a pass-through.
func New(ctx context.Context) *Cache {
	cfg := config.Get()
	c := &Cache{ttl: time.Duration(cfg.CacheTTL) * time.Second}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error(ctx, "Invalid REDIS_URL", "error", err, "url", cfg.RedisURL)
		return c
	}
	opts.PoolSize = cfg.RedisPoolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn(ctx, "Redis ping failed, cache disabled", "error", err)
		return c
	}
	c.client = client
	logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	return c
}

// Ping reports Redis reachability for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis unavailable")
	}
	return c.client.Ping(ctx).Err()
}

func taskListKey(owner, status, sort string) string {
	return fmt.Sprintf("tasks:%s:%s:%s", owner, status, sort)
}

// GetTaskList reads a cached task listing as raw JSON. Returns (nil, false)
// on miss or error.
func (c *Cache) GetTaskList(ctx context.Context, owner, status, sort string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, taskListKey(owner, status, sort)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get task list failed", "error", err)
		return nil, false
	}
	return b, true
}

// SetTaskList stores a task listing with the configured TTL.
func (c *Cache) SetTaskList(ctx context.Context, owner, status, sort string, b []byte) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, taskListKey(owner, status, sort), b, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set task list failed", "error", err)
	}
}

// InvalidateTasks drops every cached listing variant for the owner. Redis is
// shared across instances, so one DEL is enough for stateless scaling.
func (c *Cache) InvalidateTasks(ctx context.Context, owner string) {
	if c.client == nil {
		return
	}
	keys := make([]string, 0, len(statusValues)*len(sortValues))
	for _, status := range statusValues {
		for _, sort := range sortValues {
			keys = append(keys, taskListKey(owner, status, sort))
		}
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate tasks failed", "error", err, "owner", owner)
	}
}

func activityKey(owner string) string {
	return "activity:" + owner
}

// IncrActivity bumps the per-owner counter for one action.
func (c *Cache) IncrActivity(ctx context.Context, owner, action string) {
	if c.client == nil {
		return
	}
	if err := c.client.HIncrBy(ctx, activityKey(owner), action, 1).Err(); err != nil {
		logger.Debug(ctx, "Redis incr activity failed", "error", err)
	}
}

// Activity returns the owner's action counters.
func (c *Cache) Activity(ctx context.Context, owner string) (map[string]int64, error) {
	out := make(map[string]int64)
	if c.client == nil {
		return out, nil
	}
	fields, err := c.client.HGetAll(ctx, activityKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	for action, v := range fields {
		var n int64
		fmt.Sscanf(v, "%d", &n)
		out[action] = n
	}
	return out, nil
}
