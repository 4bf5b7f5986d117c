package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is returned by HGet when the key or field is absent.
const Nil = redis.Nil

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Key patterns. Every key is namespaced by the environment prefix.
const (
	KeyClasses       = "classboard:classes"
	KeyClassTeams    = "classboard:class:%s:teams"
	KeyClassSessions = "classboard:class:%s:sessions"
	KeyPeerVotes     = "classboard:class:%s:session:%s:votes"
	KeyTeacherVotes  = "classboard:class:%s:session:%s:teacher_votes"
)

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// HSet sets hash fields
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) error {
	start := time.Now()
	err := c.rdb.HSet(ctx, key, values...).Err()
	c.logCommand("redis_hset", key, time.Since(start), err, zap.Int("fields", len(values)/2))
	return err
}

// HSetNX sets a hash field only if it is absent
func (c *Client) HSetNX(ctx context.Context, key, field string, value interface{}) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.HSetNX(ctx, key, field, value).Result()
	c.logCommand("redis_hsetnx", key, time.Since(start), err, zap.Bool("result", ok))
	return ok, err
}

// HGet reads a single hash field. Returns Nil when the field is absent.
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	start := time.Now()
	val, err := c.rdb.HGet(ctx, key, field).Result()
	c.logCommand("redis_hget", key, time.Since(start), ignoreNil(err))
	return val, err
}

// HExists reports whether a hash field is present
func (c *Client) HExists(ctx context.Context, key, field string) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.HExists(ctx, key, field).Result()
	c.logCommand("redis_hexists", key, time.Since(start), err, zap.Bool("result", ok))
	return ok, err
}

// HGetAll gets all fields from a hash
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	m, err := c.rdb.HGetAll(ctx, key).Result()
	c.logCommand("redis_hgetall", key, time.Since(start), err, zap.Int("fields", len(m)))
	return m, err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_ping",
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_ping", zap.Duration("duration", dur))
	}
	return err
}

func (c *Client) logCommand(op, key string, dur time.Duration, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", dur),
	}, extra...)
	if err != nil {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

func ignoreNil(err error) error {
	if err == redis.Nil {
		return nil
	}
	return err
}

// prefixForLog returns a safe prefix of a key to avoid logging voter ids
func prefixForLog(key string) string {
	if len(key) <= 32 {
		return key
	}
	return key[:32] + "…"
}
