package localstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sports-festival/festival-registration/registration"
)

// RedisClient is the part of the redis client the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisClient = (*redis.Client)(nil)

var _ registration.LocalStore = &Redis{}

// Redis stores keys under a per-session prefix so several sessions can share
// one server. Keys expire after ttl of inactivity.
type Redis struct {
	client  RedisClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

func NewRedis(client RedisClient, prefix string, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

// Get reports a miss when redis cannot be reached.
func (r *Redis) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.logger.Warn("failed to read local store key", slog.String("key", key), slog.String("error", err.Error()))
		return "", false
	}
	return v, true
}

func (r *Redis) Set(key string, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.client.Set(ctx, r.key(key), value, r.ttl).Err()
	if err != nil {
		r.logger.Error("failed to write local store key", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (r *Redis) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.client.Del(ctx, r.key(key)).Err()
	if err != nil {
		r.logger.Error("failed to remove local store key", slog.String("key", key), slog.String("error", err.Error()))
	}
}
