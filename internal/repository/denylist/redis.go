package denylist

import (
	"context"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/patryk-bejcer/photobook/internal/repository"
)

type redisDenylist struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

// NewRedis constructs a Redis backed token denylist. Revocations survive API
// restarts and are shared between replicas.
func NewRedis(addr, password string, db int, logger *slog.Logger) (repository.TokenDenylist, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisDenylist{
		client:  client,
		logger:  logger,
		prefix:  "photobook:denylist:",
		timeout: 250 * time.Millisecond,
	}, nil
}

func (d *redisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.client.Set(opCtx, d.prefix+jti, "1", ttl).Err(); err != nil {
		d.logRedisError("set", err)
		return err
	}
	return nil
}

func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	count, err := d.client.Exists(opCtx, d.prefix+jti).Result()
	if err != nil {
		d.logRedisError("exists", err)
		return false, err
	}
	return count > 0, nil
}

func (d *redisDenylist) Close() {
	if d.client != nil {
		_ = d.client.Close()
	}
}

func (d *redisDenylist) logRedisError(op string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Error("redis denylist error", "op", op, "error", err)
}
