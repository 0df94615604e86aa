package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// Client is a thin wrapper that owns the go-redis connection for the service.
type Client struct {
	rdb *goredis.Client
}

func New(addr, password string, db int) *Client {
	opts := &goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{rdb: goredis.NewClient(opts)}
}

// NewFromRedis wraps an already-constructed go-redis client. Tests pass a
// client pointed at miniredis.
func NewFromRedis(rdb *goredis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping bounds the liveness check so bootstrap fails fast on a dead server.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
