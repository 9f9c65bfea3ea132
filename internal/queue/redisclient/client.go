package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// Enqueue pushes one encoded payload onto the named list.

func (c *Client) Enqueue(ctx context.Context, queue string, payload []byte) error {
	return c.redisdb.LPush(ctx, queue, payload).Err()
}

// Dequeue blocks up to timeout for the next payload. A false second return
// means the wait timed out with the queue still empty.

func (c *Client) Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, bool, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, queue).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, false, nil
	}

	return []byte(res[1]), true, nil
}

// QueueDepth reports how many payloads are waiting, for readiness reporting.

func (c *Client) QueueDepth(ctx context.Context, queue string) (int64, error) {
	return c.redisdb.LLen(ctx, queue).Result()
}

// this closes the client

func (c *Client) Close() error {
	return c.redisdb.Close()
}
