// Package redis provides the optional metadata cache backed by a Redis
// instance. Cached entries are fetched dataset records keyed by accession, so
// repeated runs over the same accession list do not hammer the public archive
// API.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/hla-annotator/internal/config"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/hla-annotator/pkg/errors"
)

// Client is a thin wrapper around the go-redis standalone client carrying the
// project logger. It exposes only the commands the metadata cache needs.
type Client struct {
	rdb    *redis.Client
	logger logging.Logger
}

// NewClient connects to the configured Redis instance and verifies the
// connection with a ping before returning.
func NewClient(cfg config.CacheConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis connection failed")
	}

	log.Info("redis metadata cache connected",
		logging.String("addr", cfg.Addr),
		logging.Int("db", cfg.DB),
	)

	return &Client{rdb: rdb, logger: log}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.rdb.Close()
	if err != nil {
		c.logger.Error("failed to close redis client", logging.Err(err))
		return err
	}
	c.logger.Info("closed redis client")
	return nil
}

// Underlying exposes the raw go-redis client for the cache implementation and
// for integration tests.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}
