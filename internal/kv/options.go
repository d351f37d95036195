package kv

import "github.com/redis/go-redis/v9"

// Option is a functional option for configuring a store.
type Option func(*storeConfig)

// storeConfig holds configuration for all drivers.
type storeConfig struct {
	path        string
	redisClient *redis.Client
	redisPrefix string
}

// WithPath sets the database file (sqlite) or directory (pebble).
func WithPath(path string) Option {
	return func(c *storeConfig) {
		c.path = path
	}
}

// WithRedisClient sets the client used by the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisPrefix sets the prefix of the per-namespace hash keys.
func WithRedisPrefix(prefix string) Option {
	return func(c *storeConfig) {
		c.redisPrefix = prefix
	}
}
