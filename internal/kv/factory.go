package kv

import (
	"fmt"
	"strings"
)

// Driver names a storage medium.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
	DriverPebble Driver = "pebble"
	DriverRedis  Driver = "redis"
)

// ParseDriver maps a configuration string to a Driver.
func ParseDriver(name string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(name))); d {
	case DriverMemory, DriverSQLite, DriverPebble, DriverRedis:
		return d, nil
	case "":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: sqlite, pebble, redis, memory)", ErrInvalidDriver, name)
	}
}

// NewStore opens a Store for the given driver.
// sqlite and pebble require WithPath; redis requires WithRedisClient.
func NewStore(driver Driver, opts ...Option) (Store, error) {
	config := &storeConfig{redisPrefix: "hein"}

	for _, opt := range opts {
		opt(config)
	}

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil

	case DriverSQLite:
		if config.path == "" {
			return nil, fmt.Errorf("%w: sqlite driver needs a path", ErrInvalidConfig)
		}
		store, err := OpenSQLite(config.path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case DriverPebble:
		if config.path == "" {
			return nil, fmt.Errorf("%w: pebble driver needs a path", ErrInvalidConfig)
		}
		store, err := OpenPebble(config.path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case DriverRedis:
		if config.redisClient == nil {
			return nil, fmt.Errorf("%w: redis driver needs a client", ErrInvalidConfig)
		}
		return &redisStore{
			client: config.redisClient,
			prefix: config.redisPrefix,
		}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
