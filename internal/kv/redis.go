package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store with one Redis hash per namespace
// ("<prefix>:<namespace>"), so List is a single HGETALL.
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (s *redisStore) hashKey(namespace string) string {
	return s.prefix + ":" + namespace
}

// Get implements Store.
func (s *redisStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	val, err := s.client.HGet(ctx, s.hashKey(namespace), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put implements Store.
func (s *redisStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	return s.client.HSet(ctx, s.hashKey(namespace), key, value).Err()
}

// Delete implements Store.
func (s *redisStore) Delete(ctx context.Context, namespace, key string) error {
	return s.client.HDel(ctx, s.hashKey(namespace), key).Err()
}

// List implements Store.
func (s *redisStore) List(ctx context.Context, namespace string) ([]Record, error) {
	all, err := s.client.HGetAll(ctx, s.hashKey(namespace)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(all))
	for k, v := range all {
		records = append(records, Record{Key: k, Value: []byte(v)})
	}
	return records, nil
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}
