package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// keys are "<namespace>\x00<key>"; the namespace upper bound uses \x01
const nsSeparator = "\x00"

// PebbleStore implements Store on an embedded pebble LSM.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (creating if needed) a pebble database in dir
func OpenPebble(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func pebbleKey(namespace, key string) []byte {
	return []byte(namespace + nsSeparator + key)
}

// Get implements Store.
func (s *PebbleStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	v, closer, err := s.db.Get(pebbleKey(namespace, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get failed: %w", err)
	}
	defer closer.Close()
	return cloneBytes(v), nil
}

// Put implements Store.
func (s *PebbleStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := s.db.Set(pebbleKey(namespace, key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set failed: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *PebbleStore) Delete(ctx context.Context, namespace, key string) error {
	if err := s.db.Delete(pebbleKey(namespace, key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete failed: %w", err)
	}
	return nil
}

// List implements Store.
func (s *PebbleStore) List(ctx context.Context, namespace string) ([]Record, error) {
	prefix := []byte(namespace + nsSeparator)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: []byte(namespace + "\x01"),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iterator failed: %w", err)
	}
	defer iter.Close()

	records := make([]Record, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		records = append(records, Record{
			Key:   string(iter.Key()[len(prefix):]),
			Value: cloneBytes(iter.Value()),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iteration failed: %w", err)
	}
	return records, nil
}

// Close implements Store.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
