package internal

import (
	"context"
	"encoding/json"

	"github.com/heinsupport/hein-assist/internal/kv"
)

// Namespaces in the durable store
const (
	NamespaceSessions    = "sessions"
	NamespaceManuals     = "manuals"
	NamespacePreferences = "preferences"
)

// Durable layers JSON records over a kv.Store. Reads never fail: an
// unreadable medium or an unparseable record is logged and treated as
// absent so callers rebuild from an empty baseline. Writes return a
// *StorageError.
type Durable struct {
	store kv.Store
}

// NewDurable wraps a kv.Store
func NewDurable(store kv.Store) *Durable {
	return &Durable{store: store}
}

// Load decodes namespace/key into v and reports whether a usable record
// was found.
func (d *Durable) Load(ctx context.Context, namespace, key string, v any) bool {
	data, err := d.store.Get(ctx, namespace, key)
	if err != nil {
		LogWarn("Treating %s/%s as absent: %v", namespace, key, &StorageError{Namespace: namespace, Key: key, Op: "read", Err: err})
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		LogWarn("Treating %s/%s as absent: %v", namespace, key, &ParseError{Source: namespace, Key: key, Err: err})
		return false
	}
	return true
}

// Save encodes v as JSON and stores it under namespace/key
func (d *Durable) Save(ctx context.Context, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Namespace: namespace, Key: key, Op: "write", Err: err}
	}
	if err := d.store.Put(ctx, namespace, key, data); err != nil {
		return &StorageError{Namespace: namespace, Key: key, Op: "write", Err: err}
	}
	return nil
}

// Remove deletes namespace/key; a missing record is not an error
func (d *Durable) Remove(ctx context.Context, namespace, key string) error {
	if err := d.store.Delete(ctx, namespace, key); err != nil {
		return &StorageError{Namespace: namespace, Key: key, Op: "delete", Err: err}
	}
	return nil
}

// Close closes the underlying medium
func (d *Durable) Close() error {
	return d.store.Close()
}

// loadAll decodes every record of namespace, skipping the ones that fail
// to parse. An unreadable namespace yields an empty slice.
func loadAll[T any](ctx context.Context, d *Durable, namespace string) []T {
	records, err := d.store.List(ctx, namespace)
	if err != nil {
		LogWarn("Treating %s as empty: %v", namespace, &StorageError{Namespace: namespace, Op: "list", Err: err})
		return []T{}
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := json.Unmarshal(rec.Value, &v); err != nil {
			LogWarn("Skipping unparseable record: %v", &ParseError{Source: namespace, Key: rec.Key, Err: err})
			continue
		}
		out = append(out, v)
	}
	return out
}
