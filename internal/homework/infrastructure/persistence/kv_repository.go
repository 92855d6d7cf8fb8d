package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/kv"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "homework-tasks"

// KVRepository stores the whole collection as one JSON value.
type KVRepository struct {
	store kv.Store
	key   string
	codec *Codec
}

// NewKVRepository creates a repository over store. An empty key uses DefaultKey.
func NewKVRepository(store kv.Store, key string, codec *Codec) *KVRepository {
	if key == "" {
		key = DefaultKey
	}
	if codec == nil {
		codec = NewCodec()
	}
	return &KVRepository{store: store, key: key, codec: codec}
}

// Load reads and decodes the stored collection.
func (r *KVRepository) Load(ctx context.Context) ([]*task.Task, bool, error) {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	tasks, err := r.codec.Decode([]byte(raw))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w", task.ErrSnapshotUnreadable, err)
	}
	return tasks, true, nil
}

// SaveAll replaces the stored collection.
func (r *KVRepository) SaveAll(ctx context.Context, tasks []*task.Task) error {
	data, err := r.codec.Encode(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return r.store.Set(ctx, r.key, string(data))
}

// Key returns the storage key.
func (r *KVRepository) Key() string { return r.key }
