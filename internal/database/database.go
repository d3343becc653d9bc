package database

import (
	"context"
	"encoding/json"
	"fmt"

	"go-shopfeed/internal/database/utils"

	"github.com/google/uuid"
)

// Snapshot is the full value of a subtree at the time it was read. Value is
// JSON shaped: map[string]any, []any, float64, string, bool or nil when the
// path holds nothing.
type Snapshot struct {
	Path  string
	Value any
}

func (s Snapshot) Exists() bool {
	return s.Value != nil
}

// Children returns the direct children of an object node, nil otherwise.
func (s Snapshot) Children() map[string]any {
	children, _ := s.Value.(map[string]any)
	return children
}

func (s Snapshot) Decode(v interface{}) error {
	return utils.NodeToType(s.Value, v)
}

type SnapshotEvent struct {
	Snapshot Snapshot
	Err      error
}

// Client is the real-time tree every repository talks to. Paths are '/'
// separated, see SplitPath.
type Client interface {
	// Subscribe delivers the current value of path immediately and again on every
	// change below it. The channel is closed once ctx is done.
	Subscribe(ctx context.Context, path string) <-chan SnapshotEvent
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set replaces the value at path. A nil value removes it.
	Set(ctx context.Context, path string, value interface{}) error
	SetMany(ctx context.Context, values map[string]interface{}) error
	Remove(ctx context.Context, path string) error
	Increment(ctx context.Context, path string, delta int64) error
	PushKey(path string) string
	Close() error
}

// NewKey returns a unique child key. UUIDv7 keys sort by creation time like
// realtime database push ids.
func NewKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// normalize converts any value into its JSON shaped form, so struct values
// are stored under their json field names on every backend.
func normalize(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}

	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return pruneEmpty(out), nil
}

// pruneEmpty drops empty objects, a tree never stores an empty node.
func pruneEmpty(value interface{}) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return value
	}

	for k, v := range m {
		v = pruneEmpty(v)
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}

	if len(m) == 0 {
		return nil
	}
	return m
}

// valueAt descends into nested objects following fields.
func valueAt(value interface{}, fields []string) interface{} {
	for _, f := range fields {
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil
		}
		value = m[f]
	}
	return value
}

// nest wraps value into objects so that it sits at fields.
func nest(fields []string, value interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	cur := out
	for i, f := range fields {
		if i == len(fields)-1 {
			cur[f] = value
			break
		}
		next := map[string]interface{}{}
		cur[f] = next
		cur = next
	}
	return out
}
