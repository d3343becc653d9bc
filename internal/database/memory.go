package database

import (
	"context"
	"fmt"
	"sync"

	ierr "go-shopfeed/internal/errors"
)

type memorySub struct {
	path []string
	// wake holds at most one pending notification; snapshots are whole-tree
	// reads, so coalescing several writes into one delivery loses nothing.
	wake chan struct{}
}

// MemoryClient is an in-process tree with realtime database semantics. It
// backs local development and tests.
type MemoryClient struct {
	mu   sync.RWMutex
	root map[string]interface{}
	subs map[*memorySub]struct{}
}

var _ Client = (*MemoryClient)(nil)

func NewMemory() *MemoryClient {
	return &MemoryClient{
		root: map[string]interface{}{},
		subs: map[*memorySub]struct{}{},
	}
}

func (c *MemoryClient) Subscribe(ctx context.Context, path string) <-chan SnapshotEvent {
	ch := make(chan SnapshotEvent)

	segs, err := SplitPath(path)
	if err != nil {
		go func() {
			defer close(ch)
			select {
			case ch <- SnapshotEvent{Err: err}:
			case <-ctx.Done():
			}
		}()
		return ch
	}

	sub := &memorySub{path: segs, wake: make(chan struct{}, 1)}
	sub.wake <- struct{}{}

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer close(ch)
		defer c.unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.wake:
			}

			snap := c.read(segs)
			select {
			case <-ctx.Done():
				return
			case ch <- SnapshotEvent{Snapshot: snap}:
			}
		}
	}()

	return ch
}

func (c *MemoryClient) unsubscribe(sub *memorySub) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, sub)
}

func (c *MemoryClient) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return c.read(segs), nil
}

func (c *MemoryClient) read(segs []string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		Path:  JoinPath(segs...),
		Value: deepCopy(valueAt(c.root, segs)),
	}
}

func (c *MemoryClient) Set(ctx context.Context, path string, value interface{}) error {
	return c.SetMany(ctx, map[string]interface{}{path: value})
}

func (c *MemoryClient) SetMany(ctx context.Context, values map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type write struct {
		segs  []string
		value interface{}
	}

	writes := make([]write, 0, len(values))
	for path, value := range values {
		segs, err := SplitPath(path)
		if err != nil {
			return err
		}
		v, err := normalize(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
		writes = append(writes, write{segs, v})
	}

	c.mu.Lock()
	for _, w := range writes {
		c.put(w.segs, w.value)
	}
	c.mu.Unlock()

	for _, w := range writes {
		c.notify(w.segs)
	}
	return nil
}

func (c *MemoryClient) Remove(ctx context.Context, path string) error {
	return c.Set(ctx, path, nil)
}

func (c *MemoryClient) Increment(ctx context.Context, path string, delta int64) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	current := valueAt(c.root, segs)
	var n float64
	switch v := current.(type) {
	case nil:
	case float64:
		n = v
	default:
		c.mu.Unlock()
		return fmt.Errorf("increment %s: %w: value is not a number", path, ierr.Unsupported)
	}
	c.put(segs, n+float64(delta))
	c.mu.Unlock()

	c.notify(segs)
	return nil
}

func (c *MemoryClient) PushKey(path string) string {
	return NewKey()
}

func (c *MemoryClient) Close() error {
	return nil
}

// put must be called with the write lock held.
func (c *MemoryClient) put(segs []string, value interface{}) {
	if value == nil {
		c.delete(c.root, segs)
		return
	}

	cur := c.root
	for _, s := range segs[:len(segs)-1] {
		next, ok := cur[s].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[s] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// delete removes the node at segs and prunes parents left empty.
func (c *MemoryClient) delete(node map[string]interface{}, segs []string) {
	if len(segs) == 1 {
		delete(node, segs[0])
		return
	}

	child, ok := node[segs[0]].(map[string]interface{})
	if !ok {
		return
	}
	c.delete(child, segs[1:])
	if len(child) == 0 {
		delete(node, segs[0])
	}
}

func (c *MemoryClient) notify(segs []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for sub := range c.subs {
		if !overlaps(sub.path, segs) {
			continue
		}
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

func deepCopy(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			out[k] = deepCopy(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, child := range v {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}
