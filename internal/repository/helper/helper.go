package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-shopfeed/internal/database"
	ierr "go-shopfeed/internal/errors"
)

// NotifyOnChanges subscribes to path and hands every snapshot to fn until the
// subscription ends, an error is delivered, or fn returns an error.
func NotifyOnChanges(ctx context.Context, db database.Client, path string, fn func(database.Snapshot, error) error) {

	events := db.Subscribe(ctx, path)

	for e := range events {
		if e.Err != nil {
			if err := fn(e.Snapshot, e.Err); err != nil {
				return
			}
			continue
		}

		if err := fn(e.Snapshot, nil); err != nil {
			return
		}
	}
}

// DrainChannelWithTimeout reads from the eventCh until it is closed, the context is done or the receiveTimeout is reached.
// A live subscription is unlikely to close, so the receiveTimeout and context are the main ways to stop reading.
// The bigger the receiveTimeout the longer it waits for new events, which can lead to slower response time.
func DrainChannelWithTimeout[T any](ctx context.Context, receiveTimeout time.Duration, eventCh <-chan T, eventProcessor func(T)) {

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(receiveTimeout):
			return
		case e, ok := <-eventCh:
			if !ok {
				return
			}

			eventProcessor(e)
		}
	}
}

// NonblockingWrite is a generic function that can write any type of event to any channel type.
// T is the type parameter for the event.
func NonblockingWrite[T any](ctx context.Context, timeout time.Duration, ch chan<- T, event T) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func Clone(src, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// NodePath places node under root. An empty root keeps node at the top of the tree.
func NodePath(root, node string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return node
	}
	return database.JoinPath(root, node)
}

// ValidateKeys rejects ids that would not map onto exactly one path segment,
// e.g. a user id carrying a '/'.
func ValidateKeys(keys map[string]string) error {
	for kind, key := range keys {
		if !database.IsKey(key) {
			return fmt.Errorf("%w: %s %q", ierr.InvalidPath, kind, key)
		}
	}
	return nil
}
