package database

import (
	"context"
	"fmt"
	"time"

	firebasedb "firebase.google.com/go/v4/db"
	"github.com/rs/zerolog/log"
)

// RealtimeClient talks to the Firebase Realtime Database. The admin SDK has no
// streaming listener, so subscriptions poll with ETags and only deliver when
// the subtree actually changed.
type RealtimeClient struct {
	client       *firebasedb.Client
	pollInterval time.Duration
	writeTimeout time.Duration
}

var _ Client = (*RealtimeClient)(nil)

func NewRealtime(client *firebasedb.Client, pollInterval, writeTimeout time.Duration) *RealtimeClient {
	if pollInterval <= 0 {
		pollInterval = time.Second * 2
	}
	if writeTimeout <= 0 {
		writeTimeout = time.Second * 30
	}
	return &RealtimeClient{
		client:       client,
		pollInterval: pollInterval,
		writeTimeout: writeTimeout,
	}
}

func (c *RealtimeClient) ref(path string) (*firebasedb.Ref, string, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, "", err
	}
	p := JoinPath(segs...)
	return c.client.NewRef(p), p, nil
}

// Subscribe polls path until ctx is done. Read errors are delivered but do not
// end the subscription; the next successful poll delivers a snapshot again.
func (c *RealtimeClient) Subscribe(ctx context.Context, path string) <-chan SnapshotEvent {
	ch := make(chan SnapshotEvent)

	ref, p, err := c.ref(path)
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

	poll := poller{
		reader:   ref,
		path:     p,
		interval: c.pollInterval,
		timeout:  c.writeTimeout,
	}
	go func() {
		defer close(ch)
		poll.run(ctx, ch)
	}()

	return ch
}

// etagReader is the part of a database reference the poller needs.
type etagReader interface {
	GetWithETag(ctx context.Context, v interface{}) (string, error)
	GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error)
}

var _ etagReader = (*firebasedb.Ref)(nil)

type poller struct {
	reader   etagReader
	path     string
	interval time.Duration
	timeout  time.Duration
}

// run reads the path every interval and sends a snapshot whenever its ETag
// changed. A failed read is sent as an error and forgets the ETag, so the next
// good read always sends a snapshot again.
func (p poller) run(ctx context.Context, ch chan<- SnapshotEvent) {
	send := func(e SnapshotEvent) bool {
		select {
		case ch <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	etag := ""
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		value, changed, next, err := p.read(ctx, etag)
		etag = next

		switch {
		case err != nil && isContextErr(err):
			return
		case err != nil:
			log.Error().Err(err).Str("path", p.path).Msg("realtime database poll failed")
			etag = ""
			if !send(SnapshotEvent{Err: err}) {
				return
			}
		case changed:
			v, err := normalize(value)
			if !send(SnapshotEvent{Snapshot: Snapshot{Path: p.path, Value: v}, Err: err}) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p poller) read(ctx context.Context, etag string) (interface{}, bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var value interface{}
	if etag == "" {
		next, err := p.reader.GetWithETag(ctx, &value)
		return value, err == nil, next, err
	}
	changed, next, err := p.reader.GetIfChanged(ctx, etag, &value)
	return value, changed, next, err
}

func (c *RealtimeClient) Get(ctx context.Context, path string) (Snapshot, error) {
	ref, p, err := c.ref(path)
	if err != nil {
		return Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	var value interface{}
	if err := ref.Get(ctx, &value); err != nil {
		return Snapshot{}, fmt.Errorf("get %s: %w", p, err)
	}

	v, err := normalize(value)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: p, Value: v}, nil
}

func (c *RealtimeClient) Set(ctx context.Context, path string, value interface{}) error {
	ref, p, err := c.ref(path)
	if err != nil {
		return err
	}

	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", p, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if v == nil {
		err = ref.Delete(ctx)
	} else {
		err = ref.Set(ctx, v)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", p, err)
	}
	return nil
}

// SetMany sends one multi-path update from the root, which the realtime
// database applies atomically.
func (c *RealtimeClient) SetMany(ctx context.Context, values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}

	updates := make(map[string]interface{}, len(values))
	for path, value := range values {
		segs, err := SplitPath(path)
		if err != nil {
			return err
		}
		v, err := normalize(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
		// a nil value in a multi-path update deletes the node
		updates[JoinPath(segs...)] = v
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if err := c.client.NewRef("/").Update(ctx, updates); err != nil {
		return fmt.Errorf("set many: %w", err)
	}
	return nil
}

func (c *RealtimeClient) Remove(ctx context.Context, path string) error {
	return c.Set(ctx, path, nil)
}

func (c *RealtimeClient) Increment(ctx context.Context, path string, delta int64) error {
	ref, p, err := c.ref(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	err = ref.Transaction(ctx, func(node firebasedb.TransactionNode) (interface{}, error) {
		var current int64
		if err := node.Unmarshal(&current); err != nil {
			return nil, err
		}
		return current + delta, nil
	})
	if err != nil {
		return fmt.Errorf("increment %s: %w", p, err)
	}
	return nil
}

func (c *RealtimeClient) PushKey(path string) string {
	return NewKey()
}

func (c *RealtimeClient) Close() error {
	return nil
}
