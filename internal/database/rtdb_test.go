package database

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type readStep struct {
	changed bool
	etag    string
	value   interface{}
	err     error
}

// scriptedReader plays back steps, then reports no changes.
type scriptedReader struct {
	mu    sync.Mutex
	steps []readStep
	calls []string
}

func (r *scriptedReader) next(ctx context.Context, call string) (readStep, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return readStep{err: err}, true
	}
	r.calls = append(r.calls, call)
	if len(r.steps) == 0 {
		return readStep{}, false
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	return step, true
}

func (r *scriptedReader) GetWithETag(ctx context.Context, v interface{}) (string, error) {
	step, ok := r.next(ctx, "get")
	if !ok {
		return "", errors.New("no more steps")
	}
	if step.err != nil {
		return "", step.err
	}
	*(v.(*interface{})) = step.value
	return step.etag, nil
}

func (r *scriptedReader) GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error) {
	step, ok := r.next(ctx, "if:"+etag)
	if !ok {
		return false, etag, nil
	}
	if step.err != nil {
		return false, "", step.err
	}
	if !step.changed {
		return false, etag, nil
	}
	*(v.(*interface{})) = step.value
	return true, step.etag, nil
}

func (r *scriptedReader) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestPoller_RecoversAfterError(t *testing.T) {
	boom := errors.New("network down")
	reader := &scriptedReader{steps: []readStep{
		{etag: "e1", value: map[string]interface{}{"title": "one"}},
		{changed: false},
		{err: boom},
		{etag: "e1", value: map[string]interface{}{"title": "one"}},
		{changed: true, etag: "e2", value: map[string]interface{}{"title": "two"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan SnapshotEvent)
	done := make(chan struct{})
	p := poller{reader: reader, path: "advertisements/a1", interval: time.Millisecond, timeout: time.Second}
	go func() {
		defer close(done)
		p.run(ctx, ch)
	}()

	first := receive(t, ch)
	if first.Err != nil || valueAt(first.Snapshot.Value, []string{"title"}) != "one" {
		t.Fatalf("first event = %+v", first)
	}

	failed := receive(t, ch)
	if !errors.Is(failed.Err, boom) {
		t.Fatalf("second event = %+v, want the read error", failed)
	}

	// the ETag was dropped, so an unchanged value is delivered again
	recovered := receive(t, ch)
	if recovered.Err != nil || valueAt(recovered.Snapshot.Value, []string{"title"}) != "one" {
		t.Fatalf("recovered event = %+v", recovered)
	}

	changed := receive(t, ch)
	if changed.Err != nil || valueAt(changed.Snapshot.Value, []string{"title"}) != "two" || changed.Snapshot.Path != "advertisements/a1" {
		t.Fatalf("changed event = %+v", changed)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	want := []string{"get", "if:e1", "if:e1", "get", "if:e1"}
	if got := reader.Calls(); len(got) < len(want) || !reflect.DeepEqual(got[:len(want)], want) {
		t.Errorf("calls = %v, want prefix %v", got, want)
	}
}

func TestPoller_StopsOnCanceledRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &scriptedReader{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller{reader: reader, path: "videoProducts", interval: time.Millisecond, timeout: time.Second}.run(ctx, make(chan SnapshotEvent))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller kept running with a canceled context")
	}
}
