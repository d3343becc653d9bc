package common

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-shopfeed/internal/eventpublisher/event"

	"github.com/rs/zerolog/log"
)

var ErrSlowSubscriber = errors.New("subscriber missed too many events")

// Broadcaster fans one event out to every subscriber. A subscriber that misses
// maxMisses writes in a row is unsubscribed, which closes its channel.
type Broadcaster struct {
	writeTimeout time.Duration
	maxMisses    int

	mu sync.Mutex
	// consecutive missed writes per subscriber
	misses map[event.EventWChannel]int
}

func NewBroadcaster(writeTimeout time.Duration, maxMisses int) *Broadcaster {
	if maxMisses <= 0 {
		maxMisses = 1
	}
	return &Broadcaster{
		writeTimeout: writeTimeout,
		maxMisses:    maxMisses,
		misses:       make(map[event.EventWChannel]int),
	}
}

func (b *Broadcaster) Subscribe(subscriber event.EventWChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.misses[subscriber]; !ok {
		b.misses[subscriber] = 0
	}
}

// Unsubscribe closes the subscriber channel. Channels that are not subscribed
// are left alone, so a channel is closed at most once.
func (b *Broadcaster) Unsubscribe(subscriber event.EventWChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.misses[subscriber]; !ok {
		return
	}
	delete(b.misses, subscriber)
	close(subscriber)
}

func (b *Broadcaster) UnsubscribeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.misses {
		close(subscriber)
	}
	b.misses = make(map[event.EventWChannel]int)
}

func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.misses)
}

func (b *Broadcaster) subscribers() []event.EventWChannel {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := make([]event.EventWChannel, 0, len(b.misses))
	for subscriber := range b.misses {
		subs = append(subs, subscriber)
	}
	return subs
}

// Broadcast writes e to every subscriber concurrently and returns without
// waiting for the writes.
func (b *Broadcaster) Broadcast(ctx context.Context, e event.Event) {
	for _, subscriber := range b.subscribers() {
		go func(subscriber event.EventWChannel) {
			if err := b.deliver(ctx, subscriber, e); err != nil {
				log.Warn().Err(err).Str("event", e.Type.String()).Msg("dropping slow subscriber")
				b.Unsubscribe(subscriber)
			}
		}(subscriber)
	}
}

func (b *Broadcaster) deliver(ctx context.Context, subscriber event.EventWChannel, e event.Event) (err error) {
	defer func() {
		// the channel may have been closed by Unsubscribe while this write was pending
		if r := recover(); r != nil {
			err = ErrSlowSubscriber
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
	defer cancel()

	select {
	case subscriber <- e:
		b.record(subscriber, false)
		return nil
	case <-ctx.Done():
		if b.record(subscriber, true) >= b.maxMisses {
			return ErrSlowSubscriber
		}
		return nil
	}
}

// record updates the miss streak of a subscriber and returns it. Subscribers
// that are gone report zero.
func (b *Broadcaster) record(subscriber event.EventWChannel, missed bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.misses[subscriber]
	if !ok {
		return 0
	}
	if !missed {
		b.misses[subscriber] = 0
		return 0
	}
	n++
	b.misses[subscriber] = n
	return n
}
