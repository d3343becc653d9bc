package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/model"
	adsRepo "go-shopfeed/internal/repository/ads"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	impressionsField = "impressions"
	clicksField      = "clicks"

	// bounds the final flush once the service is shutting down
	shutdownFlushTimeout = time.Second * 10
)

// Buffered counts events in redis and moves them into the tree every
// interval, so a busy ad costs one tree write per interval instead of one per
// view. When redis is unreachable events are written directly.
type Buffered struct {
	rdb      *redis.Client
	ads      adsRepo.IRepository
	prefix   string
	interval time.Duration
	fallback Direct
}

var _ Tracker = (*Buffered)(nil)

func NewBuffered(rdb *redis.Client, ads adsRepo.IRepository, prefix string, interval time.Duration) *Buffered {
	if interval <= 0 {
		interval = time.Second * 30
	}
	return &Buffered{
		rdb:      rdb,
		ads:      ads,
		prefix:   prefix,
		interval: interval,
		fallback: NewDirect(ads),
	}
}

func (b *Buffered) countsKey(adId string) string {
	return fmt.Sprintf("%sad:%s:counts", b.prefix, adId)
}

func (b *Buffered) dirtyKey() string {
	return b.prefix + "ads:dirty"
}

func (b *Buffered) TrackImpression(ctx context.Context, adId string) {
	b.track(ctx, adId, model.AdCounts{Impressions: 1})
}

func (b *Buffered) TrackClick(ctx context.Context, adId string) {
	b.track(ctx, adId, model.AdCounts{Clicks: 1})
}

func (b *Buffered) track(ctx context.Context, adId string, counts model.AdCounts) {
	if err := b.add(ctx, adId, counts); err != nil {
		log.Warn().Err(err).Str("adId", adId).Msg("analytics: redis unavailable, writing directly")
		b.fallback.track(ctx, adId, counts)
	}
}

func (b *Buffered) add(ctx context.Context, adId string, counts model.AdCounts) error {
	_, err := b.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		key := b.countsKey(adId)
		if counts.Impressions != 0 {
			pipe.HIncrBy(ctx, key, impressionsField, counts.Impressions)
		}
		if counts.Clicks != 0 {
			pipe.HIncrBy(ctx, key, clicksField, counts.Clicks)
		}
		pipe.SAdd(ctx, b.dirtyKey(), adId)
		return nil
	})
	return err
}

// Run flushes every interval until ctx is done, then flushes one last time.
func (b *Buffered) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			defer cancel()
			if err := b.Flush(flushCtx); err != nil {
				log.Error().Err(err).Msg("analytics: final flush failed")
			}
			return nil
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				log.Error().Err(err).Msg("analytics: flush failed")
			}
		}
	}
}

// Flush moves every buffered count into the tree. Counts that could not be
// written are put back for the next flush.
func (b *Buffered) Flush(ctx context.Context) error {
	for {
		adId, err := b.rdb.SPop(ctx, b.dirtyKey()).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pop dirty ad: %w", err)
		}

		counts, err := b.take(ctx, adId)
		if err != nil {
			return fmt.Errorf("take counts: %w, ad: %s", err, adId)
		}

		if err := b.ads.IncrementAnalytics(ctx, adId, counts); err != nil {
			logTrackError(err, adId)
			if errors.Is(err, ierr.NotFound) {
				continue
			}
			if err := b.add(ctx, adId, counts); err != nil {
				log.Error().Err(err).Str("adId", adId).Interface("counts", counts).Msg("analytics: lost counts")
			}
			return fmt.Errorf("flush ad: %w, ad: %s", err, adId)
		}

		log.Debug().Str("adId", adId).Int64("impressions", counts.Impressions).Int64("clicks", counts.Clicks).Msg("analytics: flushed")
	}
}

// take reads and deletes the counts of one ad atomically.
func (b *Buffered) take(ctx context.Context, adId string) (model.AdCounts, error) {
	var get *redis.MapStringStringCmd
	key := b.countsKey(adId)

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return model.AdCounts{}, err
	}

	return parseCounts(get.Val()), nil
}

func parseCounts(fields map[string]string) model.AdCounts {
	counts := model.AdCounts{}
	if v, err := strconv.ParseInt(fields[impressionsField], 10, 64); err == nil {
		counts.Impressions = v
	}
	if v, err := strconv.ParseInt(fields[clicksField], 10, 64); err == nil {
		counts.Clicks = v
	}
	return counts
}
