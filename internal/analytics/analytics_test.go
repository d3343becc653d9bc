package analytics

import (
	"context"
	"testing"
	"time"

	"go-shopfeed/internal/database"
	"go-shopfeed/internal/model"
	adsRepo "go-shopfeed/internal/repository/ads"

	"github.com/redis/go-redis/v9"
)

func seedAds(t *testing.T) adsRepo.AdRepository {
	t.Helper()
	repo := adsRepo.New(database.NewMemory(), adsRepo.Options{})
	err := repo.Create(context.Background(), model.Advertisement{
		AdId: "a1", AdType: model.AdTypeVideo, MediaUrl: "a1.mp4", IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestDirect(t *testing.T) {
	ctx := context.Background()
	ads := seedAds(t)
	tracker := NewDirect(ads)

	tracker.TrackImpression(ctx, "a1")
	tracker.TrackImpression(ctx, "a1")
	tracker.TrackClick(ctx, "a1")
	tracker.TrackClick(ctx, "unknown")

	ad, err := ads.GetById(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if ad.Analytics.Impressions != 2 || ad.Analytics.Clicks != 1 {
		t.Errorf("analytics = %+v", ad.Analytics)
	}
	if _, err := ads.GetById(ctx, "unknown"); err == nil {
		t.Error("tracking an unknown ad must not create it")
	}
}

func TestBuffered_Keys(t *testing.T) {
	b := NewBuffered(nil, nil, "shopfeed:", 0)
	if got := b.countsKey("a1"); got != "shopfeed:ad:a1:counts" {
		t.Errorf("countsKey() = %s", got)
	}
	if got := b.dirtyKey(); got != "shopfeed:ads:dirty" {
		t.Errorf("dirtyKey() = %s", got)
	}
	if b.interval != 30*time.Second {
		t.Errorf("default interval = %v", b.interval)
	}
}

func TestBuffered_FallsBackWithoutRedis(t *testing.T) {
	ctx := context.Background()
	ads := seedAds(t)

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	tracker := NewBuffered(rdb, ads, "test:", time.Minute)
	tracker.TrackImpression(ctx, "a1")
	tracker.TrackClick(ctx, "a1")

	ad, _ := ads.GetById(ctx, "a1")
	if ad.Analytics.Impressions != 1 || ad.Analytics.Clicks != 1 {
		t.Errorf("analytics = %+v, events should be written directly", ad.Analytics)
	}

	if err := tracker.Flush(ctx); err == nil {
		t.Error("Flush() without redis should fail")
	}
}

func TestParseCounts(t *testing.T) {
	got := parseCounts(map[string]string{"impressions": "12", "clicks": "3", "other": "x"})
	if got.Impressions != 12 || got.Clicks != 3 {
		t.Errorf("parseCounts() = %+v", got)
	}
	if !parseCounts(map[string]string{"clicks": "nope"}).IsZero() {
		t.Error("unparsable counts should be zero")
	}
}
