package analytics

import (
	"context"
	"errors"

	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/model"
	adsRepo "go-shopfeed/internal/repository/ads"

	"github.com/rs/zerolog/log"
)

// Tracker records ad impressions and clicks. Tracking never fails from the
// caller's point of view; problems are logged.
type Tracker interface {
	TrackImpression(ctx context.Context, adId string)
	TrackClick(ctx context.Context, adId string)
}

// Direct writes every event to the tree as it happens.
type Direct struct {
	ads adsRepo.IRepository
}

var _ Tracker = Direct{}

func NewDirect(ads adsRepo.IRepository) Direct {
	return Direct{ads: ads}
}

func (d Direct) TrackImpression(ctx context.Context, adId string) {
	d.track(ctx, adId, model.AdCounts{Impressions: 1})
}

func (d Direct) TrackClick(ctx context.Context, adId string) {
	d.track(ctx, adId, model.AdCounts{Clicks: 1})
}

func (d Direct) track(ctx context.Context, adId string, counts model.AdCounts) {
	if err := d.ads.IncrementAnalytics(ctx, adId, counts); err != nil {
		logTrackError(err, adId)
	}
}

func logTrackError(err error, adId string) {
	if errors.Is(err, ierr.NotFound) {
		log.Warn().Str("adId", adId).Msg("analytics: ignoring event for unknown ad")
		return
	}
	log.Error().Err(err).Str("adId", adId).Msg("analytics: failed to track ad event")
}
