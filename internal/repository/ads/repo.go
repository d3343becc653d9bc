package ads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-shopfeed/internal/database"
	"go-shopfeed/internal/database/utils"
	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/model"
	"go-shopfeed/internal/repository/helper"

	"github.com/rs/zerolog/log"
)

type Options struct {
	// IncludeImageAds lets image ads into the feed next to video ads.
	IncludeImageAds bool
}

type AdRepository struct {
	db   database.Client
	opts Options
}

var _ IRepository = AdRepository{}

func New(db database.Client, opts Options) AdRepository {
	return AdRepository{
		db:   db,
		opts: opts,
	}
}

func (r AdRepository) NotifyOnChanges(ctx context.Context) <-chan AdsEvent {

	ch := make(chan AdsEvent)

	go func() {
		defer close(ch)

		helper.NotifyOnChanges(ctx, r.db, advertisementsNode, func(snap database.Snapshot, err error) error {

			if err != nil {
				log.Error().Err(err).Msg("ad repo: failed to read ad events")
				helper.NonblockingWrite[AdsEvent](ctx, channelWriteTimeout, ch, AdsEvent{Err: fmt.Errorf("%w: %w", ierr.Connection, err)})
				return nil
			}

			ads, err := r.decodeAds(snap)
			if err != nil {
				log.Error().Err(err).Msg("ad repo: failed to convert snapshot to ads")
			}

			select {
			case ch <- AdsEvent{Ads: ads, Err: err}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return ch
}

func (r AdRepository) List(ctx context.Context) ([]model.Advertisement, error) {
	snap, err := r.db.Get(ctx, advertisementsNode)
	if err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	return r.decodeAds(snap)
}

// GetById returns the ad whether it is servable or not.
func (r AdRepository) GetById(ctx context.Context, id string) (*model.Advertisement, error) {
	snap, err := r.db.Get(ctx, database.JoinPath(advertisementsNode, id))
	if err != nil {
		return nil, fmt.Errorf("get ad: %w, id: %s", err, id)
	}

	if !snap.Exists() {
		return nil, ierr.NotFound
	}

	ad := &model.Advertisement{}
	if err := snap.Decode(ad); err != nil {
		return nil, fmt.Errorf("get ad: %w: %w, id: %s", ierr.Decode, err, id)
	}
	ad.AdId = id
	return ad, nil
}

func (r AdRepository) Create(ctx context.Context, data ...model.Advertisement) error {
	if len(data) == 0 {
		return nil
	}

	now := model.Millis(time.Now())
	values := make(map[string]interface{}, len(data))
	for _, ad := range data {
		if ad.AdId == "" {
			ad.AdId = r.db.PushKey(advertisementsNode)
		}
		if ad.CreatedAt == 0 {
			ad.CreatedAt = now
		}
		if ad.UpdatedAt == 0 {
			ad.UpdatedAt = ad.CreatedAt
		}
		values[database.JoinPath(advertisementsNode, ad.AdId)] = ad
	}

	if err := r.db.SetMany(ctx, values); err != nil {
		return fmt.Errorf("create ads: %w", err)
	}
	return nil
}

func (r AdRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Remove(ctx, database.JoinPath(advertisementsNode, id)); err != nil {
		return fmt.Errorf("delete ad: %w, id: %s", err, id)
	}
	return nil
}

// IncrementAnalytics adds counts to the ad's counters. Each counter is
// incremented on its own; there is no guarantee across both.
func (r AdRepository) IncrementAnalytics(ctx context.Context, id string, counts model.AdCounts) error {
	if counts.IsZero() {
		return nil
	}

	// incrementing an unknown id would create a stub ad
	if _, err := r.GetById(ctx, id); err != nil {
		return fmt.Errorf("increment analytics: %w, id: %s", err, id)
	}

	var errs []error
	if counts.Impressions != 0 {
		path := database.JoinPath(advertisementsNode, id, AnalyticsFieldPath, ImpressionsFieldPath)
		if err := r.db.Increment(ctx, path, counts.Impressions); err != nil {
			errs = append(errs, err)
		}
	}
	if counts.Clicks != 0 {
		path := database.JoinPath(advertisementsNode, id, AnalyticsFieldPath, ClicksFieldPath)
		if err := r.db.Increment(ctx, path, counts.Clicks); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("increment analytics: %w, id: %s", err, id)
	}
	return nil
}

// decodeAds keeps active ads of a servable type, newest first.
func (r AdRepository) decodeAds(snap database.Snapshot) ([]model.Advertisement, error) {
	ads := []model.Advertisement{}
	if !snap.Exists() {
		return ads, nil
	}

	children := snap.Children()
	if children == nil {
		return ads, fmt.Errorf("%w: %s is not an object", ierr.Decode, snap.Path)
	}

	for key, node := range children {
		ad := model.Advertisement{}
		if err := utils.NodeToType(node, &ad); err != nil {
			log.Warn().Err(err).Str("id", key).Msg("ad repo: skipping undecodable ad")
			continue
		}
		ad.AdId = key
		if !r.servable(ad) {
			continue
		}
		ads = append(ads, ad)
	}

	sort.SliceStable(ads, func(i, j int) bool {
		if ads[i].CreatedAt != ads[j].CreatedAt {
			return ads[i].CreatedAt > ads[j].CreatedAt
		}
		return ads[i].AdId < ads[j].AdId
	})

	return ads, nil
}

func (r AdRepository) servable(ad model.Advertisement) bool {
	if !ad.IsActive || ad.MediaUrl == "" {
		return false
	}
	switch ad.AdType {
	case model.AdTypeVideo:
		return true
	case model.AdTypeImage:
		return r.opts.IncludeImageAds
	default:
		return false
	}
}
