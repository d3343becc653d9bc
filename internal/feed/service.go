package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/eventpublisher"
	"go-shopfeed/internal/eventpublisher/common"
	"go-shopfeed/internal/eventpublisher/event"
	"go-shopfeed/internal/model"
	adsRepo "go-shopfeed/internal/repository/ads"
	videosRepo "go-shopfeed/internal/repository/videos"
	"go-shopfeed/internal/utils"

	"github.com/rs/zerolog/log"
)

// State is the composed feed at one point in time. Items is never modified
// after the state was published.
type State struct {
	Seq     uint64           `json:"seq"`
	Version string           `json:"version"`
	Items   []model.FeedItem `json:"items"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

type Options struct {
	AdInterval  int
	PageSize    int
	MaxPageSize int
	Format      PriceFormatter
}

type FeedService interface {
	eventpublisher.Publisher
	Start(ctx context.Context) error
	State() State
	Page(cursor string, limit int) (model.FeedPage, error)
}

type Service struct {
	videos      videosRepo.IRepository
	ads         adsRepo.IRepository
	opts        Options
	broadcaster *common.Broadcaster

	mu    sync.RWMutex
	state State
}

var _ FeedService = (*Service)(nil)

func NewService(videos videosRepo.IRepository, ads adsRepo.IRepository, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxPageSize < opts.PageSize {
		opts.MaxPageSize = opts.PageSize
	}
	if opts.Format == nil {
		opts.Format = PlainPrice
	}

	s := &Service{
		videos:      videos,
		ads:         ads,
		opts:        opts,
		broadcaster: common.NewBroadcaster(writeTimeout, maxMissedWrites),
	}
	s.state = s.build(sources{})
	return s
}

func (s *Service) Subscribe(subscriber event.EventWChannel) {
	s.broadcaster.Subscribe(subscriber)
}

func (s *Service) Unsubscribe(subscriber event.EventWChannel) {
	s.broadcaster.Unsubscribe(subscriber)
}

// sources is owned by the Start loop.
type sources struct {
	videos       []model.VideoProduct
	ads          []model.Advertisement
	videosLoaded bool
	adsLoaded    bool
	videosErr    string
	adsErr       string
}

func (src *sources) applyVideos(e videosRepo.VideosEvent) {
	src.videosLoaded = true
	switch {
	case e.Err == nil:
		src.videos = e.Videos
		src.videosErr = ""
	case errors.Is(e.Err, ierr.Connection):
		src.videosErr = errVideosConnection
	default:
		src.videosErr = errVideosDecode
	}
}

func (src *sources) applyAds(e adsRepo.AdsEvent) {
	src.adsLoaded = true
	switch {
	case e.Err == nil:
		src.ads = e.Ads
		src.adsErr = ""
	case errors.Is(e.Err, ierr.Connection):
		src.adsErr = errAdsConnection
	default:
		src.adsErr = errAdsDecode
	}
}

// Start keeps both collections subscribed and recomposes the feed on every
// snapshot until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	defer s.broadcaster.UnsubscribeAll()

	videoCh := s.videos.NotifyOnChanges(ctx)
	adCh := s.ads.NotifyOnChanges(ctx)

	src := sources{}
	for videoCh != nil || adCh != nil {
		select {
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("feed service stopped")
			return ctx.Err()
		case e, ok := <-videoCh:
			if !ok {
				videoCh = nil
				continue
			}
			src.applyVideos(e)
		case e, ok := <-adCh:
			if !ok {
				adCh = nil
				continue
			}
			src.applyAds(e)
		}

		s.update(ctx, src)
	}

	return nil
}

func (s *Service) update(ctx context.Context, src sources) {
	next := s.build(src)

	s.mu.Lock()
	if next.Version == s.state.Version {
		s.mu.Unlock()
		return
	}
	next.Seq = s.state.Seq + 1
	s.state = next
	s.mu.Unlock()

	log.Debug().
		Uint64("seq", next.Seq).
		Int("items", len(next.Items)).
		Bool("loading", next.Loading).
		Str("error", next.Error).
		Msg("publish feed")

	s.broadcaster.Broadcast(ctx, event.Event{Type: event.FeedUpdated, Seq: next.Seq, Message: next})
}

func (s *Service) build(src sources) State {
	state := State{
		Items:   []model.FeedItem{},
		Loading: !src.videosLoaded || !src.adsLoaded,
		Error:   src.videosErr,
	}
	if state.Error == "" {
		state.Error = src.adsErr
	}

	if !state.Loading {
		state.Items = Compose(src.videos, src.ads, s.opts.AdInterval, s.opts.Format)
	}

	data, err := json.Marshal(state.Items)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal feed items")
	}
	state.Version = utils.Hash(string(data), strconv.FormatBool(state.Loading), state.Error)
	return state
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Page slices the current feed. The cursor is the offset of the first item,
// empty for the first page.
func (s *Service) Page(cursor string, limit int) (model.FeedPage, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return model.FeedPage{}, ierr.InvalidCursor
		}
		offset = n
	}

	if limit <= 0 {
		limit = s.opts.PageSize
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}

	state := s.State()
	return paginate(state, offset, limit), nil
}

func paginate(state State, offset, limit int) model.FeedPage {
	total := len(state.Items)
	page := model.FeedPage{
		Items:   []model.FeedItem{},
		Total:   total,
		Version: state.Version,
		Loading: state.Loading,
		Error:   state.Error,
	}

	if offset >= total {
		return page
	}

	end := offset + limit
	if end > total {
		end = total
	}
	page.Items = state.Items[offset:end]
	if end < total {
		page.NextCursor = strconv.Itoa(end)
	}
	return page
}
