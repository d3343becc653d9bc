package videos

import (
	"context"
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

type VideoRepository struct {
	db database.Client
}

var _ IRepository = VideoRepository{}

func New(db database.Client) VideoRepository {
	return VideoRepository{
		db: db,
	}
}

func (r VideoRepository) NotifyOnChanges(ctx context.Context) <-chan VideosEvent {

	ch := make(chan VideosEvent)

	go func() {
		defer close(ch)

		helper.NotifyOnChanges(ctx, r.db, videoProductsNode, func(snap database.Snapshot, err error) error {

			if err != nil {
				log.Error().Err(err).Msg("video repo: failed to read video events")
				helper.NonblockingWrite[VideosEvent](ctx, channelWriteTimeout, ch, VideosEvent{Err: fmt.Errorf("%w: %w", ierr.Connection, err)})
				return nil
			}

			videos, err := decodeVideos(snap)
			if err != nil {
				log.Error().Err(err).Msg("video repo: failed to convert snapshot to videos")
			}

			select {
			case ch <- VideosEvent{Videos: videos, Err: err}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return ch
}

func (r VideoRepository) List(ctx context.Context) ([]model.VideoProduct, error) {
	snap, err := r.db.Get(ctx, videoProductsNode)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return decodeVideos(snap)
}

func (r VideoRepository) GetById(ctx context.Context, id string) (*model.VideoProduct, error) {
	snap, err := r.db.Get(ctx, database.JoinPath(videoProductsNode, id))
	if err != nil {
		return nil, fmt.Errorf("get video: %w, id: %s", err, id)
	}

	if !snap.Exists() {
		return nil, ierr.NotFound
	}

	video := &model.VideoProduct{}
	if err := snap.Decode(video); err != nil {
		return nil, fmt.Errorf("get video: %w: %w, id: %s", ierr.Decode, err, id)
	}
	video.ProductId = id
	return video, nil
}

// Create writes all videos in one batch. Missing ids get a push key and
// missing timestamps are set to now.
func (r VideoRepository) Create(ctx context.Context, data ...model.VideoProduct) error {
	if len(data) == 0 {
		return nil
	}

	now := model.Millis(time.Now())
	values := make(map[string]interface{}, len(data))
	for _, video := range data {
		if video.ProductId == "" {
			video.ProductId = r.db.PushKey(videoProductsNode)
		}
		if video.CreatedAt == 0 {
			video.CreatedAt = now
		}
		if video.UpdatedAt == 0 {
			video.UpdatedAt = video.CreatedAt
		}
		values[database.JoinPath(videoProductsNode, video.ProductId)] = video
	}

	if err := r.db.SetMany(ctx, values); err != nil {
		return fmt.Errorf("create videos: %w", err)
	}
	return nil
}

func (r VideoRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Remove(ctx, database.JoinPath(videoProductsNode, id)); err != nil {
		return fmt.Errorf("delete video: %w, id: %s", err, id)
	}
	return nil
}

// decodeVideos turns the videoProducts subtree into a newest-first list.
// Entries that cannot be decoded or have no video are skipped.
func decodeVideos(snap database.Snapshot) ([]model.VideoProduct, error) {
	videos := []model.VideoProduct{}
	if !snap.Exists() {
		return videos, nil
	}

	children := snap.Children()
	if children == nil {
		return videos, fmt.Errorf("%w: %s is not an object", ierr.Decode, snap.Path)
	}

	for key, node := range children {
		video := model.VideoProduct{}
		if err := utils.NodeToType(node, &video); err != nil {
			log.Warn().Err(err).Str("id", key).Msg("video repo: skipping undecodable video")
			continue
		}
		if video.VideoUrl == "" {
			log.Debug().Str("id", key).Msg("video repo: skipping video without url")
			continue
		}
		video.ProductId = key
		videos = append(videos, video)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].CreatedAt != videos[j].CreatedAt {
			return videos[i].CreatedAt > videos[j].CreatedAt
		}
		return videos[i].ProductId < videos[j].ProductId
	})

	return videos, nil
}
