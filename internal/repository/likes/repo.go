package likes

import (
	"context"
	"fmt"
	"time"

	"go-shopfeed/internal/database"
	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/model"
	"go-shopfeed/internal/repository/helper"

	"github.com/rs/zerolog/log"
)

type LikeRepository struct {
	db   database.Client
	node string
}

var _ IRepository = LikeRepository{}

// New keeps likes under {root}/likes, e.g. root "interactions" for the mobile
// app's realtime database.
func New(db database.Client, root string) LikeRepository {
	return LikeRepository{
		db:   db,
		node: helper.NodePath(root, likesNode),
	}
}

func (r LikeRepository) NotifyOnChanges(ctx context.Context, videoId string) <-chan LikesEvent {

	ch := make(chan LikesEvent)

	go func() {
		defer close(ch)

		helper.NotifyOnChanges(ctx, r.db, database.JoinPath(r.node, videoId), func(snap database.Snapshot, err error) error {

			if err != nil {
				log.Error().Err(err).Str("videoId", videoId).Msg("like repo: failed to read like events")
				helper.NonblockingWrite[LikesEvent](ctx, channelWriteTimeout, ch, LikesEvent{VideoId: videoId, Err: fmt.Errorf("%w: %w", ierr.Connection, err)})
				return nil
			}

			likes, err := decodeLikes(snap)
			if err != nil {
				log.Error().Err(err).Str("videoId", videoId).Msg("like repo: failed to convert snapshot to likes")
			}

			select {
			case ch <- LikesEvent{VideoId: videoId, Likes: likes, Err: err}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return ch
}

func (r LikeRepository) List(ctx context.Context, videoId string) (model.LikeSet, error) {
	snap, err := r.db.Get(ctx, database.JoinPath(r.node, videoId))
	if err != nil {
		return nil, fmt.Errorf("list likes: %w, video: %s", err, videoId)
	}
	return decodeLikes(snap)
}

func (r LikeRepository) Toggle(ctx context.Context, videoId string, user model.User) (bool, error) {
	if err := helper.ValidateKeys(map[string]string{"video": videoId, "user": user.Id}); err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	path := database.JoinPath(r.node, videoId, user.Id)

	snap, err := r.db.Get(ctx, path)
	if err != nil {
		return false, fmt.Errorf("toggle like: %w, video: %s", err, videoId)
	}

	if snap.Exists() {
		if err := r.db.Remove(ctx, path); err != nil {
			return true, fmt.Errorf("unlike video: %w, video: %s", err, videoId)
		}
		return false, nil
	}

	like := model.Like{
		UserId:     user.Id,
		VideoId:    videoId,
		LikedAt:    model.Millis(time.Now()),
		UserName:   user.Name,
		UserAvatar: user.Avatar,
	}
	if err := r.db.Set(ctx, path, like); err != nil {
		return false, fmt.Errorf("like video: %w, video: %s", err, videoId)
	}
	return true, nil
}

func decodeLikes(snap database.Snapshot) (model.LikeSet, error) {
	likes := model.LikeSet{}
	if !snap.Exists() {
		return likes, nil
	}
	if err := snap.Decode(&likes); err != nil {
		return model.LikeSet{}, fmt.Errorf("%w: %w", ierr.Decode, err)
	}
	if likes == nil {
		likes = model.LikeSet{}
	}
	return likes, nil
}
