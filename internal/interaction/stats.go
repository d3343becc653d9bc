package interaction

import (
	"context"
	"fmt"

	"go-shopfeed/internal/model"
	commentsRepo "go-shopfeed/internal/repository/comments"
	likesRepo "go-shopfeed/internal/repository/likes"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type StatsEvent struct {
	VideoId string
	Stats   model.VideoStats
	Err     error
}

type Stats struct {
	likes    likesRepo.IRepository
	comments commentsRepo.IRepository
}

func NewStats(likes likesRepo.IRepository, comments commentsRepo.IRepository) Stats {
	return Stats{
		likes:    likes,
		comments: comments,
	}
}

// Get reads likes and comments of a video concurrently.
func (s Stats) Get(ctx context.Context, videoId, userId string) (model.VideoStats, error) {
	var (
		likes    model.LikeSet
		comments map[string]model.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		likes, err = s.likes.List(gctx, videoId)
		return err
	})
	g.Go(func() (err error) {
		comments, err = s.comments.List(gctx, videoId)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.VideoStats{}, fmt.Errorf("video stats: %w, video: %s", err, videoId)
	}

	return model.VideoStats{
		LikesCount:    len(likes),
		CommentsCount: CountComments(comments),
		IsLikedByUser: likes.Has(userId),
	}, nil
}

// Watch emits the video's stats once both likes and comments were read, and
// again on every change of either. The channel is closed when ctx is done.
func (s Stats) Watch(ctx context.Context, videoId, userId string) <-chan StatsEvent {

	ch := make(chan StatsEvent)

	go func() {
		defer close(ch)

		likesCh := s.likes.NotifyOnChanges(ctx, videoId)
		commentsCh := s.comments.NotifyOnChanges(ctx, videoId)

		var (
			stats          model.VideoStats
			likesLoaded    bool
			commentsLoaded bool
		)

		for likesCh != nil || commentsCh != nil {
			var err error

			select {
			case <-ctx.Done():
				return
			case e, ok := <-likesCh:
				if !ok {
					likesCh = nil
					continue
				}
				likesLoaded = true
				if e.Err != nil {
					err = e.Err
					break
				}
				stats.LikesCount = len(e.Likes)
				stats.IsLikedByUser = e.Likes.Has(userId)
			case e, ok := <-commentsCh:
				if !ok {
					commentsCh = nil
					continue
				}
				commentsLoaded = true
				if e.Err != nil {
					err = e.Err
					break
				}
				stats.CommentsCount = CountComments(e.Comments)
			}

			if err != nil {
				log.Error().Err(err).Str("videoId", videoId).Msg("stats watcher: source failed")
			}
			if !likesLoaded || !commentsLoaded {
				continue
			}

			select {
			case ch <- StatsEvent{VideoId: videoId, Stats: stats, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
