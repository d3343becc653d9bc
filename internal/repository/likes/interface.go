package likes

import (
	"context"

	"go-shopfeed/internal/model"
)

type LikesEvent struct {
	VideoId string
	Likes   model.LikeSet
	Err     error
}

type IRepository interface {
	NotifyOnChanges(ctx context.Context, videoId string) <-chan LikesEvent
	List(ctx context.Context, videoId string) (model.LikeSet, error)
	// Toggle removes the user's like when present and adds it otherwise. It
	// reports whether the video is liked afterwards.
	Toggle(ctx context.Context, videoId string, user model.User) (bool, error)
}
