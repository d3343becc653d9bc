package comments

import (
	"context"

	"go-shopfeed/internal/model"
)

// CommentsEvent carries every comment of a video keyed by comment id. Comment
// and reply ids are always set from their keys.
type CommentsEvent struct {
	VideoId  string
	Comments map[string]model.Comment
	Err      error
}

// Target addresses a comment, or one of its replies when ReplyId is set.
type Target struct {
	VideoId   string
	CommentId string
	ReplyId   string
}

type IRepository interface {
	NotifyOnChanges(ctx context.Context, videoId string) <-chan CommentsEvent
	List(ctx context.Context, videoId string) (map[string]model.Comment, error)
	AddComment(ctx context.Context, videoId string, user model.User, text string) (*model.Comment, error)
	AddReply(ctx context.Context, videoId, commentId string, user model.User, text string, replyingTo *string) (*model.Reply, error)
	// ToggleLike reports whether the target is liked by the user afterwards.
	ToggleLike(ctx context.Context, target Target, user model.User) (bool, error)
}
