package comments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-shopfeed/internal/database"
	"go-shopfeed/internal/database/utils"
	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/model"
	"go-shopfeed/internal/repository/helper"
	ptr "go-shopfeed/internal/utils"

	"github.com/rs/zerolog/log"
)

type CommentRepository struct {
	db   database.Client
	node string
}

var _ IRepository = CommentRepository{}

// New keeps comments under {root}/comments.
func New(db database.Client, root string) CommentRepository {
	return CommentRepository{
		db:   db,
		node: helper.NodePath(root, commentsNode),
	}
}

func (r CommentRepository) NotifyOnChanges(ctx context.Context, videoId string) <-chan CommentsEvent {

	ch := make(chan CommentsEvent)

	go func() {
		defer close(ch)

		helper.NotifyOnChanges(ctx, r.db, database.JoinPath(r.node, videoId), func(snap database.Snapshot, err error) error {

			if err != nil {
				log.Error().Err(err).Str("videoId", videoId).Msg("comment repo: failed to read comment events")
				helper.NonblockingWrite[CommentsEvent](ctx, channelWriteTimeout, ch, CommentsEvent{VideoId: videoId, Err: fmt.Errorf("%w: %w", ierr.Connection, err)})
				return nil
			}

			comments, err := decodeComments(snap)
			if err != nil {
				log.Error().Err(err).Str("videoId", videoId).Msg("comment repo: failed to convert snapshot to comments")
			}

			select {
			case ch <- CommentsEvent{VideoId: videoId, Comments: comments, Err: err}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return ch
}

func (r CommentRepository) List(ctx context.Context, videoId string) (map[string]model.Comment, error) {
	snap, err := r.db.Get(ctx, database.JoinPath(r.node, videoId))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w, video: %s", err, videoId)
	}
	return decodeComments(snap)
}

func (r CommentRepository) AddComment(ctx context.Context, videoId string, user model.User, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ierr.EmptyText
	}
	if err := helper.ValidateKeys(map[string]string{"video": videoId, "user": user.Id}); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	parent := database.JoinPath(r.node, videoId)
	comment := &model.Comment{
		CommentId:  r.db.PushKey(parent),
		UserId:     user.Id,
		VideoId:    videoId,
		Text:       text,
		CreatedAt:  model.Millis(time.Now()),
		UserName:   user.Name,
		UserAvatar: user.Avatar,
	}

	if err := r.db.Set(ctx, database.JoinPath(parent, comment.CommentId), comment); err != nil {
		return nil, fmt.Errorf("add comment: %w, video: %s", err, videoId)
	}
	return comment, nil
}

func (r CommentRepository) AddReply(ctx context.Context, videoId, commentId string, user model.User, text string, replyingTo *string) (*model.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ierr.EmptyText
	}

	if err := helper.ValidateKeys(map[string]string{"video": videoId, "comment": commentId, "user": user.Id}); err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}

	commentPath := database.JoinPath(r.node, videoId, commentId)
	if err := r.mustExist(ctx, commentPath); err != nil {
		return nil, fmt.Errorf("add reply: %w, comment: %s", err, commentId)
	}

	if replyingTo != nil {
		if name := strings.TrimSpace(*replyingTo); name == "" {
			replyingTo = nil
		} else {
			replyingTo = ptr.StringToPointer(name)
		}
	}

	parent := database.JoinPath(commentPath, repliesNode)
	reply := &model.Reply{
		ReplyId:    r.db.PushKey(parent),
		UserId:     user.Id,
		CommentId:  commentId,
		Text:       text,
		CreatedAt:  model.Millis(time.Now()),
		UserName:   user.Name,
		UserAvatar: user.Avatar,
		ReplyingTo: replyingTo,
	}

	if err := r.db.Set(ctx, database.JoinPath(parent, reply.ReplyId), reply); err != nil {
		return nil, fmt.Errorf("add reply: %w, comment: %s", err, commentId)
	}
	return reply, nil
}

func (r CommentRepository) ToggleLike(ctx context.Context, target Target, user model.User) (bool, error) {
	keys := map[string]string{"video": target.VideoId, "comment": target.CommentId, "user": user.Id}
	if target.ReplyId != "" {
		keys["reply"] = target.ReplyId
	}
	if err := helper.ValidateKeys(keys); err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	targetPath := database.JoinPath(r.node, target.VideoId, target.CommentId)
	if target.ReplyId != "" {
		targetPath = database.JoinPath(targetPath, repliesNode, target.ReplyId)
	}

	if err := r.mustExist(ctx, targetPath); err != nil {
		return false, fmt.Errorf("toggle like: %w, path: %s", err, targetPath)
	}

	likePath := database.JoinPath(targetPath, likesNode, user.Id)
	snap, err := r.db.Get(ctx, likePath)
	if err != nil {
		return false, fmt.Errorf("toggle like: %w, path: %s", err, targetPath)
	}

	if snap.Exists() {
		if err := r.db.Remove(ctx, likePath); err != nil {
			return true, fmt.Errorf("unlike: %w, path: %s", err, targetPath)
		}
		return false, nil
	}

	like := model.Like{
		UserId:     user.Id,
		LikedAt:    model.Millis(time.Now()),
		UserName:   user.Name,
		UserAvatar: user.Avatar,
	}
	if err := r.db.Set(ctx, likePath, like); err != nil {
		return false, fmt.Errorf("like: %w, path: %s", err, targetPath)
	}
	return true, nil
}

func (r CommentRepository) mustExist(ctx context.Context, path string) error {
	snap, err := r.db.Get(ctx, path)
	if err != nil {
		return err
	}
	if !snap.Exists() {
		return ierr.NotFound
	}
	return nil
}

// decodeComments decodes the comment subtree of one video. A comment that
// cannot be decoded is skipped, the rest of the video's comments still load.
func decodeComments(snap database.Snapshot) (map[string]model.Comment, error) {
	comments := map[string]model.Comment{}
	if !snap.Exists() {
		return comments, nil
	}

	children := snap.Children()
	if children == nil {
		return comments, fmt.Errorf("%w: %s is not an object", ierr.Decode, snap.Path)
	}

	for key, node := range children {
		comment := model.Comment{}
		if err := utils.NodeToType(node, &comment); err != nil {
			log.Warn().Err(err).Str("commentId", key).Msg("comment repo: skipping undecodable comment")
			continue
		}
		comment.CommentId = key
		for replyId, reply := range comment.Replies {
			reply.ReplyId = replyId
			reply.CommentId = key
			comment.Replies[replyId] = reply
		}
		comments[key] = comment
	}

	return comments, nil
}
