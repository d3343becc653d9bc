package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/eventpublisher"
	"go-shopfeed/internal/eventpublisher/common"
	"go-shopfeed/internal/eventpublisher/event"
	"go-shopfeed/internal/model"
	commentsRepo "go-shopfeed/internal/repository/comments"

	"github.com/rs/zerolog/log"
)

// CommentsState is what a CommentStore publishes on every change.
type CommentsState struct {
	Seq      uint64                     `json:"seq"`
	VideoId  string                     `json:"videoId"`
	Comments []model.CommentWithReplies `json:"comments"`
	Loading  bool                       `json:"loading"`
	Error    string                     `json:"error,omitempty"`
}

// CommentStore keeps the flattened comments of one video in sync with the
// tree. Writes go straight to the tree; the store picks them up with the next
// snapshot.
type CommentStore struct {
	videoId     string
	repo        commentsRepo.IRepository
	broadcaster *common.Broadcaster

	mu    sync.RWMutex
	state CommentsState
}

var _ eventpublisher.Publisher = (*CommentStore)(nil)

func NewCommentStore(repo commentsRepo.IRepository, videoId string) *CommentStore {
	return &CommentStore{
		videoId:     videoId,
		repo:        repo,
		broadcaster: common.NewBroadcaster(writeTimeout, maxMissedWrites),
		state: CommentsState{
			VideoId:  videoId,
			Comments: []model.CommentWithReplies{},
			Loading:  true,
		},
	}
}

func (s *CommentStore) Subscribe(subscriber event.EventWChannel) {
	s.broadcaster.Subscribe(subscriber)
}

func (s *CommentStore) Unsubscribe(subscriber event.EventWChannel) {
	s.broadcaster.Unsubscribe(subscriber)
}

// Start follows the video's comments until ctx is done or the subscription
// ends.
func (s *CommentStore) Start(ctx context.Context) error {
	defer s.broadcaster.UnsubscribeAll()

	eventsCh := s.repo.NotifyOnChanges(ctx, s.videoId)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("videoId", s.videoId).Msg("comment store stopped")
			return ctx.Err()
		case e, ok := <-eventsCh:
			if !ok {
				return nil
			}
			s.apply(ctx, e)
		}
	}
}

func (s *CommentStore) apply(ctx context.Context, e commentsRepo.CommentsEvent) {
	s.mu.Lock()
	next := s.state
	next.Seq++
	next.Loading = false
	switch {
	case e.Err == nil:
		next.Comments = Flatten(e.Comments)
		next.Error = ""
	case errors.Is(e.Err, ierr.Connection):
		next.Error = errCommentsConnection
	default:
		next.Error = errCommentsDecode
	}
	s.state = next
	s.mu.Unlock()

	s.broadcaster.Broadcast(ctx, event.Event{Type: event.CommentsUpdated, Seq: next.Seq, Message: next})
}

func (s *CommentStore) State() CommentsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *CommentStore) Comments() []model.CommentWithReplies {
	return s.State().Comments
}

func (s *CommentStore) Loading() bool {
	return s.State().Loading
}

func (s *CommentStore) Err() string {
	return s.State().Error
}

func (s *CommentStore) AddComment(ctx context.Context, user model.User, text string) (*model.Comment, error) {
	c, err := s.repo.AddComment(ctx, s.videoId, user, text)
	if err != nil {
		return nil, fmt.Errorf("comment store: %w", err)
	}
	return c, nil
}

func (s *CommentStore) AddReply(ctx context.Context, user model.User, commentId, text string, replyingTo *string) (*model.Reply, error) {
	r, err := s.repo.AddReply(ctx, s.videoId, commentId, user, text, replyingTo)
	if err != nil {
		return nil, fmt.Errorf("comment store: %w", err)
	}
	return r, nil
}

// ToggleLike likes or unlikes a comment, or one of its replies when replyId
// is not empty.
func (s *CommentStore) ToggleLike(ctx context.Context, user model.User, commentId, replyId string) (bool, error) {
	target := commentsRepo.Target{VideoId: s.videoId, CommentId: commentId, ReplyId: replyId}
	liked, err := s.repo.ToggleLike(ctx, target, user)
	if err != nil {
		return liked, fmt.Errorf("comment store: %w", err)
	}
	return liked, nil
}
