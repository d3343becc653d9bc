package model

import (
	"encoding/json"
	"fmt"
)

// User identifies whoever performs a write.
type User struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Like is a presence record: the key existing means liked.
type Like struct {
	UserId     string `json:"userId"`
	VideoId    string `json:"videoId,omitempty"`
	LikedAt    int64  `json:"likedAt"`
	UserName   string `json:"userName,omitempty"`
	UserAvatar string `json:"userAvatar,omitempty"`
}

// LikeSet maps user ids to their like. Older records stored a plain counter
// under "likes"; such a value decodes as an empty set.
type LikeSet map[string]Like

func (s *LikeSet) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.(type) {
	case nil, float64:
		*s = nil
		return nil
	case map[string]interface{}:
		m := map[string]Like{}
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*s = m
		return nil
	default:
		return fmt.Errorf("likes: unexpected value %s", string(data))
	}
}

func (s LikeSet) Has(userId string) bool {
	_, ok := s[userId]
	return ok
}

type Comment struct {
	CommentId  string           `json:"commentId"`
	UserId     string           `json:"userId"`
	VideoId    string           `json:"videoId"`
	Text       string           `json:"text"`
	CreatedAt  int64            `json:"createdAt"`
	UpdatedAt  int64            `json:"updatedAt,omitempty"`
	UserName   string           `json:"userName"`
	UserAvatar string           `json:"userAvatar,omitempty"`
	Likes      LikeSet          `json:"likes,omitempty"`
	Replies    map[string]Reply `json:"replies,omitempty"`
}

type Reply struct {
	ReplyId    string  `json:"replyId"`
	UserId     string  `json:"userId"`
	CommentId  string  `json:"commentId"`
	Text       string  `json:"text"`
	CreatedAt  int64   `json:"createdAt"`
	UpdatedAt  int64   `json:"updatedAt,omitempty"`
	UserName   string  `json:"userName"`
	UserAvatar string  `json:"userAvatar,omitempty"`
	Likes      LikeSet `json:"likes,omitempty"`
	ReplyingTo *string `json:"replyingTo,omitempty"`
}

// ReplyView is a reply as served to clients, with its like count resolved.
type ReplyView struct {
	Reply
	LikeCount int `json:"likeCount"`
}

// CommentWithReplies is the flattened form of a comment: replies moved into
// an ordered slice next to the comment.
type CommentWithReplies struct {
	Comment
	LikeCount    int         `json:"likeCount"`
	RepliesArray []ReplyView `json:"repliesArray"`
}

type VideoStats struct {
	LikesCount    int  `json:"likesCount"`
	CommentsCount int  `json:"commentsCount"`
	IsLikedByUser bool `json:"isLikedByUser"`
}
