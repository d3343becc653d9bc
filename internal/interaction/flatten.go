package interaction

import (
	"sort"

	"go-shopfeed/internal/model"
)

// Flatten orders comments newest first and moves each comment's replies into
// RepliesArray, oldest first. Equal timestamps are ordered by id.
func Flatten(comments map[string]model.Comment) []model.CommentWithReplies {
	out := make([]model.CommentWithReplies, 0, len(comments))

	for id, c := range comments {
		c.CommentId = id

		replies := make([]model.ReplyView, 0, len(c.Replies))
		for replyId, r := range c.Replies {
			r.ReplyId = replyId
			replies = append(replies, model.ReplyView{Reply: r, LikeCount: len(r.Likes)})
		}
		sort.Slice(replies, func(i, j int) bool {
			if replies[i].CreatedAt != replies[j].CreatedAt {
				return replies[i].CreatedAt < replies[j].CreatedAt
			}
			return replies[i].ReplyId < replies[j].ReplyId
		})

		c.Replies = nil
		out = append(out, model.CommentWithReplies{
			Comment:      c,
			LikeCount:    len(c.Likes),
			RepliesArray: replies,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].CommentId < out[j].CommentId
	})

	return out
}

// CountComments counts comments together with their replies.
func CountComments(comments map[string]model.Comment) int {
	count := 0
	for _, c := range comments {
		count += 1 + len(c.Replies)
	}
	return count
}
