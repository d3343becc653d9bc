package interaction

import (
	"testing"

	"go-shopfeed/internal/model"
)

func TestFlatten(t *testing.T) {
	comments := map[string]model.Comment{
		"c-old": {Text: "old", CreatedAt: 100, Likes: model.LikeSet{"u1": {}, "u2": {}}},
		"c-new": {
			Text:      "new",
			CreatedAt: 300,
			Replies: map[string]model.Reply{
				"r-late":  {Text: "late", CreatedAt: 50},
				"r-early": {Text: "early", CreatedAt: 10, Likes: model.LikeSet{"u1": {}}},
				"r-b":     {Text: "tie b", CreatedAt: 20},
				"r-a":     {Text: "tie a", CreatedAt: 20},
			},
		},
		"c-mid": {Text: "mid", CreatedAt: 200},
	}

	got := Flatten(comments)

	order := []string{"c-new", "c-mid", "c-old"}
	if len(got) != len(order) {
		t.Fatalf("len = %d, want %d", len(got), len(order))
	}
	for i, id := range order {
		if got[i].CommentId != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].CommentId, id)
		}
		if got[i].Replies != nil {
			t.Errorf("got[%d].Replies should be moved into RepliesArray", i)
		}
	}

	replies := got[0].RepliesArray
	replyOrder := []string{"r-early", "r-a", "r-b", "r-late"}
	for i, id := range replyOrder {
		if replies[i].ReplyId != id {
			t.Errorf("replies[%d] = %s, want %s", i, replies[i].ReplyId, id)
		}
	}
	if replies[0].LikeCount != 1 {
		t.Errorf("reply like count = %d, want 1", replies[0].LikeCount)
	}

	if got[2].LikeCount != 2 {
		t.Errorf("comment like count = %d, want 2", got[2].LikeCount)
	}
	if got[1].RepliesArray == nil || len(got[1].RepliesArray) != 0 {
		t.Errorf("comment without replies should have an empty RepliesArray, got %v", got[1].RepliesArray)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(nil); got == nil || len(got) != 0 {
		t.Errorf("Flatten(nil) = %v, want empty slice", got)
	}
}

func TestCountComments(t *testing.T) {
	comments := map[string]model.Comment{
		"c1": {Replies: map[string]model.Reply{"r1": {}, "r2": {}}},
		"c2": {},
	}
	if got := CountComments(comments); got != 4 {
		t.Errorf("CountComments() = %d, want 4", got)
	}
}
