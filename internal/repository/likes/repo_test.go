package likes

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-shopfeed/internal/database"
	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/model"
)

var alice = model.User{Id: "alice", Name: "Alice"}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	repo := New(database.NewMemory(), "")

	liked, err := repo.Toggle(ctx, "v1", alice)
	if err != nil || !liked {
		t.Fatalf("first Toggle() = %v, %v, want liked", liked, err)
	}

	set, _ := repo.List(ctx, "v1")
	if !set.Has("alice") || len(set) != 1 {
		t.Errorf("likes after toggle = %v", set)
	}
	if set["alice"].VideoId != "v1" || set["alice"].UserName != "Alice" || set["alice"].LikedAt == 0 {
		t.Errorf("like record = %+v", set["alice"])
	}

	liked, err = repo.Toggle(ctx, "v1", alice)
	if err != nil || liked {
		t.Fatalf("second Toggle() = %v, %v, want unliked", liked, err)
	}

	set, _ = repo.List(ctx, "v1")
	if len(set) != 0 {
		t.Errorf("likes after toggling twice = %v, want none", set)
	}
}

func TestNotifyOnChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := New(database.NewMemory(), "")
	ch := repo.NotifyOnChanges(ctx, "v1")

	if first := <-ch; first.Err != nil || len(first.Likes) != 0 || first.VideoId != "v1" {
		t.Fatalf("first event = %+v", first)
	}

	_, _ = repo.Toggle(context.Background(), "v1", alice)
	_, _ = repo.Toggle(context.Background(), "v2", model.User{Id: "bob"})

	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if len(e.Likes) == 1 {
				if !e.Likes.Has("alice") {
					t.Errorf("likes = %v", e.Likes)
				}
				return
			}
		case <-timeout:
			t.Fatal("no event after toggle")
		}
	}
}

func TestList_AppLayout(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemory()
	// written by the mobile app
	_ = db.Set(ctx, "interactions/likes/v1/user_demo_123", map[string]interface{}{
		"userId": "user_demo_123", "videoId": "v1", "likedAt": 1700000000000, "userName": "Demo User",
	})

	repo := New(db, "interactions")
	set, err := repo.List(ctx, "v1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !set.Has("user_demo_123") || set["user_demo_123"].LikedAt != 1700000000000 {
		t.Errorf("likes = %+v", set)
	}

	if liked, err := repo.Toggle(ctx, "v1", alice); err != nil || !liked {
		t.Fatalf("Toggle() = %v, %v", liked, err)
	}
	if snap, _ := db.Get(ctx, "interactions/likes/v1/alice"); !snap.Exists() {
		t.Error("like was not written next to the app's likes")
	}
	if snap, _ := db.Get(ctx, "likes"); snap.Exists() {
		t.Errorf("nothing should be written outside the root, got %v", snap.Value)
	}
}

func TestToggle_RejectsMultiSegmentIds(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemory()
	repo := New(db, "")

	for _, id := range []string{"bob/evil", "bob/", "a.b", ""} {
		_, err := repo.Toggle(ctx, "v1", model.User{Id: id})
		if !errors.Is(err, ierr.InvalidPath) {
			t.Errorf("Toggle() as %q error = %v, want InvalidPath", id, err)
		}
	}
	if _, err := repo.Toggle(ctx, "v1/x", alice); !errors.Is(err, ierr.InvalidPath) {
		t.Errorf("Toggle() on a nested video id error = %v, want InvalidPath", err)
	}

	if snap, _ := db.Get(ctx, "likes"); snap.Exists() {
		t.Errorf("rejected toggles wrote %v", snap.Value)
	}
}
