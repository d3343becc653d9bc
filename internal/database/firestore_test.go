package database

import (
	"errors"
	"reflect"
	"testing"

	ierr "go-shopfeed/internal/errors"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		path   string
		want   location
		hasErr bool
	}{
		{"videoProducts", location{path: "videoProducts", collection: "videoProducts"}, false},
		{"/likes/v1/", location{path: "likes/v1", collection: "likes", doc: "v1"}, false},
		{"comments/v1/c1/replies/r1", location{path: "comments/v1/c1/replies/r1", collection: "comments", doc: "v1", fields: []string{"c1", "replies", "r1"}}, false},
		{"ads/a.1", location{}, true},
	}

	for _, tt := range tests {
		got, err := locate(tt.path)
		if tt.hasErr {
			if !errors.Is(err, ierr.InvalidPath) {
				t.Errorf("locate(%q) error = %v, want InvalidPath", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("locate(%q) error = %v", tt.path, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("locate(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}

func TestNest(t *testing.T) {
	got := nest([]string{"c1", "likes", "alice"}, true)
	want := map[string]interface{}{
		"c1": map[string]interface{}{
			"likes": map[string]interface{}{"alice": true},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("nest() = %v, want %v", got, want)
	}
}

func TestDocumentValue(t *testing.T) {
	doc := map[string]interface{}{
		"c1": map[string]interface{}{
			"text":  "hi",
			"likes": map[string]interface{}{"alice": map[string]interface{}{"likedAt": int64(3)}},
		},
	}

	whole, err := documentValue("comments/v1", doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := valueAt(whole.Value, []string{"c1", "text"}); got != "hi" {
		t.Errorf("text = %v", got)
	}

	field, err := documentValue("comments/v1/c1/likes/alice", doc, []string{"c1", "likes", "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if got := valueAt(field.Value, []string{"likedAt"}); got != float64(3) {
		t.Errorf("likedAt = %v (%T), want normalized 3", got, got)
	}

	missing, _ := documentValue("comments/v1/c9", doc, []string{"c9"})
	if missing.Exists() {
		t.Errorf("missing field should not exist, got %v", missing.Value)
	}
}

func TestCollectionValue(t *testing.T) {
	snap, err := collectionValue("advertisements", map[string]map[string]interface{}{
		"a1": {"title": "one", "analytics": map[string]interface{}{}},
		"a2": {"title": "two"},
	})
	if err != nil {
		t.Fatal(err)
	}

	children := snap.Children()
	if len(children) != 2 || valueAt(children["a2"], []string{"title"}) != "two" {
		t.Errorf("children = %v", children)
	}
	// empty objects are pruned like in the realtime database
	if valueAt(children["a1"], []string{"analytics"}) != nil {
		t.Errorf("empty analytics should be pruned, got %v", children["a1"])
	}

	empty, _ := collectionValue("advertisements", nil)
	if empty.Exists() {
		t.Errorf("empty collection should not exist, got %v", empty.Value)
	}
}
