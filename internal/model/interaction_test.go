package model

import (
	"encoding/json"
	"testing"
)

func TestLikeSet_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr bool
	}{
		{"legacy counter", `{"likes": 0}`, 0, false},
		{"map of likes", `{"likes": {"u1": {"userId": "u1", "likedAt": 5}, "u2": {"userId": "u2"}}}`, 2, false},
		{"null", `{"likes": null}`, 0, false},
		{"missing", `{}`, 0, false},
		{"string", `{"likes": "many"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Comment
			err := json.Unmarshal([]byte(tt.payload), &c)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(c.Likes) != tt.want {
				t.Errorf("len(Likes) = %d, want %d", len(c.Likes), tt.want)
			}
		})
	}
}

func TestLikeSet_Has(t *testing.T) {
	s := LikeSet{"u1": {UserId: "u1"}}
	if !s.Has("u1") || s.Has("u2") {
		t.Errorf("Has() mismatch for %v", s)
	}

	var empty LikeSet
	if empty.Has("u1") {
		t.Error("nil set should not contain anything")
	}
}

func TestAdAnalytics_ClickThroughRate(t *testing.T) {
	if got := (AdAnalytics{}).ClickThroughRate(); got != 0 {
		t.Errorf("ClickThroughRate() without impressions = %v, want 0", got)
	}
	if got := (AdAnalytics{Impressions: 200, Clicks: 5}).ClickThroughRate(); got != 0.025 {
		t.Errorf("ClickThroughRate() = %v, want 0.025", got)
	}
}

func TestVideoProduct_PrimaryImage(t *testing.T) {
	v := VideoProduct{
		ThumbnailUrl: "thumb.jpg",
		Images: map[string]ProductImage{
			"a": {ImageUrl: "a.jpg"},
			"b": {ImageUrl: "b.jpg", IsPrimary: true},
		},
	}
	if got := v.PrimaryImage(); got != "b.jpg" {
		t.Errorf("PrimaryImage() = %q, want b.jpg", got)
	}

	v.Images = nil
	if got := v.PrimaryImage(); got != "thumb.jpg" {
		t.Errorf("PrimaryImage() fallback = %q, want thumb.jpg", got)
	}
}
