package feed

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go-shopfeed/internal/model"
)

func TestInterleave(t *testing.T) {
	tests := []struct {
		name    string
		primary []string
		inserts []string
		every   int
		want    []string
	}{
		{"example", []string{"v1", "v2", "v3", "v4"}, []string{"a1", "a2"}, 2, []string{"v1", "v2", "a1", "v3", "v4", "a2"}},
		{"no inserts", []string{"v1", "v2", "v3"}, nil, 2, []string{"v1", "v2", "v3"}},
		{"cycles inserts", []string{"v1", "v2", "v3", "v4", "v5", "v6"}, []string{"a1"}, 2, []string{"v1", "v2", "a1", "v3", "v4", "a1", "v5", "v6", "a1"}},
		{"odd length", []string{"v1", "v2", "v3"}, []string{"a1", "a2"}, 2, []string{"v1", "v2", "a1", "v3"}},
		{"shorter than interval", []string{"v1"}, []string{"a1"}, 2, []string{"v1"}},
		{"every element", []string{"v1", "v2"}, []string{"a1", "a2", "a3"}, 1, []string{"v1", "a1", "v2", "a2"}},
		{"non positive interval", []string{"v1", "v2"}, []string{"a1"}, 0, []string{"v1", "v2"}},
		{"empty primary", nil, []string{"a1"}, 2, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interleave(tt.primary, tt.inserts, tt.every)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Interleave() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterleave_Properties(t *testing.T) {
	for n := 0; n < 25; n++ {
		for m := 1; m < 5; m++ {
			primary := make([]string, n)
			for i := range primary {
				primary[i] = fmt.Sprintf("v%d", i)
			}
			inserts := make([]string, m)
			for i := range inserts {
				inserts[i] = fmt.Sprintf("a%d", i)
			}

			got := Interleave(primary, inserts, 2)

			if len(got) != n+n/2 {
				t.Fatalf("n=%d m=%d: len = %d, want %d", n, m, len(got), n+n/2)
			}

			// videos keep their relative order
			var videos []string
			for _, s := range got {
				if strings.HasPrefix(s, "v") {
					videos = append(videos, s)
				}
			}
			if n > 0 && !reflect.DeepEqual(videos, primary) {
				t.Fatalf("n=%d m=%d: videos reordered: %v", n, m, videos)
			}
		}
	}
}

func TestInterleave_DoesNotAlias(t *testing.T) {
	primary := []int{1, 2, 3}
	got := Interleave(primary, nil, 2)
	got[0] = 99
	if primary[0] != 1 {
		t.Error("Interleave() must not return the input slice")
	}
}

func TestCompose(t *testing.T) {
	videos := []model.VideoProduct{
		{ProductId: "v1", Title: "Lamp", Price: "10", Currency: "XXX", VideoUrl: "v1.mp4", ThumbnailUrl: "v1.jpg"},
		{ProductId: "v2", Title: "Chair", VideoUrl: "v2.mp4", Images: map[string]model.ProductImage{"i": {ImageUrl: "chair.jpg", IsPrimary: true}}},
		{ProductId: "v3", VideoUrl: "v3.mp4"},
		{ProductId: "v4", VideoUrl: "v4.mp4"},
	}
	ads := []model.Advertisement{{AdId: "a1", AdType: model.AdTypeVideo, MediaUrl: "a1.mp4", CallToAction: "Shop"}}

	format := func(c, p string) string { return c + "|" + p }
	items := Compose(videos, ads, 2, format)

	wantKeys := []string{"video:v1", "video:v2", "ad:a1:0", "video:v3", "video:v4", "ad:a1:1"}
	if len(items) != len(wantKeys) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(wantKeys))
	}

	seen := map[string]bool{}
	for i, item := range items {
		if item.Key != wantKeys[i] {
			t.Errorf("items[%d].Key = %s, want %s", i, item.Key, wantKeys[i])
		}
		if seen[item.Key] {
			t.Errorf("duplicate key %s", item.Key)
		}
		seen[item.Key] = true
	}

	v1 := items[0].Video
	if v1 == nil || items[0].Ad != nil {
		t.Fatalf("items[0] = %+v, want a video", items[0])
	}
	if v1.Product.Name != "Lamp" || v1.Product.Price != "XXX|10" || v1.Product.Category != "Product" || v1.ThumbnailUrl != "v1.jpg" {
		t.Errorf("video item = %+v", v1)
	}
	if items[1].Video.ThumbnailUrl != "chair.jpg" {
		t.Errorf("thumbnail fallback = %q, want chair.jpg", items[1].Video.ThumbnailUrl)
	}
	if ad := items[2].Ad; ad == nil || ad.Id != "a1" || ad.CallToAction != "Shop" || items[2].Type != model.FeedItemAd {
		t.Errorf("ad item = %+v", items[2])
	}
}

func TestCompose_NoAds(t *testing.T) {
	videos := []model.VideoProduct{{ProductId: "v1"}, {ProductId: "v2"}, {ProductId: "v3"}}
	items := Compose(videos, nil, 2, nil)
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	for i, item := range items {
		if item.Type != model.FeedItemVideo || item.Video.Id != videos[i].ProductId {
			t.Errorf("items[%d] = %+v", i, item)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	got := FormatPrice("USD", "19.9")
	if !strings.Contains(got, "19.90") || !strings.Contains(got, "$") {
		t.Errorf("FormatPrice(USD, 19.9) = %q", got)
	}

	fallbacks := []struct {
		currency, price, want string
	}{
		{"NOPE", "12", "NOPE 12"},
		{"USD", "free", "USD free"},
		{"", "5", "5"},
	}
	for _, tt := range fallbacks {
		if got := FormatPrice(tt.currency, tt.price); got != tt.want {
			t.Errorf("FormatPrice(%q, %q) = %q, want %q", tt.currency, tt.price, got, tt.want)
		}
	}
}

func TestPriceFormatterFor(t *testing.T) {
	plain, err := PriceFormatterFor("", "")
	if err != nil {
		t.Fatalf("default style error = %v", err)
	}
	if got := plain("USD", "19.99"); got != "USD 19.99" {
		t.Errorf("plain price = %q, want %q", got, "USD 19.99")
	}

	locale, err := PriceFormatterFor(PriceStyleLocale, "en-US")
	if err != nil {
		t.Fatalf("locale style error = %v", err)
	}
	if got := locale("USD", "19.99"); !strings.Contains(got, "$") || !strings.Contains(got, "19.99") {
		t.Errorf("locale price = %q", got)
	}

	if _, err := PriceFormatterFor("fancy", ""); err == nil {
		t.Error("unknown style should fail")
	}
	if _, err := PriceFormatterFor(PriceStyleLocale, "not a locale!"); err == nil {
		t.Error("bad locale should fail")
	}
}

func TestCompose_DefaultPriceLabel(t *testing.T) {
	videos := []model.VideoProduct{{ProductId: "v1", Price: "19.99", Currency: "USD", VideoUrl: "v1.mp4"}}
	items := Compose(videos, nil, 2, nil)
	if got := items[0].Video.Product.Price; got != "USD 19.99" {
		t.Errorf("price = %q, want %q", got, "USD 19.99")
	}
}
