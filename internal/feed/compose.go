package feed

import (
	"fmt"

	"go-shopfeed/internal/model"
)

const defaultCategory = "Product"

// Interleave inserts the next element of inserts after every every-th element
// of primary, cycling through inserts when they run out. With no inserts or a
// non-positive every the result equals primary.
func Interleave[T any](primary, inserts []T, every int) []T {
	if len(inserts) == 0 || every <= 0 {
		out := make([]T, len(primary))
		copy(out, primary)
		return out
	}

	out := make([]T, 0, len(primary)+len(primary)/every)
	next := 0
	for i, p := range primary {
		out = append(out, p)
		if (i+1)%every == 0 {
			out = append(out, inserts[next])
			next = (next + 1) % len(inserts)
		}
	}
	return out
}

// Compose turns sorted videos and ads into feed items and assigns each a key
// that is unique within the result. The same ad may appear at several slots.
func Compose(videos []model.VideoProduct, ads []model.Advertisement, every int, format PriceFormatter) []model.FeedItem {
	if format == nil {
		format = PlainPrice
	}

	videoItems := make([]model.FeedItem, len(videos))
	for i, v := range videos {
		videoItems[i] = videoItem(v, format)
	}

	adItems := make([]model.FeedItem, len(ads))
	for i, a := range ads {
		adItems[i] = adItem(a)
	}

	items := Interleave(videoItems, adItems, every)

	slot := 0
	for i := range items {
		if items[i].Type == model.FeedItemAd {
			items[i].Key = fmt.Sprintf("ad:%s:%d", items[i].Ad.Id, slot)
			slot++
		}
	}
	return items
}

func videoItem(v model.VideoProduct, format PriceFormatter) model.FeedItem {
	thumbnail := v.ThumbnailUrl
	if thumbnail == "" {
		thumbnail = v.PrimaryImage()
	}

	return model.FeedItem{
		Type: model.FeedItemVideo,
		Key:  "video:" + v.ProductId,
		Video: &model.VideoFeedItem{
			Id:           v.ProductId,
			VideoUrl:     v.VideoUrl,
			ThumbnailUrl: thumbnail,
			Product: model.FeedProduct{
				Name:       v.Title,
				Price:      format(v.Currency, v.Price),
				Category:   defaultCategory,
				ProductUrl: v.ProductUrl,
			},
		},
	}
}

func adItem(a model.Advertisement) model.FeedItem {
	return model.FeedItem{
		Type: model.FeedItemAd,
		Ad: &model.AdFeedItem{
			Id:             a.AdId,
			AdType:         a.AdType,
			MediaUrl:       a.MediaUrl,
			Title:          a.Title,
			CallToAction:   a.CallToAction,
			DestinationUrl: a.DestinationUrl,
		},
	}
}
