package model

import "time"

// VideoProduct is written by the admin tool only; clients never modify it.
type VideoProduct struct {
	ProductId    string                  `json:"productId"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description,omitempty"`
	Price        string                  `json:"price"`
	Currency     string                  `json:"currency"`
	ProductUrl   string                  `json:"productUrl,omitempty"`
	VideoUrl     string                  `json:"videoUrl"`
	ThumbnailUrl string                  `json:"thumbnailUrl,omitempty"`
	Images       map[string]ProductImage `json:"images,omitempty"`
	CreatedAt    int64                   `json:"createdAt"`
	UpdatedAt    int64                   `json:"updatedAt"`
}

type ProductImage struct {
	ImageId    string `json:"imageId"`
	ImageUrl   string `json:"imageUrl"`
	Caption    string `json:"caption,omitempty"`
	IsPrimary  bool   `json:"isPrimary"`
	UploadedAt int64  `json:"uploadedAt"`
}

// PrimaryImage returns the image flagged as primary, falling back to the
// thumbnail.
func (v VideoProduct) PrimaryImage() string {
	for _, img := range v.Images {
		if img.IsPrimary {
			return img.ImageUrl
		}
	}
	return v.ThumbnailUrl
}

// Millis converts a time into the millisecond timestamps stored in the tree.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
