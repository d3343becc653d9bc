package model

type FeedItemType string

const (
	FeedItemVideo FeedItemType = "video"
	FeedItemAd    FeedItemType = "ad"
)

// FeedItem is either a video or an ad. Exactly one of Video and Ad is set,
// matching Type. Key is unique within one composed feed.
type FeedItem struct {
	Type  FeedItemType   `json:"type"`
	Key   string         `json:"key"`
	Video *VideoFeedItem `json:"video,omitempty"`
	Ad    *AdFeedItem    `json:"ad,omitempty"`
}

type VideoFeedItem struct {
	Id           string      `json:"id"`
	VideoUrl     string      `json:"videoUrl"`
	ThumbnailUrl string      `json:"thumbnailUrl"`
	Product      FeedProduct `json:"product"`
}

type FeedProduct struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Category   string `json:"category"`
	ProductUrl string `json:"productUrl"`
}

type AdFeedItem struct {
	Id             string `json:"id"`
	AdType         AdType `json:"adType"`
	MediaUrl       string `json:"mediaUrl"`
	Title          string `json:"title"`
	CallToAction   string `json:"callToAction"`
	DestinationUrl string `json:"destinationUrl"`
}

type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
	Total      int        `json:"total"`
	Version    string     `json:"version"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error,omitempty"`
}
