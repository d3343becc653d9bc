package videos

import "time"

const (
	// collection name
	videoProductsNode string = "videoProducts"

	// Fields' name and path
	IdFieldPath        string = "productId"
	TitleFieldPath     string = "title"
	VideoUrlFieldPath  string = "videoUrl"
	CreatedAtFieldPath string = "createdAt"
	UpdatedAtFieldPath string = "updatedAt"

	// Only used for error events, snapshots are delivered with a blocking send
	channelWriteTimeout time.Duration = time.Second * 3
)
