package likes

import "time"

const (
	// collection name
	likesNode string = "likes"

	channelWriteTimeout time.Duration = time.Second * 3
)
