package comments

import "time"

const (
	// collection name
	commentsNode string = "comments"

	// child nodes of a comment
	repliesNode string = "replies"
	likesNode   string = "likes"

	channelWriteTimeout time.Duration = time.Second * 3
)
