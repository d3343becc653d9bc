package interaction

import "time"

const (
	writeTimeout    = time.Second
	maxMissedWrites = 3

	errCommentsConnection = "Failed to connect to database"
	errCommentsDecode     = "Failed to load comments"
)
