package feed

import "time"

const (
	writeTimeout    = time.Second
	maxMissedWrites = 3

	defaultPageSize = 10

	errVideosConnection = "Failed to connect to database"
	errVideosDecode     = "Failed to load videos"
	errAdsConnection    = "Failed to connect to ads database"
	errAdsDecode        = "Failed to load ads"
)
