package ads

import "time"

const (
	// collection name
	advertisementsNode string = "advertisements"

	// Fields' name and path
	AnalyticsFieldPath   string = "analytics"
	ImpressionsFieldPath string = "impressions"
	ClicksFieldPath      string = "clicks"

	channelWriteTimeout time.Duration = time.Second * 3
)
