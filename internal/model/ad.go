package model

type AdType string

const (
	AdTypeVideo AdType = "video"
	AdTypeImage AdType = "image"
)

type Advertisement struct {
	AdId           string      `json:"adId"`
	AdType         AdType      `json:"adType"`
	Title          string      `json:"title"`
	MediaUrl       string      `json:"mediaUrl"`
	CallToAction   string      `json:"callToAction"`
	DestinationUrl string      `json:"destinationUrl"`
	IsActive       bool        `json:"isActive"`
	Analytics      AdAnalytics `json:"analytics"`
	CreatedAt      int64       `json:"createdAt"`
	UpdatedAt      int64       `json:"updatedAt"`
}

type AdAnalytics struct {
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Conversions    int64   `json:"conversions"`
	Ctr            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversionRate"`
}

// ClickThroughRate is derived from the counters, the stored ctr field is only
// maintained by the external admin system.
func (a AdAnalytics) ClickThroughRate() float64 {
	if a.Impressions == 0 {
		return 0
	}
	return float64(a.Clicks) / float64(a.Impressions)
}

// AdCounts is a pending analytics delta.
type AdCounts struct {
	Impressions int64
	Clicks      int64
}

func (c AdCounts) IsZero() bool {
	return c.Impressions == 0 && c.Clicks == 0
}
