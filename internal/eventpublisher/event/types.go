package event

type (
	EventType int

	// Event is published to subscribers. Seq grows with every publish of the
	// same publisher; subscribers drop events older than one already seen,
	// since concurrent deliveries may arrive out of order.
	Event struct {
		Type    EventType
		Seq     uint64
		Message interface{}
		Err     error
	}

	EventWChannel chan<- Event
)

const (
	FeedUpdated EventType = iota
	StatsUpdated
	CommentsUpdated
)

func (t EventType) String() string {
	switch t {
	case FeedUpdated:
		return "feed"
	case StatsUpdated:
		return "stats"
	case CommentsUpdated:
		return "comments"
	default:
		return "unknown"
	}
}
