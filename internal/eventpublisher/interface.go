package eventpublisher

import (
	"go-shopfeed/internal/eventpublisher/event"
)

type Publisher interface {
	Subscribe(event.EventWChannel)
	Unsubscribe(event.EventWChannel)
}
