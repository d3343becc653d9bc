package api

import (
	"io"
	"net/http"
	"time"

	"go-shopfeed/internal/eventpublisher/event"
	"go-shopfeed/internal/interaction"

	"github.com/gin-gonic/gin"
)

const (
	keepAliveInterval = time.Second * 15
	subscriberBuffer  = 8
)

func startStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

// streamEvents writes every event from ch as a server-sent event until the
// client goes away or ch is closed. Events with a sequence number not above
// lastSeq are skipped.
func streamEvents(c *gin.Context, ch <-chan event.Event, lastSeq uint64) {
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UnixMilli())
			return true
		case e, ok := <-ch:
			if !ok {
				return false
			}
			if e.Seq <= lastSeq {
				return true
			}
			lastSeq = e.Seq
			c.SSEvent(e.Type.String(), e.Message)
			return true
		}
	})
}

func (h *Handler) StreamFeed(c *gin.Context) {
	ch := make(chan event.Event, subscriberBuffer)
	h.feed.Subscribe(ch)
	defer h.feed.Unsubscribe(ch)

	startStream(c)

	state := h.feed.State()
	c.SSEvent(event.FeedUpdated.String(), state)
	c.Writer.Flush()

	streamEvents(c, ch, state.Seq)
}

// StreamComments runs a comment store for the lifetime of the request.
func (h *Handler) StreamComments(c *gin.Context) {
	store := interaction.NewCommentStore(h.comments, c.Param("id"))

	ch := make(chan event.Event, subscriberBuffer)
	store.Subscribe(ch)
	defer store.Unsubscribe(ch)
	go store.Start(c.Request.Context())

	startStream(c)
	streamEvents(c, ch, 0)
}

func (h *Handler) StreamStats(c *gin.Context) {
	ctx := c.Request.Context()
	statsCh := h.stats.Watch(ctx, c.Param("id"), userFrom(c).Id)

	startStream(c)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UnixMilli())
			return true
		case e, ok := <-statsCh:
			if !ok {
				return false
			}
			if e.Err != nil {
				c.SSEvent("error", gin.H{"error": "Failed to load stats"})
				return true
			}
			c.SSEvent(event.StatsUpdated.String(), e.Stats)
			return true
		}
	})
}
