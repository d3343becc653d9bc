package api

import (
	"errors"
	"net/http"
	"strconv"

	"go-shopfeed/internal/analytics"
	ierr "go-shopfeed/internal/errors"
	"go-shopfeed/internal/feed"
	"go-shopfeed/internal/interaction"
	"go-shopfeed/internal/model"
	adsRepo "go-shopfeed/internal/repository/ads"
	commentsRepo "go-shopfeed/internal/repository/comments"
	likesRepo "go-shopfeed/internal/repository/likes"
	videosRepo "go-shopfeed/internal/repository/videos"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Feed     feed.FeedService
	Videos   videosRepo.IRepository
	Ads      adsRepo.IRepository
	Likes    likesRepo.IRepository
	Comments commentsRepo.IRepository
	Tracker  analytics.Tracker
	DemoUser model.User
}

type Handler struct {
	feed     feed.FeedService
	videos   videosRepo.IRepository
	ads      adsRepo.IRepository
	likes    likesRepo.IRepository
	comments commentsRepo.IRepository
	stats    interaction.Stats
	tracker  analytics.Tracker
	demoUser model.User
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		feed:     deps.Feed,
		videos:   deps.Videos,
		ads:      deps.Ads,
		likes:    deps.Likes,
		comments: deps.Comments,
		stats:    interaction.NewStats(deps.Likes, deps.Comments),
		tracker:  deps.Tracker,
		demoUser: deps.DemoUser,
	}
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

type replyRequest struct {
	Text       string  `json:"text" binding:"required"`
	ReplyingTo *string `json:"replyingTo"`
}

// fail maps err to a status code. Anything that is not the caller's fault is
// logged and reported as 503.
func fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ierr.EmptyText), errors.Is(err, ierr.InvalidCursor), errors.Is(err, ierr.InvalidPath):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, ierr.NotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false})
	}
}

func (h *Handler) Health(c *gin.Context) {
	state := h.feed.State()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"loading": state.Loading,
		"items":   len(state.Items),
		"error":   state.Error,
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid limit"})
			return
		}
		limit = n
	}

	page, err := h.feed.Page(c.Query("cursor"), limit)
	if err != nil {
		fail(c, err, "failed to read feed")
		return
	}

	etag := `"` + page.Version + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.videos.List(c.Request.Context())
	if err != nil {
		fail(c, err, "failed to list videos")
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *Handler) GetVideo(c *gin.Context) {
	video, err := h.videos.GetById(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to get video")
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *Handler) ListAds(c *gin.Context) {
	ads, err := h.ads.List(c.Request.Context())
	if err != nil {
		fail(c, err, "failed to list ads")
		return
	}
	c.JSON(http.StatusOK, ads)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context(), c.Param("id"), userFrom(c).Id)
	if err != nil {
		fail(c, err, "failed to read video stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ToggleVideoLike(c *gin.Context) {
	liked, err := h.likes.Toggle(c.Request.Context(), c.Param("id"), userFrom(c))
	if err != nil {
		fail(c, err, "failed to toggle video like")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, interaction.Flatten(comments))
}

func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	comment, err := h.comments.AddComment(c.Request.Context(), c.Param("id"), userFrom(c), req.Text)
	if err != nil {
		fail(c, err, "failed to add comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

func (h *Handler) AddReply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	reply, err := h.comments.AddReply(c.Request.Context(), c.Param("id"), c.Param("commentId"), userFrom(c), req.Text, req.ReplyingTo)
	if err != nil {
		fail(c, err, "failed to add reply")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "reply": reply})
}

// ToggleCommentLike serves both comment and reply likes, replyId is empty for
// the former.
func (h *Handler) ToggleCommentLike(c *gin.Context) {
	target := commentsRepo.Target{
		VideoId:   c.Param("id"),
		CommentId: c.Param("commentId"),
		ReplyId:   c.Param("replyId"),
	}

	liked, err := h.comments.ToggleLike(c.Request.Context(), target, userFrom(c))
	if err != nil {
		fail(c, err, "failed to toggle comment like")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

func (h *Handler) TrackImpression(c *gin.Context) {
	h.tracker.TrackImpression(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) TrackClick(c *gin.Context) {
	h.tracker.TrackClick(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}
