package api

import (
	"net/http"
	"time"

	"go-shopfeed/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewServer creates the gin engine with all routes configured
func NewServer(handler *Handler, cnf config.Http) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(requestLogger())
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cnf.AllowOrigins)))
	r.Use(handler.currentUser())

	setupRoutes(r, handler, newRateLimiter(cnf.RateLimitPerMinute, cnf.RateLimitBurst))

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "If-None-Match", userIdHeader, userNameHeader, userAvatarHeader},
		ExposeHeaders: []string{"ETag"},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

func setupRoutes(r *gin.Engine, h *Handler, limiter *rateLimiter) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/feed", h.GetFeed)
		api.GET("/feed/stream", h.StreamFeed)

		api.GET("/videos", h.ListVideos)
		api.GET("/videos/:id", h.GetVideo)
		api.GET("/videos/:id/stats", h.GetStats)
		api.GET("/videos/:id/stats/stream", h.StreamStats)
		api.GET("/videos/:id/comments", h.ListComments)
		api.GET("/videos/:id/comments/stream", h.StreamComments)

		api.GET("/ads", h.ListAds)
	}

	writes := api.Group("", limiter.middleware())
	{
		writes.POST("/videos/:id/like", h.ToggleVideoLike)
		writes.POST("/videos/:id/comments", h.AddComment)
		writes.POST("/videos/:id/comments/:commentId/replies", h.AddReply)
		writes.POST("/videos/:id/comments/:commentId/like", h.ToggleCommentLike)
		writes.POST("/videos/:id/comments/:commentId/replies/:replyId/like", h.ToggleCommentLike)

		writes.POST("/ads/:id/impression", h.TrackImpression)
		writes.POST("/ads/:id/click", h.TrackClick)
	}
}
