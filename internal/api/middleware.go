package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-shopfeed/internal/database"
	"go-shopfeed/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	userIdHeader     = "X-User-Id"
	userNameHeader   = "X-User-Name"
	userAvatarHeader = "X-User-Avatar"

	userContextKey = "user"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var e *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			e = log.Error()
		case status >= http.StatusBadRequest:
			e = log.Warn()
		default:
			e = log.Debug()
		}

		e.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", getClientIP(c)).
			Msg("request")
	}
}

// currentUser resolves the acting user from the request headers and falls back
// to the configured demo user.
func (h *Handler) currentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := h.demoUser
		if id := strings.TrimSpace(c.GetHeader(userIdHeader)); id != "" {
			// the id becomes a tree key
			if !database.IsKey(id) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + userIdHeader})
				return
			}
			user = model.User{
				Id:     id,
				Name:   strings.TrimSpace(c.GetHeader(userNameHeader)),
				Avatar: strings.TrimSpace(c.GetHeader(userAvatarHeader)),
			}
			if user.Name == "" {
				user.Name = id
			}
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func userFrom(c *gin.Context) model.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(model.User); ok {
			return user
		}
	}
	return model.User{}
}

// rateLimiter holds one token bucket per client ip.
type rateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// newRateLimiter returns a disabled limiter when perMinute is not positive.
func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		return &rateLimiter{limit: rate.Inf}
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *rateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit == rate.Inf {
			c.Next()
			return
		}

		ip := getClientIP(c)
		if !l.get(ip).Allow() {
			log.Warn().Str("ip", ip).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}

func getClientIP(c *gin.Context) string {
	// The header may contain a comma-separated list of IPs. Use the first one.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
