package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// PrincipalHeader carries the authenticated user ID. Session handling lives in
// front of this service; I only read what the gateway forwards.
const PrincipalHeader = "X-User-ID"

const principalKey = "principal"

// Principal copies the caller's identity from PrincipalHeader into the context.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := strings.TrimSpace(c.GetHeader(PrincipalHeader)); p != "" {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

// principal returns the caller set by Principal, or "" for anonymous requests.
func principal(c *gin.Context) string {
	return c.GetString(principalKey)
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("module", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors.Last())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPLimiter(perMinute, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (l *ipLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// RateLimit throttles a route per client IP. perMinute <= 0 disables it.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	lim := newIPLimiter(perMinute, burst)
	return func(c *gin.Context) {
		if !lim.getLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "too many uploads, try again later",
			})
			return
		}
		c.Next()
	}
}
