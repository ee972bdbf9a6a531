package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"cargo-tracker/internal/config"
	"cargo-tracker/internal/logger"
	"cargo-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key (client IP or device ID).
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists = rl.limiters[key]
	if exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = limiter
	return limiter
}

// cleanup drops buckets that have refilled completely.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, limiter := range rl.limiters {
			if limiter.AllowN(time.Now(), rl.burst) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware limits API traffic per client IP. Requests to
// devicePaths are limited per reporting device instead, because a fleet
// usually shares a handful of carrier NAT addresses. WebSocket upgrades
// are not limited here; the channel applies its own flow control.
func RateLimitMiddleware(cfg config.RateLimitConfig, devicePaths ...string) gin.HandlerFunc {
	byIP := NewRateLimiter(cfg.GeneralRPS, cfg.GeneralBurst)
	byDevice := NewRateLimiter(cfg.DeviceRPS, cfg.DeviceBurst)

	ingest := make(map[string]struct{}, len(devicePaths))
	for _, p := range devicePaths {
		ingest[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if websocket.IsWebSocketUpgrade(c.Request) {
			c.Next()
			return
		}

		limiter, key, keyType := byIP, c.ClientIP(), "ip"
		if _, ok := ingest[c.Request.URL.Path]; ok {
			if id := peekDeviceID(c.Request); id != "" {
				limiter, key, keyType = byDevice, id, "device"
			}
		}

		if !limiter.getLimiter(key).Allow() {
			logger.Warn("Rate limit exceeded",
				zap.String("request_id", GetRequestID(c)),
				zap.String("key", key),
				zap.String("key_type", keyType),
				zap.String("path", c.Request.URL.Path),
			)

			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

// peekDeviceID reads the deviceId field of a JSON body and restores the
// body for the handler.
func peekDeviceID(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var msg struct {
		DeviceID string `json:"deviceId"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return ""
	}
	return msg.DeviceID
}
