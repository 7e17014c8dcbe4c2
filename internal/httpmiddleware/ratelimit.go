package httpmiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SimpleTokenBucket is an in-memory per-key token bucket.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewSimpleTokenBucket creates limiter with capacity tokens and rate per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *SimpleTokenBucket) Allow(_ context.Context, key string) (bool, error) {
	return l.allow(key), nil
}

func (l *SimpleTokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := l.now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// RedisWindow is a fixed one-minute window counter shared by all replicas.
// When redis fails it degrades to the in-memory fallback.
type RedisWindow struct {
	client   *redis.Client
	limit    int
	prefix   string
	fallback Limiter
	now      func() time.Time
}

func NewRedisWindow(client *redis.Client, perMinute int, fallback Limiter) *RedisWindow {
	return &RedisWindow{
		client:   client,
		limit:    perMinute,
		prefix:   "presenca:ratelimit:",
		fallback: fallback,
		now:      time.Now,
	}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / 60
	k := l.prefix + key + ":" + strconv.FormatInt(window, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		if l.fallback == nil {
			return true, err
		}
		slog.WarnContext(ctx, "rate limit: redis unavailable, using local limiter", "err", err)
		return l.fallback.Allow(ctx, key)
	}
	return incr.Val() <= int64(l.limit), nil
}

// GinMiddleware enforces per-IP limits. deny writes the 429 response; nil
// uses a plain JSON error. Limiter errors let the request through.
func GinMiddleware(l Limiter, deny gin.HandlerFunc) gin.HandlerFunc {
	if deny == nil {
		deny = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
		}
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rate limit check failed", "err", err)
		}
		if !ok {
			deny(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
