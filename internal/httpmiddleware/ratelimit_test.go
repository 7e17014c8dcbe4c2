package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))

	now = now.Add(5 * time.Second)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
}

func TestRedisWindowFallsBackWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisWindow(client, 10, NewSimpleTokenBucket(1, 1))
	ctx := context.Background()

	ok, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)

	noFallback := NewRedisWindow(client, 10, nil)
	ok, err = noFallback.Allow(ctx, "ip")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(NewSimpleTokenBucket(1, 1), func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "devagar"})
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"devagar"}`, w.Body.String())
}
