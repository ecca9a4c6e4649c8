package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(t *testing.T, limiter gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limiter)
	router.GET("/api/oauth/start/:provider", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func hit(router http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/oauth/start/github", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewMemoryRateLimiter(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(5)
	require.NoError(t, err)
	require.NotNil(t, limiter)

	router := limitedRouter(t, limiter)

	for i := 0; i < 5; i++ {
		w := hit(router, "192.168.1.100")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	w := hit(router, "192.168.1.100")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "Request should be rate limited")
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 2,
		StoreType:         RateLimitStoreMemory,
	})
	require.NoError(t, err)

	router := limitedRouter(t, limiter)

	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		for i := 0; i < 2; i++ {
			w := hit(router, ip)
			assert.Equal(t, http.StatusOK, w.Code, "Request %d from IP %s should succeed", i+1, ip)
		}

		w := hit(router, ip)
		assert.Equal(
			t,
			http.StatusTooManyRequests,
			w.Code,
			"Third request from IP %s should be rate limited",
			ip,
		)
	}
}

func TestRateLimiter_ErrorResponse(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 1,
		StoreType:         RateLimitStoreMemory,
	})
	require.NoError(t, err)

	router := limitedRouter(t, limiter)
	require.Equal(t, http.StatusOK, hit(router, "10.0.0.9").Code)

	// Browsers get JSON too; the dashboard renders the message
	req := httptest.NewRequest(http.MethodGet, "/api/oauth/start/github", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.NotEmpty(t, body["error_description"])

	// Rate limit headers are set by the limiter middleware
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestNewRateLimiter_RedisRequiresClient(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 10,
		StoreType:         RateLimitStoreRedis,
	})
	require.Error(t, err)
	assert.Nil(t, limiter)
}

// TestRedisRateLimiter_SharedClient simulates two pods sharing one Redis.
// Requires a Redis server on localhost:6379; skipped otherwise.
func TestRedisRateLimiter_SharedClient(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis test in short mode")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	prefix := "test:start:" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})

	newLimiter := func() gin.HandlerFunc {
		l, err := NewRateLimiter(RateLimitConfig{
			RequestsPerMinute: 3,
			StoreType:         RateLimitStoreRedis,
			RedisClient:       client,
			Prefix:            prefix,
			CleanupInterval:   time.Minute,
		})
		require.NoError(t, err)
		return l
	}

	pod1 := limitedRouter(t, newLimiter())
	pod2 := limitedRouter(t, newLimiter())

	assert.Equal(t, http.StatusOK, hit(pod1, "172.16.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(pod2, "172.16.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(pod1, "172.16.0.1").Code)

	// The fourth request is limited regardless of which pod serves it
	assert.Equal(t, http.StatusTooManyRequests, hit(pod2, "172.16.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(pod1, "172.16.0.1").Code)

	// Another client is unaffected
	assert.Equal(t, http.StatusOK, hit(pod2, "172.16.0.2").Code)
}
