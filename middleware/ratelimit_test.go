package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateGuard(t *testing.T) {
	// speed up TTL for test
	SetDuplicateTTL(50 * time.Millisecond)
	t.Cleanup(func() { SetDuplicateTTL(45 * time.Second) })
	key := "user-123"
	text := "Hello"

	assert.True(t, DuplicateGuard(key, text), "first call should pass")
	assert.False(t, DuplicateGuard(key, text+"  "), "immediate duplicate should be blocked")
	assert.True(t, DuplicateGuard(key, text+"!"), "different text should pass within TTL")
	assert.True(t, DuplicateGuard("user-456", text+"!"), "other keys are independent")

	time.Sleep(70 * time.Millisecond)
	assert.True(t, DuplicateGuard(key, text+"!"), "same text should pass after TTL")
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetRateLimitConfig(time.Hour, 2, 2)
	t.Cleanup(func() { SetRateLimitConfig(10*time.Second, 5, 2) })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserIDKey, uint(7))
		c.Next()
	})
	r.POST("/send", RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "3600", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestUserConcurrencyReleasesSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetRateLimitConfig(10*time.Second, 5, 1)

	r := gin.New()
	r.GET("/", UserConcurrency(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
