package middlewares

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, 1)
	now := time.Now()

	assert.True(t, rl.allow("1.1.1.1", now))
	assert.True(t, rl.allow("1.1.1.1", now))
	assert.False(t, rl.allow("1.1.1.1", now))
	assert.True(t, rl.allow("2.2.2.2", now))

	assert.True(t, rl.allow("1.1.1.1", now.Add(1100*time.Millisecond)))
}

func TestStrictRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/login", NewStrictRateLimiter(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 200, 200, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterDropsIdleIPs(t *testing.T) {
	rl := NewRateLimiter(2, 1)
	now := time.Now()

	for i := 0; i < 50; i++ {
		assert.True(t, rl.allow(fmt.Sprintf("10.0.0.%d", i), now))
	}
	assert.Equal(t, 50, rl.size())

	assert.True(t, rl.allow("10.0.1.1", now.Add(2*time.Second)))
	assert.Equal(t, 1, rl.size())
}

func TestLoginLimiterDropsIdleIPs(t *testing.T) {
	l := newLoginLimiter()
	now := time.Now()

	for i := 0; i < loginAttempts; i++ {
		assert.True(t, l.allow("1.1.1.1", now))
	}
	assert.False(t, l.allow("1.1.1.1", now))
	assert.True(t, l.allow("2.2.2.2", now))
	assert.Equal(t, 2, l.size())

	later := now.Add(loginIdleTTL + time.Second)
	assert.True(t, l.allow("3.3.3.3", later))
	assert.Equal(t, 1, l.size())

	// IP lama mulai dari bucket penuh lagi
	assert.True(t, l.allow("1.1.1.1", later))
}
