package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/utils"
	"golang.org/x/time/rate"
)

// RateLimiter -> sliding window per IP
type RateLimiter struct {
	rate      int
	interval  time.Duration
	ips       map[string][]time.Time
	lastSweep time.Time
	mu        sync.Mutex
}

func NewRateLimiter(rate int, interval int) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: time.Duration(interval) * time.Second,
		ips:      make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.interval)
	if now.Sub(rl.lastSweep) >= rl.interval {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := make([]time.Time, 0, len(rl.ips[ip])+1)
	for _, t := range rl.ips[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.rate {
		rl.ips[ip] = valid
		return false
	}

	rl.ips[ip] = append(valid, now)
	return true
}

// sweep membuang IP yang request terakhirnya sudah di luar window
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for ip, hits := range rl.ips {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.ips, ip)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.ips)
}

const (
	loginAttempts = 5
	loginWindow   = time.Minute
	// setelah diam selama ini bucket sudah penuh lagi, entry boleh dibuang
	loginIdleTTL = 2 * loginWindow
)

type loginEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter -> token bucket per IP untuk endpoint login
type loginLimiter struct {
	mu        sync.Mutex
	entries   map[string]*loginEntry
	lastSweep time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{entries: make(map[string]*loginEntry)}
}

func (l *loginLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= loginIdleTTL {
		for key, e := range l.entries {
			if now.Sub(e.lastSeen) >= loginIdleTTL {
				delete(l.entries, key)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &loginEntry{limiter: rate.NewLimiter(rate.Every(loginWindow/loginAttempts), loginAttempts)}
		l.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *loginLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// NewStrictRateLimiter untuk endpoint login: 5 percobaan per menit per IP
func NewStrictRateLimiter() gin.HandlerFunc {
	limiter := newLoginLimiter()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.allow(ip, time.Now()) {
			utils.InfoLogger.WithField("ip", ip).Warn("Login rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Too many attempts, please wait a moment",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
