package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// UserHeader carries the report owner.
	UserHeader = "X-User-ID"

	userKey = "user_id"

	// limiterTTL is how long an unused limiter is kept.
	limiterTTL = time.Hour
)

// RequireUser rejects requests without a UserHeader and stores the user
// in the gin context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(UserHeader))
		if user == "" {
			abortWithError(c, http.StatusBadRequest, ErrCodeMissingUser, "missing "+UserHeader+" header")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// userID returns the user stored by RequireUser.
func userID(c *gin.Context) string {
	return c.GetString(userKey)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns per-user token bucket rate limiting middleware. The
// client IP is used when no user is set. A non-positive rps disables it.
// Limiters unused for an hour are evicted while new ones are created.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	var (
		mu        sync.Mutex
		limiters  = make(map[string]*limiterEntry)
		lastSweep = time.Now()
	)

	getLimiter := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastSweep) > limiterTTL {
			for id, entry := range limiters {
				if now.Sub(entry.lastSeen) > limiterTTL {
					delete(limiters, id)
				}
			}
			lastSweep = now
		}

		entry, ok := limiters[identity]
		if !ok {
			entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			limiters[identity] = entry
		}
		entry.lastSeen = now
		return entry.limiter
	}

	return func(c *gin.Context) {
		identity := userID(c)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !getLimiter(identity).Allow() {
			abortWithError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
