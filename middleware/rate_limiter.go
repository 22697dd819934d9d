package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL is how long an address may stay quiet before its bucket is dropped.
	limiterIdleTTL = 10 * time.Minute
	limiterSweep   = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of client addresses to their rate limiters.
type rateLimiterStore struct {
	limiters  map[string]*visitor
	perMin    int
	trusted   []*net.IPNet
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func newRateLimiterStore(perMin int, trustedProxies []string) *rateLimiterStore {
	if perMin <= 0 {
		perMin = 200
	}
	return &rateLimiterStore{
		limiters: make(map[string]*visitor),
		perMin:   perMin,
		trusted:  parseTrustedProxies(trustedProxies),
		now:      time.Now,
	}
}

// getLimiter returns the rate limiter for a given address, creating one if it doesn't
// exist. Idle buckets are swept at most once per limiterSweep.
func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterSweep {
		for k, v := range s.limiters {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	v, exists := s.limiters[key]
	if !exists {
		// perMin requests per minute, all of which may arrive in a burst.
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (s *rateLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimitMiddleware limits requests per client address. Forwarding headers are only
// honoured when the socket peer is one of trustedProxies (IPs or CIDRs).
func RateLimitMiddleware(perMin int, trustedProxies []string) gin.HandlerFunc {
	return rateLimit(newRateLimiterStore(perMin, trustedProxies))
}

func rateLimit(store *rateLimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()
		ip := limiterKey(c, store.trusted)
		limiter := store.getLimiter(ip)
		if !limiter.Allow() {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}

func parseTrustedProxies(entries []string) []*net.IPNet {
	var out []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil && ip.To4() != nil {
				e += "/32"
			} else {
				e += "/128"
			}
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			zap.L().Warn("Ignoring invalid trusted proxy", zap.String("entry", e), zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out
}

// limiterKey is the caller's address. Behind a trusted proxy that is the first valid
// X-Forwarded-For entry, then X-Real-IP; otherwise it is always the socket peer.
func limiterKey(c *gin.Context, trusted []*net.IPNet) string {
	peer := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !isTrusted(net.ParseIP(peer), trusted) {
		return peer
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(c.GetHeader("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return peer
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
