package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"merritt/config"
	"merritt/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, []string{"192.0.2.0/24"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthAdminMiddleware(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = "" })

	r := gin.New()
	r.GET("/admin", JWTAuthAdminMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("adminEmail"))
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	member, err := utils.GenerateToken("someone@example.com", "member", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+member).Code)

	admin, err := utils.GenerateToken("manager@example.com", "admin", time.Hour)
	require.NoError(t, err)
	w := call("Bearer " + admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "manager@example.com", w.Body.String())
}

func TestLimiterKey_IgnoresGarbageHeaders(t *testing.T) {
	trusted := parseTrustedProxies([]string{"192.0.2.10"})
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.10:5123"
	c.Request.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "192.0.2.10", limiterKey(c, trusted))

	c.Request.Header.Set("X-Forwarded-For", " 2001:db8::1 , 10.0.0.1")
	assert.Equal(t, "2001:db8::1", limiterKey(c, trusted))
}

func TestLimiterKey_UntrustedPeerCannotSpoofForwardingHeaders(t *testing.T) {
	trusted := parseTrustedProxies([]string{"10.0.0.0/8"})
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.50:40000"
	c.Request.Header.Set("X-Forwarded-For", "198.51.100.1")
	c.Request.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "203.0.113.50", limiterKey(c, trusted))
	assert.Equal(t, "203.0.113.50", limiterKey(c, nil))

	// Rotating the header does not mint fresh buckets.
	r := gin.New()
	r.Use(RateLimitMiddleware(1, nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	codes := make([]int, 0, 2)
	for _, spoof := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.50:40000"
		req.Header.Set("X-Forwarded-For", spoof)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterStore_EvictsIdleClients(t *testing.T) {
	store := newRateLimiterStore(10, nil)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	store.getLimiter("198.51.100.1")
	store.getLimiter("198.51.100.2")
	require.Equal(t, 2, store.size())

	clock = clock.Add(5 * time.Minute)
	store.getLimiter("198.51.100.2")

	clock = clock.Add(limiterIdleTTL)
	store.getLimiter("198.51.100.3")
	assert.Equal(t, 2, store.size(), "the client idle past the TTL is dropped")

	clock = clock.Add(limiterIdleTTL + time.Second)
	store.getLimiter("198.51.100.3")
	assert.Equal(t, 1, store.size())
}

func TestParseTrustedProxies_SkipsInvalidEntries(t *testing.T) {
	nets := parseTrustedProxies([]string{"10.0.0.0/8", "", "::1", "bogus", "192.0.2.7"})
	require.Len(t, nets, 3)
	assert.True(t, isTrusted(net.ParseIP("10.1.2.3"), nets))
	assert.True(t, isTrusted(net.ParseIP("::1"), nets))
	assert.True(t, isTrusted(net.ParseIP("192.0.2.7"), nets))
	assert.False(t, isTrusted(net.ParseIP("192.0.2.8"), nets))
}
