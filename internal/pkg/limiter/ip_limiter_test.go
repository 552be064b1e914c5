package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"rosterhub/internal/pkg/logx"
)

func TestMiddleware_LimitsPerIP(t *testing.T) {
	logx.Discard()

	l := NewIPRateLimiter(rate.Every(time.Hour), 2)
	t.Cleanup(l.Stop)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1000"))
}

func TestSweepRemovesIdleLimiters(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Millisecond), 1)
	t.Cleanup(l.Stop)

	l.GetLimiter("a").Allow()
	l.GetLimiter("b")

	removed, remaining := l.sweep(time.Now().Add(time.Second))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, remaining)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:443"
	assert.Equal(t, "192.0.2.7", ClientIP(r))

	r.RemoteAddr = "192.0.2.7"
	assert.Equal(t, "192.0.2.7", ClientIP(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(r))
}
