package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func TestIPRateLimiter_BurstThenReject(t *testing.T) {
	t.Parallel()

	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Fatalf("first two requests codes=%v, want 204", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request code=%d, want %d", codes[2], http.StatusTooManyRequests)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "198.51.100.8:1234"
	if !l.Allow(other) {
		t.Fatalf("a different IP must have its own bucket")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:80"
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("ClientIP=%q", got)
	}

	req.RemoteAddr = ""
	if got := ClientIP(req); got != "unknown_ip" {
		t.Fatalf("ClientIP=%q, want unknown_ip", got)
	}
}
