package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	l := NewLimiter(max, window)
	t.Cleanup(l.Close)
	clock := &fakeClock{t: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
	l.now = clock.now
	return l, clock
}

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{"http://a.test/", "chrome-extension://*", " "})
	tests := map[string]bool{
		"http://a.test":             true,
		"http://b.test":             false,
		"chrome-extension://abcdef": true,
		"chrome-extension://":       false,
		"moz-extension://abcdef":    false,
		"":                          false,
	}
	for origin, want := range tests {
		if got := p.Allows(origin); got != want {
			t.Errorf("Allows(%q) = %v, want %v", origin, got, want)
		}
	}
	if !NewOriginPolicy([]string{"*"}).Allows("http://anything.test") {
		t.Error("wildcard policy rejected an origin")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"listed origin", []string{"http://a.test"}, "http://a.test", "http://a.test"},
		{"unlisted origin", []string{"http://a.test"}, "http://b.test", ""},
		{"extension prefix", []string{"chrome-extension://*"}, "chrome-extension://abc", "chrome-extension://abc"},
		{"no origin header", []string{"*"}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(CORS(tt.allowed))
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
			if w.Header().Get("Access-Control-Allow-Methods") != "" {
				t.Error("simple request should not carry preflight headers")
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(CORS([]string{"http://a.test"}))
	r.OPTIONS("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://a.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Max-Age") != preflightMaxAge || w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Errorf("preflight headers = %v", w.Header())
	}
}

func TestLimiterMiddleware(t *testing.T) {
	l, _ := newTestLimiter(t, 2, time.Hour)
	r := newRouter(l.Middleware(ByClientIP))
	codes := make([]int, 3)
	var last *httptest.ResponseRecorder
	for i := range codes {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes[i] = last.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
	// one token every 30 minutes
	if got := last.Header().Get("Retry-After"); got != "1800" {
		t.Errorf("Retry-After = %q, want 1800", got)
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l, clock := newTestLimiter(t, 1, time.Minute)
	if ok, _ := l.Allow("ada"); !ok {
		t.Fatal("first request rejected")
	}
	if ok, wait := l.Allow("ada"); ok || (wait-time.Minute).Abs() > time.Second {
		t.Errorf("second request = %v, wait %s", ok, wait)
	}
	if ok, _ := l.Allow("bob"); !ok {
		t.Error("another key shared the bucket")
	}
	clock.t = clock.t.Add(time.Minute + time.Second)
	if ok, _ := l.Allow("ada"); !ok {
		t.Error("token did not refill after the window")
	}
}

func TestLimiterRejectionDoesNotSpendToken(t *testing.T) {
	l, clock := newTestLimiter(t, 1, time.Minute)
	l.Allow("ada")
	for i := 0; i < 5; i++ {
		l.Allow("ada")
	}
	clock.t = clock.t.Add(time.Minute + time.Second)
	if ok, _ := l.Allow("ada"); !ok {
		t.Error("rejected requests pushed the refill back")
	}
}

func TestLimiterSweep(t *testing.T) {
	l, clock := newTestLimiter(t, 5, time.Minute)
	l.Allow("old")
	clock.t = clock.t.Add(2 * time.Minute)
	l.Allow("fresh")
	if removed := l.Sweep(); removed != 0 {
		t.Errorf("swept %d buckets before idle timeout", removed)
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if removed := l.Sweep(); removed != 1 || l.Len() != 1 {
		t.Errorf("removed %d, %d left; want 1 and 1", removed, l.Len())
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, time.Minute)
	if l != nil {
		t.Fatal("zero limit should disable the limiter")
	}
	l.Close()
	r := newRouter(l.Middleware(ByClientIP))
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
}

func TestSecureHeaders(t *testing.T) {
	r := newRouter(Secure())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-store",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS sent over plain http")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing behind a TLS proxy")
	}
}
