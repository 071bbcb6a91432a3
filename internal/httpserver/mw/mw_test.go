package mw

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"shelf.local", "shelf.local", true},
		{"a.shelf.local", "*.shelf.local", true},
		{"shelf.local", "*.shelf.local", false},
		{"evilshelf.local", "*.shelf.local", false},
		{"other.local", "shelf.local", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Shelf.Local"}, logger.New("error", false))(okHandler)

	r := httptest.NewRequest("GET", "/api/stats", nil)
	r.Host = "shelf.local:8080"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("allowed host: status %d", rec.Code)
	}

	r.Host = "other.local"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign host: status %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["ok"] != false || body["code"] != "forbidden" {
		t.Errorf("body = %v", body)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.New("error", false)

	passthrough := AllowOnlyCIDRS(nil, false, log)(okHandler)
	r := httptest.NewRequest("GET", "/readyz", nil)
	r.RemoteAddr = "8.8.8.8:1234"
	rec := httptest.NewRecorder()
	passthrough.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("empty list should pass, got %d", rec.Code)
	}

	guarded := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, log)(okHandler)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outside address: status %d", rec.Code)
	}

	r.RemoteAddr = "10.1.2.3:1234"
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("inside address: status %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Clock:             func() time.Time { return now },
	})(okHandler)

	hit := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/api/stats", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := hit(); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}

	rec := hit()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	now = now.Add(time.Second)
	if rec := hit(); rec.Code != http.StatusNoContent {
		t.Fatalf("after refill: status %d", rec.Code)
	}
}

func TestIsProbe(t *testing.T) {
	if !isProbe("/healthz") || !isProbe("/readyz/") || isProbe("/api/stats") {
		t.Error("isProbe misclassified a path")
	}
}
