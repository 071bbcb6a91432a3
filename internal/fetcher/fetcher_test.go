package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func TestExtractItemID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://booth.pm/ja/items/12345", "12345"},
		{"https://shop.booth.pm/items/678?foo=bar", "678"},
		{"http://booth.pm/items/9#top", "9"},
		{"https://example.com/items/12345", ""},
		{"https://booth.pm/ja/items/abc", ""},
	}
	for _, tt := range tests {
		if got := ExtractItemID(tt.url); got != tt.want {
			t.Errorf("ExtractItemID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFindListings(t *testing.T) {
	text := "see https://shop.booth.pm/items/12?ref=x and https://booth.pm/en/items/34#top, not https://example.com/items/56"
	got := FindListings(text)
	want := []ListingRef{
		{URL: "https://shop.booth.pm/items/12", ID: "12"},
		{URL: "https://booth.pm/en/items/34", ID: "34"},
	}
	if len(got) != len(want) {
		t.Fatalf("FindListings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FindListings()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestConvertToJSONURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.booth.pm/items/678", "https://booth.pm/ja/items/678.json"},
		{"http://127.0.0.1:8080/items/5?x=1", "http://127.0.0.1:8080/items/5.json"},
		{"http://127.0.0.1:8080/items/5.json", "http://127.0.0.1:8080/items/5.json"},
	}
	for _, tt := range tests {
		if got := ConvertToJSONURL(tt.url); got != tt.want {
			t.Errorf("ConvertToJSONURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{"top level", map[string]any{"name": " Hat ", "title": "ignored"}, "Hat"},
		{"nested", map[string]any{"item": map[string]any{"name": "Cap"}}, "Cap"},
		{"title", map[string]any{"title": "Beret"}, "Beret"},
		{"none", map[string]any{"price": 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractName(tt.doc); got != tt.want {
				t.Errorf("ExtractName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTransientMessage(t *testing.T) {
	if !IsTransientMessage("TypeError: Failed to fetch") {
		t.Error("Failed to fetch should be transient")
	}
	if !IsTransientMessage("blocked by CORS policy") {
		t.Error("CORS should be transient")
	}
	if IsTransientMessage("invalid metadata") {
		t.Error("invalid metadata should not be transient")
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/items/1.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Wool Hat"}`))
	})
	mux.HandleFunc("/items/2.json", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/items/3.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/items/4.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price":100}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetch(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(ClientOptions{Timeout: 2 * time.Second, UserAgent: "shelf-test"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	res, err := c.Fetch(context.Background(), srv.URL+"/items/1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Name != "Wool Hat" {
		t.Errorf("Fetch() name = %q", res.Name)
	}

	tests := []struct {
		path      string
		status    int
		transient bool
	}{
		{"/items/2", http.StatusNotFound, false},
		{"/items/3", http.StatusBadGateway, true},
		{"/items/4", http.StatusOK, false},
	}
	for _, tt := range tests {
		_, err := c.Fetch(context.Background(), srv.URL+tt.path)
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Fetch(%s) error = %v, want FetchError", tt.path, err)
		}
		if fe.Status != tt.status || fe.Transient != tt.transient {
			t.Errorf("Fetch(%s) = status %d transient %v, want %d %v", tt.path, fe.Status, fe.Transient, tt.status, tt.transient)
		}
	}
}

func TestClientFetchNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, _ := NewClient(ClientOptions{Timeout: time.Second})
	_, err := c.Fetch(context.Background(), addr+"/items/1")
	if !domain.IsTransient(err) {
		t.Errorf("Fetch() against a closed server should be transient, got %v", err)
	}
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	if _, err := NewClient(ClientOptions{ProxyURL: "://nope"}); err == nil {
		t.Error("NewClient() should reject an invalid proxy url")
	}
}

type stubFetcher struct {
	res   Result
	err   error
	delay time.Duration
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, _ string) (Result, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.res, s.err
}

func TestPolicy(t *testing.T) {
	log := logger.New("error", false)
	transient := &domain.FetchError{URL: "u", Err: errors.New("Failed to fetch"), Transient: true}
	notFound := &domain.FetchError{URL: "u", Status: 404, Err: errors.New("Not Found")}

	t.Run("direct success skips fallback", func(t *testing.T) {
		fb := &stubFetcher{res: Result{Name: "fb"}}
		p := NewPolicy(&stubFetcher{res: Result{Name: "direct"}}, fb, time.Second, log)
		res, err := p.Fetch(context.Background(), "u")
		if err != nil || res.Name != "direct" || fb.calls != 0 {
			t.Errorf("Fetch() = %v, %v, fallback calls %d", res, err, fb.calls)
		}
	})

	t.Run("transient uses fallback", func(t *testing.T) {
		fb := &stubFetcher{res: Result{Name: "fb"}}
		p := NewPolicy(&stubFetcher{err: transient}, fb, time.Second, log)
		res, err := p.Fetch(context.Background(), "u")
		if err != nil || res.Name != "fb" {
			t.Errorf("Fetch() = %v, %v", res, err)
		}
	})

	t.Run("non transient is surfaced", func(t *testing.T) {
		fb := &stubFetcher{res: Result{Name: "fb"}}
		p := NewPolicy(&stubFetcher{err: notFound}, fb, time.Second, log)
		_, err := p.Fetch(context.Background(), "u")
		if !errors.Is(err, notFound) || fb.calls != 0 {
			t.Errorf("Fetch() error = %v, fallback calls %d", err, fb.calls)
		}
	})

	t.Run("fallback loses the race", func(t *testing.T) {
		fb := &stubFetcher{res: Result{Name: "late"}, delay: 200 * time.Millisecond}
		p := NewPolicy(&stubFetcher{err: transient}, fb, 20*time.Millisecond, log)
		_, err := p.Fetch(context.Background(), "u")
		if !errors.Is(err, ErrFallbackTimeout) {
			t.Errorf("Fetch() error = %v, want ErrFallbackTimeout", err)
		}
	})

	t.Run("no fallback configured", func(t *testing.T) {
		p := NewPolicy(&stubFetcher{err: transient}, nil, time.Second, log)
		_, err := p.Fetch(context.Background(), "u")
		if !domain.IsTransient(err) {
			t.Errorf("Fetch() error = %v", err)
		}
	})
}
