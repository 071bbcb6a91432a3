package fetcher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/utils"
)

// Result is a resolved display name.
type Result struct {
	Name string `json:"name"`
}

// Fetcher resolves a listing URL to its display name. Failures are
// *domain.FetchError values.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Result, error)
}

// transientMarkers are error message fragments that indicate a CORS or
// network shaped failure rather than a definitive answer from the site.
var transientMarkers = []string{
	"CORS",
	"Failed to fetch",
	"Access to fetch",
	"Access-Control-Allow-Origin",
	"Cross-Origin Request Blocked",
	"net::ERR_FAILED",
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"EOF",
}

// IsTransientMessage reports whether msg matches one of the transient markers.
func IsTransientMessage(msg string) bool {
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// ClientOptions configures an HTTP metadata client.
type ClientOptions struct {
	Timeout   time.Duration // per request (default: 10s)
	UserAgent string        // optional
	ProxyURL  string        // optional, routes every request through this proxy
	Header    http.Header   // extra request headers
}

// Client fetches listing metadata over HTTP.
type Client struct {
	http      *http.Client
	userAgent string
	header    http.Header
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: opts.Timeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConnsPerHost: 4,
	}
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", opts.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent: opts.UserAgent,
		header:    opts.Header,
	}, nil
}

// Fetch requests the JSON metadata for rawURL.
//
// Transport errors and non-ok answers other than 4xx are transient;
// a 4xx answer or an unusable body is not.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Result, error) {
	target := ConvertToJSONURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return Result{}, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, &domain.FetchError{URL: rawURL, Err: err, Transient: isNetworkError(err)}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Result{}, &domain.FetchError{
			URL:       rawURL,
			Status:    resp.StatusCode,
			Err:       errors.New(http.StatusText(resp.StatusCode)),
			Transient: resp.StatusCode < 400 || resp.StatusCode > 499,
		}
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&doc); err != nil {
		return Result{}, &domain.FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("invalid metadata: %w", err)}
	}

	name := ExtractName(doc)
	if name == "" {
		return Result{}, &domain.FetchError{URL: rawURL, Status: resp.StatusCode, Err: errors.New("no name in metadata")}
	}
	return Result{Name: name}, nil
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return IsTransientMessage(err.Error())
}
