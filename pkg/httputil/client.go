// Package httputil provides shared HTTP utilities with connection pooling
// and safe response handling for the PageWarden pipeline.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default maximum size for reading HTTP response bodies.
// Scored pages and model replies are both untrusted input.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// Shared transport with optimized connection pooling.
// Safe for concurrent use; reuses TCP connections across scans.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines standard timeout categories for the calls this
// system makes.
type TimeoutTier int

const (
	// TierFast for quick operations like health checks (5s)
	TierFast TimeoutTier = iota
	// TierScoring for remote model scoring calls (12s per tier attempt).
	// The per-call bound is not mandated anywhere upstream; 12s keeps a
	// full walk of a three-tier chain under ~36s.
	TierScoring
	// TierPageFetch for fetching page HTML during fallback extraction (20s)
	TierPageFetch
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:      5 * time.Second,
	TierScoring:   12 * time.Second,
	TierPageFetch: 20 * time.Second,
}

// Singleton clients for each timeout tier - initialized once, reused everywhere.
var (
	clientFast      *http.Client
	clientScoring   *http.Client
	clientPageFetch *http.Client
	clientOnce      sync.Once
)

func initClients() {
	clientFast = &http.Client{
		Timeout:   timeoutDurations[TierFast],
		Transport: sharedTransport,
	}
	clientScoring = &http.Client{
		Timeout:   timeoutDurations[TierScoring],
		Transport: sharedTransport,
	}
	clientPageFetch = &http.Client{
		Timeout:   timeoutDurations[TierPageFetch],
		Transport: sharedTransport,
	}
}

// Client returns a shared HTTP client for the given timeout tier.
// These clients share a connection pool and should be used instead of
// creating new http.Client instances per request.
//
// Usage:
//
//	client := httputil.Client(httputil.TierScoring)
//	resp, err := client.Post(url, "application/json", body)
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierScoring:
		return clientScoring
	case TierPageFetch:
		return clientPageFetch
	default:
		return clientScoring
	}
}

// FastClient returns a client with 5s timeout (health checks).
func FastClient() *http.Client {
	return Client(TierFast)
}

// ScoringClient returns the client used for remote model scoring calls.
func ScoringClient() *http.Client {
	return Client(TierScoring)
}

// PageFetchClient returns the client used for plain-HTTP page fetches.
func PageFetchClient() *http.Client {
	return Client(TierPageFetch)
}

// ReadResponseBody safely reads an HTTP response body with size limits.
//
// Usage:
//
//	body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads the response body for error messages with a smaller
// limit (1MB) since error messages shouldn't be large.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose properly drains and closes an HTTP response body.
// This ensures connection reuse in the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
