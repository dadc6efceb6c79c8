// Package extract turns a live page into a normalized PageSnapshot.
//
// Three strategies exist in strict preference order: primary (scripted DOM
// read, full signal set), fallback (plain fetch, reduced signal set), and
// minimal (URL metadata only, no network). Each failure steps down one
// strategy; only all three failing is an extraction error.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pagewarden/pagewarden/pkg/httputil"
)

// ErrExtractionFailed is returned only when all three strategies fail.
// It is fatal: the scan aborts before any remote call.
var ErrExtractionFailed = errors.New("unable to read page")

// errScriptsUnavailable reports that a reader cannot run the scripted
// capture. Callers should query CanExecuteScripts instead of probing.
var errScriptsUnavailable = errors.New("script execution unavailable")

// DOMCapture is the raw output of a scripted page read.
type DOMCapture struct {
	Title      string
	HTML       string
	StatusCode int
}

// PageReader is the page-reading collaborator. Implementations must be
// read-only against the page and fail cleanly so the extractor can step
// down a strategy tier.
type PageReader interface {
	// ReadDOM performs a scripted capture of the rendered page.
	ReadDOM(ctx context.Context, url string) (*DOMCapture, error)

	// FetchHTML retrieves the page source without script execution.
	FetchHTML(ctx context.Context, url string) (string, error)

	// CanExecuteScripts reports whether ReadDOM is available at all.
	// This is an explicit capability query: callers decide the starting
	// strategy from it rather than probing ReadDOM for failure markers.
	CanExecuteScripts() bool
}

// HTTPReader reads pages over plain HTTP. It supports only the fallback
// extraction path.
type HTTPReader struct {
	client *http.Client
}

// NewHTTPReader creates a reader over the shared page-fetch client.
func NewHTTPReader() *HTTPReader {
	return &HTTPReader{client: httputil.PageFetchClient()}
}

func (r *HTTPReader) CanExecuteScripts() bool { return false }

func (r *HTTPReader) ReadDOM(ctx context.Context, url string) (*DOMCapture, error) {
	return nil, errScriptsUnavailable
}

func (r *HTTPReader) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
