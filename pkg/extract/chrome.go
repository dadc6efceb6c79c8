package extract

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const browserUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`

// ChromeReader performs scripted page reads through a headless browser.
// Allocator contexts are pooled and reused across scans.
type ChromeReader struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
	fallback      *HTTPReader
}

// NewChromeReader creates a reader with a pre-warmed allocator pool.
func NewChromeReader(poolSize int, pageLoadTimeout time.Duration) *ChromeReader {
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(browserUserAgent),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}
	for i := 0; i < poolSize; i++ {
		allocCtx := pool.Get().(context.Context)
		pool.Put(allocCtx)
	}

	return &ChromeReader{
		allocatorPool: pool,
		timeout:       pageLoadTimeout,
		fallback:      NewHTTPReader(),
	}
}

func (r *ChromeReader) CanExecuteScripts() bool { return true }

// ReadDOM navigates to the URL and captures the rendered document.
// The capture records the main document's HTTP status via CDP network
// events rather than assuming success.
func (r *ChromeReader) ReadDOM(ctx context.Context, url string) (*DOMCapture, error) {
	allocCtx := r.allocatorPool.Get().(context.Context)
	defer r.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, r.timeout)
	defer cancel()

	var (
		statusMu   sync.Mutex
		statusCode int
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument {
				statusMu.Lock()
				if statusCode == 0 {
					statusCode = int(resp.Response.Status)
				}
				statusMu.Unlock()
			}
		}
	})

	var title, html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, err
	}

	statusMu.Lock()
	defer statusMu.Unlock()
	return &DOMCapture{Title: title, HTML: html, StatusCode: statusCode}, nil
}

// FetchHTML delegates to the plain-HTTP reader so a single ChromeReader
// serves both the primary and fallback strategies.
func (r *ChromeReader) FetchHTML(ctx context.Context, url string) (string, error) {
	return r.fallback.FetchHTML(ctx, url)
}
