package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagewarden/pagewarden/pkg/detect"
	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// Strategy identifies which extraction path produced a snapshot.
type Strategy string

const (
	StrategyPrimary  Strategy = "primary"  // scripted DOM read, full signals
	StrategyFallback Strategy = "fallback" // plain fetch, reduced signals
	StrategyMinimal  Strategy = "minimal"  // URL metadata only, no network
)

// Body sample caps per strategy. The prompt builder truncates again at its
// own limit; these bound how much page text is held in memory at all.
const (
	primaryBodyCap  = 5000
	fallbackBodyCap = 2000
)

// Extractor produces a PageSnapshot from a scan request, stepping down
// through strategies until one succeeds.
type Extractor struct {
	reader PageReader
	logger *slog.Logger
}

// NewExtractor wires an extractor over the given reader.
func NewExtractor(reader PageReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{reader: reader, logger: logger}
}

// Extract builds the snapshot for one scan. The returned Strategy records
// which path succeeded; callers surface a degradation notice for anything
// below primary. ErrExtractionFailed is returned only when even the
// minimal strategy cannot produce a snapshot.
func (e *Extractor) Extract(ctx context.Context, req *snapshot.ScanRequest) (*snapshot.PageSnapshot, Strategy, error) {
	parts, urlErr := snapshot.ParseURL(req.URL)

	if e.reader.CanExecuteScripts() && urlErr == nil {
		snap, err := e.primary(ctx, req.URL, parts)
		if err == nil {
			return snap, StrategyPrimary, nil
		}
		e.logger.Warn("primary extraction failed, stepping down",
			"url", req.URL, "error", err)
	}

	if urlErr == nil {
		snap, err := e.fallback(ctx, req.URL, parts)
		if err == nil {
			return snap, StrategyFallback, nil
		}
		e.logger.Warn("fallback extraction failed, stepping down",
			"url", req.URL, "error", err)
	}

	snap, err := e.minimal(req)
	if err != nil {
		return nil, "", ErrExtractionFailed
	}
	return snap, StrategyMinimal, nil
}

// primary runs the scripted capture and analyzes the rendered DOM.
func (e *Extractor) primary(ctx context.Context, url string, parts snapshot.URLParts) (*snapshot.PageSnapshot, error) {
	capture, err := e.reader.ReadDOM(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(capture.HTML))
	if err != nil {
		return nil, err
	}

	body := extractBodyText(doc, primaryBodyCap)
	title := capture.Title
	if title == "" {
		title = docTitle(doc)
	}

	return &snapshot.PageSnapshot{
		Title:           title,
		MetaDescription: metaDescription(doc),
		BodyText:        body,
		Signals:         analyzeSignals(doc, parts, true),
		Forms:           extractForms(doc),
		URL:             parts,
		Content:         detect.AnalyzeContent(body),
	}, nil
}

// fallback fetches the raw source without script execution. External-link
// counting, redirect indicators, and content-flag analysis are omitted:
// unrendered source makes them unreliable.
func (e *Extractor) fallback(ctx context.Context, url string, parts snapshot.URLParts) (*snapshot.PageSnapshot, error) {
	html, err := e.reader.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	return &snapshot.PageSnapshot{
		Title:           docTitle(doc),
		MetaDescription: metaDescription(doc),
		BodyText:        extractBodyText(doc, fallbackBodyCap),
		Signals:         analyzeSignals(doc, parts, false),
		Forms:           extractForms(doc),
		URL:             parts,
	}, nil
}

// minimal builds a snapshot from the request alone: URL components plus the
// host's last-known title. No network access.
func (e *Extractor) minimal(req *snapshot.ScanRequest) (*snapshot.PageSnapshot, error) {
	parts, err := snapshot.ParseURL(req.URL)
	if err != nil || parts.Hostname == "" {
		return nil, ErrExtractionFailed
	}
	return &snapshot.PageSnapshot{
		Title: req.KnownTitle,
		URL:   parts,
		Signals: snapshot.SignalSet{
			HTTPS: parts.Protocol == "https",
		},
	}, nil
}
