package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

const loginPage = `<html>
<head>
  <title>Acme Bank - Sign In</title>
  <meta name="description" content="Sign in to Acme Bank">
</head>
<body>
  <iframe src="https://ads.example.net/frame"></iframe>
  <a href="https://acme-bank.com/help">Help</a>
  <a href="https://elsewhere.example.org">Partner</a>
  <a href="/terms">Terms</a>
  <form action="/login" method="POST">
    <input type="email" name="email" required>
    <input type="password" name="password" required>
    <input type="hidden" name="csrf">
  </form>
  <div style="display:none">prize claim</div>
  <button onclick="window.open('https://popup.example.com')">Win</button>
  <script>if (expired) { window.location = "https://other.example.com"; }</script>
  URGENT: verify your account immediately or your account will be suspended!!!
  Act now!!! Limited time!!!
</body>
</html>`

type fakeReader struct {
	scripts  bool
	capture  *DOMCapture
	html     string
	domErr   error
	fetchErr error
}

func (f *fakeReader) CanExecuteScripts() bool { return f.scripts }

func (f *fakeReader) ReadDOM(ctx context.Context, url string) (*DOMCapture, error) {
	if f.domErr != nil {
		return nil, f.domErr
	}
	return f.capture, nil
}

func (f *fakeReader) FetchHTML(ctx context.Context, url string) (string, error) {
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.html, nil
}

func TestExtractPrimaryFullSignals(t *testing.T) {
	reader := &fakeReader{
		scripts: true,
		capture: &DOMCapture{Title: "Acme Bank - Sign In", HTML: loginPage, StatusCode: 200},
	}
	ex := NewExtractor(reader, nil)

	req := &snapshot.ScanRequest{URL: "https://acme-bank.com/login"}
	snap, strat, err := ex.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strat != StrategyPrimary {
		t.Fatalf("strategy = %q, want primary", strat)
	}
	if snap.Title != "Acme Bank - Sign In" {
		t.Errorf("title = %q", snap.Title)
	}
	sig := snap.Signals
	if !sig.HTTPS {
		t.Error("https flag must reflect the URL scheme")
	}
	if sig.IframeCount != 1 {
		t.Errorf("iframes = %d, want 1", sig.IframeCount)
	}
	if !sig.HasLoginForm {
		t.Error("password form must set HasLoginForm")
	}
	if sig.SensitiveInputCount != 2 {
		t.Errorf("sensitive inputs = %d, want 2 (email + password)", sig.SensitiveInputCount)
	}
	// acme-bank.com/help is same-host, /terms is relative
	if sig.ExternalLinkCount != 1 {
		t.Errorf("external links = %d, want 1", sig.ExternalLinkCount)
	}
	if sig.PopupTriggerCount != 1 {
		t.Errorf("popup triggers = %d, want 1", sig.PopupTriggerCount)
	}
	if sig.RedirectIndicators != 1 {
		t.Errorf("redirect indicators = %d, want 1", sig.RedirectIndicators)
	}
	if sig.HiddenElementCount != 1 {
		t.Errorf("hidden elements = %d, want 1", sig.HiddenElementCount)
	}
	if len(snap.Forms) != 1 || len(snap.Forms[0].Inputs) != 3 {
		t.Fatalf("forms = %+v", snap.Forms)
	}
	if snap.Forms[0].Method != "post" {
		t.Errorf("method = %q, want post", snap.Forms[0].Method)
	}
	if snap.Content.UrgencyTermCount == 0 {
		t.Error("urgency terms must be counted on the primary path")
	}
	if !snap.Content.ExcessivePunctuation {
		t.Error("repeated !!! runs must flag excessive punctuation")
	}
	if strings.Contains(snap.BodyText, "window.location") {
		t.Error("script text must not leak into the body sample")
	}
}

func TestExtractStepsDownToFallback(t *testing.T) {
	reader := &fakeReader{
		scripts: true,
		domErr:  errors.New("browser crashed"),
		html:    loginPage,
	}
	ex := NewExtractor(reader, nil)

	snap, strat, err := ex.Extract(context.Background(), &snapshot.ScanRequest{URL: "https://acme-bank.com/login"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strat != StrategyFallback {
		t.Fatalf("strategy = %q, want fallback", strat)
	}
	// Reduced signal set: these stay zero on the fallback path.
	if snap.Signals.ExternalLinkCount != 0 || snap.Signals.RedirectIndicators != 0 {
		t.Errorf("fallback must omit external-link and redirect analysis: %+v", snap.Signals)
	}
	if snap.Content != (snapshot.ContentFlags{}) {
		t.Errorf("fallback must omit content-flag analysis: %+v", snap.Content)
	}
	// Structural signals survive.
	if !snap.Signals.HasLoginForm || snap.Signals.IframeCount != 1 {
		t.Errorf("structural signals must survive the step-down: %+v", snap.Signals)
	}
	if got := len([]rune(snap.BodyText)); got > fallbackBodyCap {
		t.Errorf("body length = %d, cap is %d", got, fallbackBodyCap)
	}
}

func TestExtractStepsDownToMinimal(t *testing.T) {
	reader := &fakeReader{
		scripts:  true,
		domErr:   errors.New("browser crashed"),
		fetchErr: errors.New("connection refused"),
	}
	ex := NewExtractor(reader, nil)

	req := &snapshot.ScanRequest{
		URL:        "https://secure-login.example.com/verify?id=1",
		KnownTitle: "Account Verification",
	}
	snap, strat, err := ex.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strat != StrategyMinimal {
		t.Fatalf("strategy = %q, want minimal", strat)
	}
	if snap.Title != "Account Verification" {
		t.Errorf("minimal snapshot must carry the known title, got %q", snap.Title)
	}
	if snap.URL.Hostname != "secure-login.example.com" || snap.URL.Query != "id=1" {
		t.Errorf("url parts = %+v", snap.URL)
	}
	if snap.BodyText != "" || len(snap.Forms) != 0 {
		t.Error("minimal snapshot must not contain page content")
	}
}

func TestExtractAllStrategiesFail(t *testing.T) {
	reader := &fakeReader{
		scripts:  true,
		domErr:   errors.New("browser crashed"),
		fetchErr: errors.New("connection refused"),
	}
	ex := NewExtractor(reader, nil)

	// An unparseable URL defeats even the minimal strategy.
	_, _, err := ex.Extract(context.Background(), &snapshot.ScanRequest{URL: "://not-a-url"})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractScriptlessReaderStartsAtFallback(t *testing.T) {
	reader := &fakeReader{scripts: false, html: "<html><head><title>Plain</title></head><body>hi</body></html>"}
	ex := NewExtractor(reader, nil)

	snap, strat, err := ex.Extract(context.Background(), &snapshot.ScanRequest{URL: "http://plain.example.com/"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strat != StrategyFallback {
		t.Fatalf("strategy = %q, want fallback for a scriptless reader", strat)
	}
	if snap.Signals.HTTPS {
		t.Error("http URL must not set the HTTPS flag")
	}
	if snap.Title != "Plain" {
		t.Errorf("title = %q", snap.Title)
	}
}

func TestBodyTextCapIsRuneSafe(t *testing.T) {
	long := strings.Repeat("é", primaryBodyCap+500)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + long + "</body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	got := extractBodyText(doc, primaryBodyCap)
	if n := len([]rune(got)); n != primaryBodyCap {
		t.Errorf("rune length = %d, want %d", n, primaryBodyCap)
	}
	if strings.ContainsRune(got, '�') {
		t.Error("truncation must not split a multi-byte rune")
	}
}
