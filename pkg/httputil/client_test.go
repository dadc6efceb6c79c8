package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSingleton(t *testing.T) {
	// Verify that Client() returns the same instance for repeated calls
	c1 := Client(TierScoring)
	c2 := Client(TierScoring)

	if c1 != c2 {
		t.Error("Client() should return the same instance for same tier")
	}

	// Different tiers should have different clients
	fast := Client(TierFast)
	fetch := Client(TierPageFetch)

	if fast == fetch {
		t.Error("Different tiers should return different clients")
	}
}

func TestClientTimeouts(t *testing.T) {
	tests := []struct {
		tier    TimeoutTier
		want    time.Duration
		getFunc func() *http.Client
	}{
		{TierFast, 5 * time.Second, FastClient},
		{TierScoring, 12 * time.Second, ScoringClient},
		{TierPageFetch, 20 * time.Second, PageFetchClient},
	}

	for _, tt := range tests {
		c := tt.getFunc()
		if c.Timeout != tt.want {
			t.Errorf("Tier %d: got timeout %v, want %v", tt.tier, c.Timeout, tt.want)
		}
	}
}

func TestUnknownTierDefaultsToScoring(t *testing.T) {
	if Client(TimeoutTier(99)) != ScoringClient() {
		t.Error("unknown tier should fall back to the scoring client")
	}
}

func TestReadResponseBodyLimit(t *testing.T) {
	big := strings.Repeat("a", 1024)
	body, err := ReadResponseBody(strings.NewReader(big), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("expected body truncated to 100 bytes, got %d", len(body))
	}

	// Zero limit falls back to the default cap
	body, err = ReadResponseBody(bytes.NewReader([]byte("ok")), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("expected full body, got %q", body)
	}
}

func TestDrainAndClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	resp, err := FastClient().Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	DrainAndClose(resp.Body)

	// Body must be unusable after DrainAndClose
	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Log("body already drained") // some transports return EOF without error
	}

	DrainAndClose(nil) // must not panic
}
