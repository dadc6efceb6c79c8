package detect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// scoringStub simulates the generation API with per-tier behavior.
type scoringStub struct {
	mu       sync.Mutex
	status   map[string]int    // tier ID -> HTTP status (0 = 200)
	replies  map[string]string // tier ID -> generated text ("" = empty candidates)
	requests []string          // tier IDs in call order
}

func (s *scoringStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Path shape: /models/{tier}:generateContent
		path := strings.TrimPrefix(r.URL.Path, "/models/")
		tierID := strings.TrimSuffix(path, ":generateContent")

		s.mu.Lock()
		s.requests = append(s.requests, tierID)
		status := s.status[tierID]
		reply := s.replies[tierID]
		s.mu.Unlock()

		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		resp := map[string]any{"candidates": []any{}}
		if reply != "" {
			resp = map[string]any{
				"candidates": []any{
					map[string]any{
						"content": map[string]any{
							"parts": []any{map[string]any{"text": reply}},
						},
					},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func testChain() Chain {
	return Chain{
		{ID: "tier-a", Label: "A", Rank: 0},
		{ID: "tier-b", Label: "B", Rank: 1},
		{ID: "tier-c", Label: "C", Rank: 2},
	}
}

func TestInvokeFirstTierSucceeds(t *testing.T) {
	stub := &scoringStub{replies: map[string]string{"tier-a": "hello"}, status: map[string]int{}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	inv := NewInvoker("AIza-test-key", server.URL, testChain())
	raw, err := inv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Text != "hello" || raw.Tier.ID != "tier-a" {
		t.Errorf("unexpected reply: %+v", raw)
	}
	if len(stub.requests) != 1 {
		t.Errorf("expected exactly one call, got %v", stub.requests)
	}
}

func TestInvokeFallsThroughInOrder(t *testing.T) {
	stub := &scoringStub{
		status:  map[string]int{"tier-a": 500, "tier-b": 503},
		replies: map[string]string{"tier-c": "from c"},
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	inv := NewInvoker("AIza-test-key", server.URL, testChain())
	var changes [][2]string
	inv.OnTierChange = func(from, to Tier) {
		changes = append(changes, [2]string{from.ID, to.ID})
	}

	raw, err := inv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Tier.ID != "tier-c" {
		t.Errorf("tier used = %s, want tier-c", raw.Tier.ID)
	}

	wantOrder := []string{"tier-a", "tier-b", "tier-c"}
	if len(stub.requests) != 3 {
		t.Fatalf("requests = %v, want %v", stub.requests, wantOrder)
	}
	for i, id := range wantOrder {
		if stub.requests[i] != id {
			t.Errorf("request %d = %s, want %s", i, stub.requests[i], id)
		}
	}

	wantChanges := [][2]string{{"tier-a", "tier-b"}, {"tier-b", "tier-c"}}
	if len(changes) != 2 || changes[0] != wantChanges[0] || changes[1] != wantChanges[1] {
		t.Errorf("tier change notices = %v, want %v", changes, wantChanges)
	}
}

func TestInvokeEmptyReplyAdvances(t *testing.T) {
	stub := &scoringStub{
		status:  map[string]int{},
		replies: map[string]string{"tier-a": "", "tier-b": "ok"},
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	inv := NewInvoker("AIza-test-key", server.URL, testChain())
	raw, err := inv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Tier.ID != "tier-b" {
		t.Errorf("tier used = %s, want tier-b (empty reply must advance)", raw.Tier.ID)
	}
}

func TestInvokeAllTiersExhausted(t *testing.T) {
	stub := &scoringStub{
		status:  map[string]int{"tier-a": 500, "tier-b": 500, "tier-c": 429},
		replies: map[string]string{},
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	inv := NewInvoker("AIza-test-key", server.URL, testChain())
	_, err := inv.Invoke(context.Background(), "prompt")

	var exhausted *AllTiersExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected AllTiersExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", exhausted.Attempts)
	}

	var transport *TransportError
	if !errors.As(exhausted.Last, &transport) || transport.Status != 429 {
		t.Errorf("last error should carry the final transport failure, got %v", exhausted.Last)
	}

	// No tier may be visited twice within one scan.
	seen := map[string]int{}
	for _, id := range stub.requests {
		seen[id]++
		if seen[id] > 1 {
			t.Errorf("tier %s visited %d times", id, seen[id])
		}
	}
}

func TestChainStartingAt(t *testing.T) {
	c := testChain()

	sub := c.StartingAt("tier-b")
	if len(sub) != 2 || sub[0].ID != "tier-b" || sub[1].ID != "tier-c" {
		t.Errorf("StartingAt(tier-b) = %v", sub)
	}
	if len(c.StartingAt("")) != 3 {
		t.Error("empty ID should return the full chain")
	}
	if len(c.StartingAt("unknown")) != 3 {
		t.Error("unknown ID should return the full chain")
	}

	if _, ok := c.Find("tier-c"); !ok {
		t.Error("Find should locate tier-c")
	}
	if _, ok := c.Find("nope"); ok {
		t.Error("Find should miss unknown tiers")
	}
}
