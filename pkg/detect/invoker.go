package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pagewarden/pagewarden/pkg/httputil"
)

// Generation parameters for every scoring call. Low temperature keeps the
// classifier deterministic; the token cap bounds reply size.
const (
	scoringTemperature     = 0.1
	scoringMaxOutputTokens = 1024
)

// defaultBaseURL is the hosted generation API endpoint root.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// maxReplySize caps how much of a model reply is read. The provider is
// external and its output untrusted.
const maxReplySize = 2 * 1024 * 1024

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// RawReply is the unparsed text block one tier produced.
type RawReply struct {
	Text string
	Tier Tier
}

// Invoker issues scoring requests against the tier chain. The tier cursor
// is scan-local: every Invoke starts at the head of the configured chain
// and walks strictly forward.
type Invoker struct {
	client  *http.Client
	apiKey  string
	baseURL string
	chain   Chain

	// OnTierChange, when set, observes every tier advance. Fallback is a
	// resilience signal, not a silent retry: it changes result provenance.
	OnTierChange func(from, to Tier)
}

// NewInvoker creates an invoker over the given chain. An empty baseURL
// selects the hosted endpoint; tests point it at a local server.
func NewInvoker(apiKey, baseURL string, chain Chain) *Invoker {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if len(chain) == 0 {
		chain = DefaultChain()
	}
	return &Invoker{
		client:  httputil.ScoringClient(),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		chain:   chain,
	}
}

// Chain returns the configured tier ordering.
func (v *Invoker) Chain() Chain { return v.chain }

// Invoke sends the prompt to the current tier, advancing through the chain
// on TransportError or EmptyReplyError. At most len(chain)-1 advances
// happen per scan; an exhausted chain fails with AllTiersExhaustedError
// carrying the last underlying cause.
func (v *Invoker) Invoke(ctx context.Context, prompt string) (*RawReply, error) {
	var lastErr error
	for i, tier := range v.chain {
		text, err := v.callTier(ctx, tier, prompt)
		if err == nil {
			return &RawReply{Text: text, Tier: tier}, nil
		}
		lastErr = err

		if i+1 < len(v.chain) && v.OnTierChange != nil {
			v.OnTierChange(tier, v.chain[i+1])
		}
	}
	return nil, &AllTiersExhaustedError{Attempts: len(v.chain), Last: lastErr}
}

func (v *Invoker) callTier(ctx context.Context, tier Tier, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     scoringTemperature,
			MaxOutputTokens: scoringMaxOutputTokens,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &TransportError{TierID: tier.ID, Err: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", v.baseURL, tier.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{TierID: tier.ID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	// Header auth keeps the key out of URLs and request logs.
	req.Header.Set("x-goog-api-key", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", &TransportError{TierID: tier.ID, Err: err}
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{TierID: tier.ID, Status: resp.StatusCode}
	}

	body, err := httputil.ReadResponseBody(resp.Body, maxReplySize)
	if err != nil {
		return "", &TransportError{TierID: tier.ID, Err: err}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &TransportError{TierID: tier.ID, Err: fmt.Errorf("unmarshal reply: %w", err)}
	}

	text := collectText(&parsed)
	if text == "" {
		return "", &EmptyReplyError{TierID: tier.ID}
	}
	return text, nil
}

func collectText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
