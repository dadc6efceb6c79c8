// Package semantic matches page text against known phishing-template
// wording using vector similarity. Its output is an advisory note folded
// into the scoring prompt, never a verdict.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/philippgille/chromem-go"

	"github.com/pagewarden/pagewarden/pkg/httputil"
)

const (
	embeddingModel  = "text-embedding-004"
	defaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	collectionName  = "phishing-templates"
	queryResults    = 1
	matchThreshold  = 0.78
	minTextForQuery = 80
)

// templateSeeds are canonical phishing page texts. Close neighbors of any
// seed get an advisory note in the prompt.
var templateSeeds = []string{
	"Your account has been temporarily suspended due to unusual sign-in activity. Verify your identity immediately to restore access. Enter your username and password below to confirm you are the account owner.",
	"We detected a problem with your billing information. Update your payment details within 24 hours or your subscription will be cancelled. Enter your card number, expiry date, and security code.",
	"Security alert: someone tried to access your account from a new device. If this was not you, confirm your password now to secure your account. Failure to act will result in permanent account closure.",
	"Congratulations! You have been selected to receive a reward. Claim your prize now by confirming your shipping details and a small verification fee. This offer expires today.",
	"Your mailbox storage is full and incoming messages are being rejected. Sign in to upgrade your storage quota for free. Use your email address and password to continue.",
	"Unusual activity detected. Your account access has been limited. To remove the limitation, confirm your personal information including your full name, date of birth, and social security number.",
}

// Detector holds the seeded in-memory vector collection.
type Detector struct {
	collection *chromem.Collection
}

// New builds the detector: an embedding function over the remote API and a
// collection seeded with the template texts. Callers treat a returned error
// as "semantic analysis off", not as a fatal condition.
func New(ctx context.Context, apiKey, baseURL string) (*Detector, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	embed := newEmbeddingFunc(apiKey, baseURL)

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create template collection: %w", err)
	}

	for i, seed := range templateSeeds {
		doc := chromem.Document{
			ID:      fmt.Sprintf("template-%d", i),
			Content: seed,
		}
		if err := collection.AddDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("seed template %d: %w", i, err)
		}
	}
	return &Detector{collection: collection}, nil
}

// Detect queries the collection with the sampled page text. A non-empty
// note means the text sits close to a known template. Nil receivers and
// short texts return no note.
func (d *Detector) Detect(ctx context.Context, bodyText string) (string, error) {
	if d == nil || len(bodyText) < minTextForQuery {
		return "", nil
	}

	results, err := d.collection.Query(ctx, bodyText, queryResults, nil, nil)
	if err != nil {
		return "", err
	}
	if len(results) == 0 || results[0].Similarity < matchThreshold {
		return "", nil
	}
	return fmt.Sprintf(
		"page wording closely resembles a known phishing template (similarity %.2f)",
		results[0].Similarity), nil
}

// newEmbeddingFunc builds a chromem embedding function over the remote
// embedContent endpoint.
func newEmbeddingFunc(apiKey, baseURL string) chromem.EmbeddingFunc {
	client := httputil.ScoringClient()
	url := fmt.Sprintf("%s/models/%s:embedContent", baseURL, embeddingModel)

	return func(ctx context.Context, text string) ([]float32, error) {
		payload := map[string]any{
			"model":   "models/" + embeddingModel,
			"content": map[string]any{"parts": []map[string]string{{"text": text}}},
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode)
		}

		data, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
		if err != nil {
			return nil, err
		}
		var parsed struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("decode embedding reply: %w", err)
		}
		if len(parsed.Embedding.Values) == 0 {
			return nil, fmt.Errorf("embedding reply contained no values")
		}
		return parsed.Embedding.Values, nil
	}
}

// newTestDetector builds a detector over a caller-supplied embedding
// function. Used by tests to avoid the remote API.
func newTestDetector(ctx context.Context, embed chromem.EmbeddingFunc) (*Detector, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, err
	}
	for i, seed := range templateSeeds {
		if err := collection.AddDocument(ctx, chromem.Document{
			ID:      fmt.Sprintf("template-%d", i),
			Content: seed,
		}); err != nil {
			return nil, err
		}
	}
	return &Detector{collection: collection}, nil
}
