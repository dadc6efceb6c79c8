package detect

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// defaultScore is used when the reply carries no usable score: dead center
// of the range, landing in the caution band under any valid thresholds.
const defaultScore = 50

// rawScanReply mirrors the JSON shape the prompt instructs the model to
// return. Both fields are loosely typed: replies are untrusted and models
// drift ("85" instead of 85, a bare string instead of a list).
type rawScanReply struct {
	LegitimacyScore any `json:"legitimacyScore"`
	Reasoning       any `json:"reasoning"`
}

// ParseReply extracts and validates a ScanResult from one raw model reply.
// It never fails: a reply with no parseable JSON object degrades to the
// lexical fallback classifier. That degradation is by contract - the
// pipeline always terminates with some result.
func ParseReply(raw *RawReply, sourceURL string) *snapshot.ScanResult {
	body := stripFormatting(raw.Text)

	obj, ok := firstBalancedObject(body)
	if !ok {
		return ClassifyRawReply(raw.Text, sourceURL)
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var parsed rawScanReply
	if err := dec.Decode(&parsed); err != nil {
		return ClassifyRawReply(raw.Text, sourceURL)
	}

	tierID := raw.Tier.ID
	return &snapshot.ScanResult{
		LegitimacyScore:        coerceScore(parsed.LegitimacyScore),
		Reasoning:              coerceReasoning(parsed.Reasoning),
		SourceURL:              sourceURL,
		Timestamp:              time.Now().UTC(),
		ModelTierUsed:          &tierID,
		UsedFallbackClassifier: false,
	}
}

// stripFormatting removes incidental wrappers models add around JSON,
// most commonly markdown code fences.
func stripFormatting(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if end := strings.LastIndex(text, "```"); end != -1 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}

// firstBalancedObject locates the first balanced JSON object substring.
// The scan is string-aware so braces inside reasoning text don't
// terminate the object early.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// coerceScore turns the reply's score field into a clamped integer,
// defaulting when absent or non-numeric.
func coerceScore(v any) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return snapshot.ClampScore(int(i))
		}
		if f, err := n.Float64(); err == nil {
			return snapshot.ClampScore(int(f))
		}
	case string:
		// Some models quote the number.
		if f, err := json.Number(strings.TrimSpace(n)).Float64(); err == nil {
			return snapshot.ClampScore(int(f))
		}
	}
	return defaultScore
}

// coerceReasoning validates the reasoning field into at most three short
// strings, substituting a generic entry when absent or malformed.
func coerceReasoning(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, snapshot.MaxReasoningEntries)
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return snapshot.TrimReasoning(out)
	case string:
		return snapshot.TrimReasoning([]string{val})
	default:
		return snapshot.TrimReasoning(nil)
	}
}
