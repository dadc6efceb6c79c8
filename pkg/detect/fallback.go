package detect

import (
	"strings"
	"time"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// Coarse scores for the last-resort classifier. Intentionally blunt: this
// path exists only so the pipeline terminates with some result when
// structured parsing fails entirely.
const (
	fallbackRiskScore  = 25
	fallbackTrustScore = 65
)

// ClassifyRawReply produces a coarse ScanResult from a lexical scan of the
// raw reply text. Risk vocabulary wins over trust vocabulary when both
// appear; neither matching yields the indeterminate default.
func ClassifyRawReply(rawText, sourceURL string) *snapshot.ScanResult {
	lower := strings.ToLower(rawText)
	lex := Terms()

	score := defaultScore
	reason := "Automated analysis was inconclusive"
	switch {
	case containsAny(lower, lex.RiskVocabulary):
		score = fallbackRiskScore
		reason = "Model reply indicated risk but returned no structured result"
	case containsAny(lower, lex.TrustVocabulary):
		score = fallbackTrustScore
		reason = "Model reply indicated trust but returned no structured result"
	}

	return &snapshot.ScanResult{
		LegitimacyScore:        score,
		Reasoning:              []string{reason},
		SourceURL:              sourceURL,
		Timestamp:              time.Now().UTC(),
		ModelTierUsed:          nil,
		UsedFallbackClassifier: true,
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
