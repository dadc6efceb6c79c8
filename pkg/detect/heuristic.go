package detect

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// DomainSuspicious reports whether a hostname contains any watch-list term
// evoking account-security actions. Matching is case-insensitive and runs
// over the NFKC-folded hostname, so fullwidth and other compatibility
// spellings of a term still match.
//
// A true result is a minor, non-decisive signal. Callers must never treat
// it as a verdict on its own.
func DomainSuspicious(hostname string) bool {
	if hostname == "" {
		return false
	}
	folded := strings.ToLower(norm.NFKC.String(hostname))
	for _, term := range Terms().DomainWatchlist {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}

// Thresholds for the statistical content flags. Short texts are exempt:
// a three-word heading in caps is styling, not shouting.
const (
	minTextForCapsCheck  = 40
	capsRatioThreshold   = 0.3
	punctRunThreshold    = 3 // "!!!" and beyond
	minPunctRunsFlagging = 2
)

// AnalyzeContent computes the lexical content flags for sampled page text.
func AnalyzeContent(text string) snapshot.ContentFlags {
	lex := Terms()
	lower := strings.ToLower(text)

	return snapshot.ContentFlags{
		UrgencyTermCount:       countMatches(lower, lex.UrgencyTerms),
		ScamPhraseCount:        countMatches(lower, lex.ScamPhrases),
		ThreatTermCount:        countMatches(lower, lex.ThreatTerms),
		ExcessiveCapitals:      hasExcessiveCapitals(text),
		ExcessivePunctuation:   hasExcessivePunctuation(text),
		ContainsMisspelledTerm: countMatches(lower, lex.Misspellings) > 0,
	}
}

// hasExcessiveCapitals flags text where uppercase letters dominate the
// letter population.
func hasExcessiveCapitals(text string) bool {
	letters, uppers := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters < minTextForCapsCheck {
		return false
	}
	return float64(uppers)/float64(letters) > capsRatioThreshold
}

// hasExcessivePunctuation flags repeated runs of ! or ? ("ACT NOW!!!").
func hasExcessivePunctuation(text string) bool {
	runs, run := 0, 0
	for _, r := range text {
		if r == '!' || r == '?' {
			run++
			continue
		}
		if run >= punctRunThreshold {
			runs++
		}
		run = 0
	}
	if run >= punctRunThreshold {
		runs++
	}
	return runs >= minPunctRunsFlagging
}
