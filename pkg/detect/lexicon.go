// Package detect implements the detection pipeline brains: the domain and
// content heuristics, the scoring prompt, the tiered remote-model invoker,
// reply parsing with its lexical fallback classifier, and verdict banding.
package detect

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Lexicon is the single source of truth for every lexical table the
// pipeline matches against. All terms are stored lowercase and matched
// case-insensitively as substrings.
type Lexicon struct {
	// DomainWatchlist holds hostname terms evoking account-security actions.
	// A match is advisory only - never a standalone verdict.
	DomainWatchlist []string `yaml:"domain_watchlist"`

	// Page-content suspicion vocabularies.
	UrgencyTerms []string `yaml:"urgency_terms"`
	ScamPhrases  []string `yaml:"scam_phrases"`
	ThreatTerms  []string `yaml:"threat_terms"`
	Misspellings []string `yaml:"misspellings"`

	// Raw-reply vocabularies for the last-resort classifier.
	RiskVocabulary  []string `yaml:"risk_vocabulary"`
	TrustVocabulary []string `yaml:"trust_vocabulary"`
}

func defaultLexicon() *Lexicon {
	return &Lexicon{
		DomainWatchlist: []string{
			"secure", "verify", "update", "account", "login", "signin",
		},
		UrgencyTerms: []string{
			"urgent", "immediately", "act now", "expires", "within 24 hours",
			"final notice", "last chance", "limited time", "right away",
		},
		ScamPhrases: []string{
			"verify your account", "confirm your identity", "unusual activity",
			"suspended", "claim your prize", "you have won", "free gift",
			"update your payment", "confirm your password", "unlock your account",
			"reactivate", "billing problem",
		},
		ThreatTerms: []string{
			"account will be closed", "legal action", "permanently deleted",
			"unauthorized access", "security breach", "will be terminated",
			"avoid suspension",
		},
		Misspellings: []string{
			"paypa1", "arnazon", "rnicrosoft", "g00gle", "faceb00k",
			"appleld", "netfliix", "bankk", "verfiy", "acount", "securty",
			"offical", "recieve",
		},
		RiskVocabulary:  []string{"phishing", "suspicious", "malicious"},
		TrustVocabulary: []string{"legitimate", "safe", "trusted"},
	}
}

// global singleton - initialized once on first use.
var (
	globalLexicon *Lexicon
	lexiconOnce   sync.Once
)

// Terms returns the active lexicon. The default tables apply unless
// LoadLexiconFile installed an override before first use.
func Terms() *Lexicon {
	lexiconOnce.Do(func() {
		if globalLexicon == nil {
			globalLexicon = defaultLexicon()
		}
	})
	return globalLexicon
}

// LoadLexiconFile replaces the built-in tables with a YAML override.
// Absent keys keep their defaults, so an override file can adjust one
// table without restating the rest. Must be called before the first
// Terms() lookup to take effect.
func LoadLexiconFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lexicon file: %w", err)
	}

	lex := defaultLexicon()
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parse lexicon file: %w", err)
	}
	mergeLexicon(lex, &override)
	normalizeLexicon(lex)

	globalLexicon = lex
	return nil
}

func mergeLexicon(dst, src *Lexicon) {
	if len(src.DomainWatchlist) > 0 {
		dst.DomainWatchlist = src.DomainWatchlist
	}
	if len(src.UrgencyTerms) > 0 {
		dst.UrgencyTerms = src.UrgencyTerms
	}
	if len(src.ScamPhrases) > 0 {
		dst.ScamPhrases = src.ScamPhrases
	}
	if len(src.ThreatTerms) > 0 {
		dst.ThreatTerms = src.ThreatTerms
	}
	if len(src.Misspellings) > 0 {
		dst.Misspellings = src.Misspellings
	}
	if len(src.RiskVocabulary) > 0 {
		dst.RiskVocabulary = src.RiskVocabulary
	}
	if len(src.TrustVocabulary) > 0 {
		dst.TrustVocabulary = src.TrustVocabulary
	}
}

func normalizeLexicon(lex *Lexicon) {
	lower := func(terms []string) []string {
		out := make([]string, 0, len(terms))
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	lex.DomainWatchlist = lower(lex.DomainWatchlist)
	lex.UrgencyTerms = lower(lex.UrgencyTerms)
	lex.ScamPhrases = lower(lex.ScamPhrases)
	lex.ThreatTerms = lower(lex.ThreatTerms)
	lex.Misspellings = lower(lex.Misspellings)
	lex.RiskVocabulary = lower(lex.RiskVocabulary)
	lex.TrustVocabulary = lower(lex.TrustVocabulary)
}

// countMatches returns how many terms occur in text (already lowercased).
// Each term counts once regardless of repetitions.
func countMatches(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}
