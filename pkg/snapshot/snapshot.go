// Package snapshot defines the data model carried through one scan:
// the immutable page capture handed to the prompt builder, and the
// scan result produced at the end of the pipeline.
package snapshot

import (
	"net/url"
	"time"
)

// TriggerSurface identifies what initiated a scan.
type TriggerSurface string

const (
	TriggerManual  TriggerSurface = "manual"  // user-initiated scan
	TriggerPassive TriggerSurface = "passive" // context/navigation-initiated scan
)

// URLParts holds the decomposed page URL.
type URLParts struct {
	Protocol string `json:"protocol"`
	Hostname string `json:"hostname"`
	Path     string `json:"path"`
	Query    string `json:"query"`
	Port     string `json:"port"`
}

// ParseURL decomposes a raw URL into its scored components.
func ParseURL(raw string) (URLParts, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URLParts{}, err
	}
	return URLParts{
		Protocol: u.Scheme,
		Hostname: u.Hostname(),
		Path:     u.Path,
		Query:    u.RawQuery,
		Port:     u.Port(),
	}, nil
}

// SignalSet holds the structural signals counted on the page.
type SignalSet struct {
	IframeCount         int  `json:"iframe_count"`
	ExternalLinkCount   int  `json:"external_link_count"`
	SensitiveInputCount int  `json:"sensitive_input_count"`
	HTTPS               bool `json:"https"`
	HasLoginForm        bool `json:"has_login_form"`
	PopupTriggerCount   int  `json:"popup_trigger_count"`
	RedirectIndicators  int  `json:"redirect_indicators"`
	HiddenElementCount  int  `json:"hidden_element_count"`
}

// ContentFlags holds lexical suspicion markers found in the page text.
type ContentFlags struct {
	UrgencyTermCount       int  `json:"urgency_term_count"`
	ScamPhraseCount        int  `json:"scam_phrase_count"`
	ThreatTermCount        int  `json:"threat_term_count"`
	ExcessiveCapitals      bool `json:"excessive_capitals"`
	ExcessivePunctuation   bool `json:"excessive_punctuation"`
	ContainsMisspelledTerm bool `json:"contains_misspelled_term"`
}

// FormInput describes one input inside a form.
type FormInput struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// FormDescriptor describes one form on the page.
type FormDescriptor struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Inputs []FormInput `json:"inputs"`
}

// PageSnapshot is the normalized capture of a rendered page, produced once
// per scan. It is owned by that scan invocation, never mutated after
// creation, and discarded once a ScanResult exists - page content is not
// retained past the scan.
type PageSnapshot struct {
	Title           string           `json:"title"`
	MetaDescription string           `json:"meta_description"`
	BodyText        string           `json:"body_text"`
	Signals         SignalSet        `json:"signals"`
	Forms           []FormDescriptor `json:"forms"`
	URL             URLParts         `json:"url"`
	Content         ContentFlags     `json:"content"`
}

// ScanRequest correlates a page session with the page to scan.
type ScanRequest struct {
	SessionID string         `json:"session_id"`
	Trigger   TriggerSurface `json:"trigger"`
	URL       string         `json:"url"`

	// KnownTitle is the host's last-known page title, used by the minimal
	// extraction strategy when the page itself cannot be read.
	KnownTitle string `json:"known_title,omitempty"`
}

// ScanResult is the terminal output of one scan. Immutable once created;
// a later scan of the same session supersedes it, never mutates it.
type ScanResult struct {
	LegitimacyScore int       `json:"legitimacy_score"`
	Reasoning       []string  `json:"reasoning"`
	SourceURL       string    `json:"source_url"`
	Timestamp       time.Time `json:"timestamp"`

	// ModelTierUsed is nil when the lexical fallback classifier produced
	// the result and no tier reply was usable.
	ModelTierUsed          *string `json:"model_tier_used"`
	UsedFallbackClassifier bool    `json:"used_fallback_classifier"`
}

// MaxReasoningEntries bounds the reasoning list in every ScanResult.
const MaxReasoningEntries = 3

// ClampScore bounds a raw score to the [0,100] legitimacy range.
func ClampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// TrimReasoning enforces the reasoning bound, substituting a generic entry
// when the list is empty.
func TrimReasoning(reasons []string) []string {
	out := make([]string, 0, MaxReasoningEntries)
	for _, r := range reasons {
		if r == "" {
			continue
		}
		out = append(out, r)
		if len(out) == MaxReasoningEntries {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "No detailed reasoning available")
	}
	return out
}
