package detect

import "testing"

func TestClassifyRawReplyVocabulary(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"risk term", "This page looks like PHISHING to me", 25},
		{"risk term lowercase", "the page is suspicious", 25},
		{"trust term", "The site appears legitimate and well established", 65},
		{"risk wins over trust", "legitimate? no - this is malicious", 25},
		{"neither", "no json here", 50},
		{"empty reply", "", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ClassifyRawReply(tt.raw, "https://example.com")
			if res.LegitimacyScore != tt.want {
				t.Errorf("score = %d, want %d", res.LegitimacyScore, tt.want)
			}
			if !res.UsedFallbackClassifier {
				t.Error("fallback results must set UsedFallbackClassifier")
			}
			if res.ModelTierUsed != nil {
				t.Error("fallback results carry no model tier")
			}
			if len(res.Reasoning) == 0 {
				t.Error("fallback results still need reasoning")
			}
		})
	}
}
