package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// sensitiveNameFragments mark inputs collecting high-value data even when
// the input type is a plain "text".
var sensitiveNameFragments = []string{
	"password", "passwd", "card", "cvv", "cvc", "ssn", "social",
	"pin", "account", "routing", "iban", "taxid",
}

var sensitiveInputTypes = map[string]bool{
	"password": true,
	"email":    true,
	"tel":      true,
}

// hiddenStyleFragments are inline-style idioms used to keep elements out
// of sight while present in the DOM.
var hiddenStyleFragments = []string{
	"display:none", "display: none",
	"visibility:hidden", "visibility: hidden",
	"opacity:0", "opacity: 0",
}

// analyzeSignals counts the structural signals for one parsed document.
// With full=false (the fallback strategy) external-link counting and
// redirect analysis are omitted.
func analyzeSignals(doc *goquery.Document, page snapshot.URLParts, full bool) snapshot.SignalSet {
	sig := snapshot.SignalSet{
		HTTPS:       page.Protocol == "https",
		IframeCount: doc.Find("iframe").Length(),
	}

	doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		if isSensitiveInput(s) {
			sig.SensitiveInputCount++
		}
	})

	sig.HasLoginForm = detectLoginForm(doc)
	sig.PopupTriggerCount = countPopupTriggers(doc)
	sig.HiddenElementCount = countHiddenElements(doc)

	if full {
		sig.ExternalLinkCount = countExternalLinks(doc, page.Hostname)
		sig.RedirectIndicators = countRedirectIndicators(doc)
	}
	return sig
}

func isSensitiveInput(s *goquery.Selection) bool {
	typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "text")))
	if sensitiveInputTypes[typ] {
		return true
	}
	name := strings.ToLower(s.AttrOr("name", "") + " " + s.AttrOr("id", ""))
	for _, frag := range sensitiveNameFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// detectLoginForm reports whether any form collects a password.
func detectLoginForm(doc *goquery.Document) bool {
	found := false
	doc.Find("form").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		if f.Find(`input[type="password"]`).Length() > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

func countExternalLinks(doc *goquery.Document, pageHost string) int {
	n := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" {
			return // relative link
		}
		if !strings.EqualFold(u.Hostname(), pageHost) {
			n++
		}
	})
	return n
}

func countPopupTriggers(doc *goquery.Document) int {
	n := 0
	doc.Find("[onclick]").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.AttrOr("onclick", ""), "window.open") {
			n++
		}
	})
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		n += strings.Count(s.Text(), "window.open(")
	})
	return n
}

func countRedirectIndicators(doc *goquery.Document) int {
	n := doc.Find(`meta[http-equiv="refresh"]`).Length()
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, marker := range []string{"location.href", "location.replace", "window.location"} {
			n += strings.Count(text, marker)
		}
	})
	return n
}

func countHiddenElements(doc *goquery.Document) int {
	n := 0
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style := strings.ToLower(s.AttrOr("style", ""))
		for _, frag := range hiddenStyleFragments {
			if strings.Contains(style, frag) {
				n++
				return
			}
		}
	})
	// 1x1 tracking/overlay images
	doc.Find(`img[width="1"][height="1"]`).Each(func(_ int, _ *goquery.Selection) {
		n++
	})
	return n
}

// extractForms captures the structural descriptors of every form.
func extractForms(doc *goquery.Document) []snapshot.FormDescriptor {
	var forms []snapshot.FormDescriptor
	doc.Find("form").Each(func(_ int, f *goquery.Selection) {
		fd := snapshot.FormDescriptor{
			Action: f.AttrOr("action", ""),
			Method: strings.ToLower(f.AttrOr("method", "get")),
		}
		f.Find("input").Each(func(_ int, in *goquery.Selection) {
			_, required := in.Attr("required")
			fd.Inputs = append(fd.Inputs, snapshot.FormInput{
				Type:     strings.ToLower(in.AttrOr("type", "text")),
				Name:     in.AttrOr("name", ""),
				Required: required,
			})
		})
		forms = append(forms, fd)
	})
	return forms
}

// extractBodyText samples the visible page text up to cap characters.
func extractBodyText(doc *goquery.Document, cap int) string {
	clone := doc.Clone()
	clone.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(clone.Find("body").Text()), " ")
	runes := []rune(text)
	if len(runes) > cap {
		return string(runes[:cap])
	}
	return text
}

func metaDescription(doc *goquery.Document) string {
	return doc.Find(`meta[name="description"]`).AttrOr("content", "")
}

func docTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}
