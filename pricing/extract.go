package pricing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Priority marks how a candidate was discovered. Targeted-pass candidates
// outrank broad-pass ones regardless of value.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// Candidate is one plausible monetary mention found in a document. It is
// transient: created during a single extraction pass and consumed by the
// ranker.
type Candidate struct {
	Value          float64
	SourceText     string
	ClassHint      string
	TagHint        string
	Priority       Priority
	OriginSelector string
}

// Own-text length cap for the broad pass; longer text is prose, not a price
// tag.
const broadPassTextLimit = 200

// selectorCache holds every profile and fallback selector, compiled once.
// Both fetch strategies query documents through this table so the static
// and rendered paths cannot drift.
var selectorCache = map[string]cascadia.Selector{}

func init() {
	compile := func(selectors []string) {
		for _, s := range selectors {
			if _, ok := selectorCache[s]; !ok {
				selectorCache[s] = cascadia.MustCompile(s)
			}
		}
	}
	compile(genericSelectors)
	for i := range profiles {
		compile(profiles[i].Selectors)
	}
}

// ParseDocument parses raw HTML (a static fetch body or a serialized
// rendered DOM) into a queryable document.
func ParseDocument(rawHTML string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
}

// Collect locates every plausible price mention in doc and returns the
// candidates in discovery order. An empty result is a valid non-error
// outcome meaning "no price found by this strategy".
//
// Targeted pass: profile selectors, then the generic fallback list. A
// structured machine-readable attribute (content / data-price) on the first
// qualifying element is authoritative and short-circuits everything else.
// Broad pass: only when the targeted pass and script data produced nothing;
// walks short own-text elements and applies the exclusion filter.
func Collect(doc *goquery.Document, rawHTML string, profile *Profile) []Candidate {
	var cands []Candidate

	selectors := genericSelectors
	if profile != nil {
		selectors = append(append([]string{}, profile.Selectors...), genericSelectors...)
	}

	authoritative := false
	for _, raw := range selectors {
		sel, ok := selectorCache[raw]
		if !ok {
			continue
		}
		doc.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if c, ok := structuredAttrCandidate(s, raw); ok {
				cands = []Candidate{c}
				authoritative = true
				return false
			}
			text := strings.TrimSpace(s.Text())
			for _, amount := range matchAmounts(text) {
				v, err := Normalize(amount)
				if err != nil || v < 1 {
					continue
				}
				cands = append(cands, Candidate{
					Value:          v,
					SourceText:     truncate(text, 100),
					ClassHint:      s.AttrOr("class", ""),
					TagHint:        goquery.NodeName(s),
					Priority:       PriorityHigh,
					OriginSelector: raw,
				})
			}
			return true
		})
		if authoritative {
			return cands
		}
	}

	if profile != nil && profile.ScriptPrice != nil {
		if v, ok := profile.ScriptPrice(rawHTML); ok && v >= 1 {
			cands = append(cands, Candidate{
				Value:          v,
				SourceText:     "script data",
				Priority:       PriorityHigh,
				OriginSelector: "script-data",
			})
		}
	}

	if len(cands) == 0 {
		cands = broadPass(doc)
	}
	return cands
}

// Price extracts the single most likely product price for a page served
// from hostname. The bool is false when no plausible price was found.
func Price(doc *goquery.Document, rawHTML, hostname string) (float64, bool) {
	return SelectPrice(Collect(doc, rawHTML, ProfileFor(hostname)))
}

// structuredAttrCandidate prefers a machine-readable price attribute over
// the element's displayed text.
func structuredAttrCandidate(s *goquery.Selection, selector string) (Candidate, bool) {
	for _, attr := range []string{"content", "data-price"} {
		raw, exists := s.Attr(attr)
		if !exists {
			continue
		}
		v, err := Normalize(raw)
		if err != nil || v < 1 {
			continue
		}
		return Candidate{
			Value:          v,
			SourceText:     attr + `="` + raw + `"`,
			ClassHint:      s.AttrOr("class", ""),
			TagHint:        goquery.NodeName(s),
			Priority:       PriorityHigh,
			OriginSelector: selector + " (" + attr + ")",
		}, true
	}
	return Candidate{}, false
}

// broadPass scans every element whose own (non-descendant) text is short,
// applying the pattern families and the exclusion filter.
func broadPass(doc *goquery.Document) []Candidate {
	var cands []Candidate
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		text := ownText(s)
		if text == "" || len(text) > broadPassTextLimit {
			return
		}
		amounts := matchAmounts(text)
		if len(amounts) == 0 {
			return
		}
		innerHTML, _ := s.Html()
		if isExcluded(text, innerHTML) {
			return
		}
		for _, amount := range amounts {
			v, err := Normalize(amount)
			if err != nil || v < 1 {
				continue
			}
			cands = append(cands, Candidate{
				Value:      v,
				SourceText: truncate(text, 100),
				ClassHint:  s.AttrOr("class", ""),
				TagHint:    goquery.NodeName(s),
				Priority:   PriorityNormal,
			})
		}
	})
	return cands
}

// ownText concatenates the direct child text nodes of the selection,
// excluding descendant element text.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
