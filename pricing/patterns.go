package pricing

import (
	"regexp"
	"strings"
)

// Pattern families for TL-anchored amounts, in priority order:
// grouped-thousands with decimals, compact decimal, international-grouped
// with decimals, grouped without decimals, bare integer. Every family
// requires a trailing currency marker so incidental numbers are skipped.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+,\d{1,2})\s*(?:TL|₺|tl|Tl)`),   // 16.000,50 TL
	regexp.MustCompile(`(\d{1,4},\d{1,2})\s*(?:TL|₺|tl|Tl)`),               // 483,12 TL
	regexp.MustCompile(`(\d{1,3}(?:,\d{3})+\.\d{1,2})\s*(?:TL|₺|tl|Tl)`),   // 16,000.50 TL
	// At least one grouped-thousands block is required here; a bare integer
	// would otherwise match on a truncated suffix ("1234 TL" as "234").
	regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})+)\s*(?:TL|₺|tl|Tl)`), // 16.000 TL / 16,000 TL
	regexp.MustCompile(`(\d+)\s*(?:TL|₺|tl|Tl)`),                           // 1234 TL
}

// exclusionPatterns discard broad-pass matches whose surrounding text or
// markup is promotional, installment, VAT-disclaimer or script/style/
// analytics boilerplate rather than a product price.
var exclusionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)kargo.*bedava`),
	regexp.MustCompile(`(?i)ücretsiz.*kargo`),
	regexp.MustCompile(`(?i)free.*shipping`),
	regexp.MustCompile(`(?i)kazanmanıza.*kaldı`),
	regexp.MustCompile(`(?i)kazan`),
	regexp.MustCompile(`(?i)earn`),
	regexp.MustCompile(`(?i)kupon.*kod`),
	regexp.MustCompile(`(?i)coupon.*code`),
	regexp.MustCompile(`(?i)puan.*kazan`),
	regexp.MustCompile(`(?i)bonus.*point`),
	regexp.MustCompile(`(?i)taksit.*sayısı`),
	regexp.MustCompile(`(?i)aylık.*ödeme`),
	regexp.MustCompile(`(?i)kdv.*dahil`),
	regexp.MustCompile(`(?i)vat.*included`),
	regexp.MustCompile(`(?i)komisyon.*oranı`),
	regexp.MustCompile(`(?i)fee.*rate`),
	regexp.MustCompile(`(?i)window\.`),
	regexp.MustCompile(`(?i)function`),
	regexp.MustCompile(`(?i)script`),
	regexp.MustCompile(`(?i)style`),
	regexp.MustCompile(`(?i)\.css`),
	regexp.MustCompile(`(?i)\.js`),
	regexp.MustCompile(`(?i)src=`),
	regexp.MustCompile(`(?i)href=`),
	regexp.MustCompile(`(?i)@media`),
	regexp.MustCompile(`(?i)font-family`),
	regexp.MustCompile(`(?i)color:`),
	regexp.MustCompile(`(?i)performance.*mark`),
	regexp.MustCompile(`(?i)console\.`),
	regexp.MustCompile(`(?i)googletagmanager`),
	regexp.MustCompile(`(?i)analytics`),
	regexp.MustCompile(`(?i)tracking`),
}

// priorityClassHints is the ordered list of class/attribute terms the ranker
// scans when no targeted-pass candidate exists. Order is the tie-break.
var priorityClassHints = []string{
	"product", "price", "fiyat", "cost", "amount", "value", "money",
}

// Not-found phrase markers. Matched case-insensitively against the page
// title and the visible body text.
var notFoundTitleMarkers = []string{
	"404",
	"not found",
	"bulunamadı",
	"aradığınız içeriğe şu an ulaşılamıyor",
}

var notFoundBodyMarkers = []string{
	"ürün bulunamadı",
	"sayfa bulunamadı",
	"aradığınız içeriğe şu an ulaşılamıyor",
}

// matchAmounts returns every numeric substring matched by the pattern
// families against text, in family-priority order, deduplicated so one
// element cannot emit the same raw amount twice.
func matchAmounts(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range pricePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			out = append(out, m[1])
		}
	}
	return out
}

// isExcluded reports whether the element text or its inner markup matches
// any exclusion phrase.
func isExcluded(text, innerHTML string) bool {
	for _, re := range exclusionPatterns {
		if re.MatchString(text) || re.MatchString(innerHTML) {
			return true
		}
	}
	return false
}

// LooksNotFound classifies a page as "product/page not found" from its
// title and visible body text, independent of the transport status.
func LooksNotFound(title, bodyText string) bool {
	titleLower := strings.ToLower(title)
	for _, marker := range notFoundTitleMarkers {
		if strings.Contains(titleLower, marker) {
			return true
		}
	}
	bodyLower := strings.ToLower(bodyText)
	for _, marker := range notFoundBodyMarkers {
		if strings.Contains(bodyLower, marker) {
			return true
		}
	}
	return false
}
