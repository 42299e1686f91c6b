package pricing

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// vatRate is applied to VAT-exclusive script-data fields before they are
// compared with VAT-inclusive prices.
const vatRate = 1.20

// Profile maps a hostname substring to an ordered selector list and,
// optionally, custom script-data extraction logic. Profiles are read-only
// configuration; both fetch strategies consult the same table.
type Profile struct {
	// Host is the hostname substring this profile applies to.
	Host string

	// Selectors are tried before the generic fallback list, in order.
	Selectors []string

	// ScriptPrice, when set, extracts a price from script payloads embedded
	// in the raw HTML. It is an additional high-priority candidate source.
	ScriptPrice func(rawHTML string) (float64, bool)
}

// genericSelectors is the fallback selector list applied for every host
// after any profile selectors. Class names cover both English and Turkish
// price vocabulary.
var genericSelectors = []string{
	`[itemprop="price"]`,
	".Formline.IndirimliFiyatContent .spanFiyat",
	".Formline.PiyasafiyatiContent .spanFiyat",
	".spanFiyat",
	".price", ".product-price", ".current-price", ".sale-price",
	".fiyat", ".tutar", ".amount", ".cost", ".value",
	".money", ".currency", "[data-price]",
	".product-amount", ".final-price", ".selling-price",
}

var profiles = []Profile{
	{
		Host: "dokuzkimya.com",
		Selectors: []string{
			`[itemprop="price"]`,
			".product-price__price",
			".product-price .money",
			".price .money",
			".product-form__cart-submit .money",
			"[data-price]",
			".price-item--sale .money",
			".money",
		},
	},
	{
		Host: "3dteknomarket.com",
		Selectors: []string{
			".Formline.IndirimliFiyatContent .spanFiyat",
			".Formline.PiyasafiyatiContent .spanFiyat",
			".spanFiyat",
		},
	},
	{
		Host: "3dcim.com",
		Selectors: []string{
			".price-current",
			".product-price",
			".price",
		},
	},
	{
		Host: "robotistan.com",
		Selectors: []string{
			".product-price",
			".product-price-not-vat",
			".total_sale_price",
			".total_base_price",
			".sale_price",
		},
		ScriptPrice: robotistanScriptPrice,
	},
}

// ProfileFor returns the profile whose Host substring matches the hostname,
// or nil when no profile applies.
func ProfileFor(hostname string) *Profile {
	for i := range profiles {
		if strings.Contains(hostname, profiles[i].Host) {
			return &profiles[i]
		}
	}
	return nil
}

var (
	reProductData   = regexp.MustCompile(`(?s)var\s+PRODUCT_DATA\s*=\s*(\[.*?\]);`)
	reDiscountPrice = regexp.MustCompile(`(?i)İndirimli\s*Fiyat:\s*([\d,.]+)\s*TL`)
)

// robotistanScriptPrice reads the PRODUCT_DATA JSON array the site assigns
// to a script global. Field priority: total_sale_price, then
// total_base_price, then the VAT-exclusive sale_price with the markup
// applied. Falls back to "İndirimli Fiyat:" text and finally to TL-anchored
// patterns over the raw markup (highest value wins, 100 TL floor).
func robotistanScriptPrice(rawHTML string) (float64, bool) {
	if m := reProductData.FindStringSubmatch(rawHTML); m != nil {
		var products []map[string]any
		if err := json.Unmarshal([]byte(m[1]), &products); err == nil && len(products) > 0 {
			product := products[0]
			if v, ok := jsonNumber(product["total_sale_price"]); ok {
				return v, true
			}
			if v, ok := jsonNumber(product["total_base_price"]); ok {
				return v, true
			}
			if v, ok := jsonNumber(product["sale_price"]); ok {
				return v * vatRate, true
			}
		}
	}

	if m := reDiscountPrice.FindStringSubmatch(rawHTML); m != nil {
		if v, err := Normalize(m[1]); err == nil {
			return v, true
		}
	}

	// Last resort: scan the raw markup. The site has no sub-100 TL products,
	// so the floor filters out incidental numbers.
	best := 0.0
	for _, raw := range matchAmounts(rawHTML) {
		v, err := Normalize(raw)
		if err != nil || v <= 100 {
			continue
		}
		if v > best {
			best = v
		}
	}
	if best > 0 {
		return best, true
	}
	return 0, false
}

// jsonNumber coerces a decoded JSON field (number or numeric string) into a
// positive float.
func jsonNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return n, true
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil && f > 0 {
			return f, true
		}
	}
	return 0, false
}
