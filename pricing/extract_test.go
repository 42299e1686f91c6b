package pricing

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, rawHTML string) (*goquery.Document, string) {
	t.Helper()
	doc, err := ParseDocument(rawHTML)
	require.NoError(t, err)
	return doc, rawHTML
}

func TestCollect_TargetedPass(t *testing.T) {
	html := `<html><body>
		<h1>3D Yazıcı Filamenti</h1>
		<div class="price">1.234,56 TL</div>
		<div class="old-price">1.500,00 TL</div>
	</body></html>`
	doc, raw := mustParse(t, html)

	cands := Collect(doc, raw, nil)
	require.NotEmpty(t, cands)
	assert.Equal(t, PriorityHigh, cands[0].Priority)
	assert.InDelta(t, 1234.56, cands[0].Value, 0.001)

	got, ok := Price(doc, raw, "example.com")
	require.True(t, ok)
	assert.InDelta(t, 1234.56, got, 0.001)
}

func TestCollect_BareIntegerPriceNotTruncated(t *testing.T) {
	// A four-digit ungrouped price must come out whole; the grouped-
	// thousands family must not claim a three-digit suffix of it first.
	html := `<html><body>
		<h1>CNC Spindle Motoru</h1>
		<div class="price">1234 TL</div>
	</body></html>`
	doc, raw := mustParse(t, html)

	got, ok := Price(doc, raw, "example.com")
	require.True(t, ok)
	assert.InDelta(t, 1234, got, 0.001)
}

func TestCollect_StructuredAttrShortCircuits(t *testing.T) {
	html := `<html><body>
		<meta itemprop="price" content="899.90">
		<div class="price">1.500,00 TL</div>
	</body></html>`
	doc, raw := mustParse(t, html)

	cands := Collect(doc, raw, nil)
	require.Len(t, cands, 1)
	assert.InDelta(t, 899.90, cands[0].Value, 0.001)
	assert.Contains(t, cands[0].OriginSelector, "content")
}

func TestCollect_BroadPassOnlyWhenTargetedEmpty(t *testing.T) {
	// No price-like classes at all: the broad pass must still find the
	// TL-anchored amount in plain markup.
	html := `<html><body>
		<p>Ürün detayları</p>
		<span>749,90 TL</span>
	</body></html>`
	doc, raw := mustParse(t, html)

	cands := Collect(doc, raw, nil)
	require.NotEmpty(t, cands)
	assert.Equal(t, PriorityNormal, cands[0].Priority)
	assert.InDelta(t, 749.90, cands[0].Value, 0.001)
}

func TestCollect_BroadPassExclusions(t *testing.T) {
	html := `<html><body>
		<span>150 TL üzeri kargo bedava</span>
		<span>Alışverişten 20 TL kazan</span>
	</body></html>`
	doc, raw := mustParse(t, html)

	cands := Collect(doc, raw, nil)
	assert.Empty(t, cands)
}

func TestCollect_BroadPassSkipsLongText(t *testing.T) {
	long := "Bu ürün hakkında çok uzun bir açıklama. "
	for len(long) <= broadPassTextLimit {
		long += "Daha fazla açıklama metni burada devam ediyor. "
	}
	html := `<html><body><p>` + long + ` Sadece 99 TL</p></body></html>`
	doc, raw := mustParse(t, html)

	cands := Collect(doc, raw, nil)
	assert.Empty(t, cands)
}

func TestProfileFor(t *testing.T) {
	assert.NotNil(t, ProfileFor("www.robotistan.com"))
	assert.NotNil(t, ProfileFor("dokuzkimya.com"))
	assert.Nil(t, ProfileFor("example.com"))
}

func TestRobotistanScriptPrice_ProductData(t *testing.T) {
	html := `<script>var PRODUCT_DATA = [{"id": 1, "total_sale_price": 2549.90, "sale_price": 2124.92}];</script>`

	got, ok := robotistanScriptPrice(html)
	require.True(t, ok)
	assert.InDelta(t, 2549.90, got, 0.001)
}

func TestRobotistanScriptPrice_VATMarkup(t *testing.T) {
	// Only the VAT-exclusive field present: the markup is applied.
	html := `<script>var PRODUCT_DATA = [{"sale_price": "1000"}];</script>`

	got, ok := robotistanScriptPrice(html)
	require.True(t, ok)
	assert.InDelta(t, 1200, got, 0.001)
}

func TestRobotistanScriptPrice_DiscountTextFallback(t *testing.T) {
	html := `<div>İndirimli Fiyat: 1.799,00 TL</div>`

	got, ok := robotistanScriptPrice(html)
	require.True(t, ok)
	assert.InDelta(t, 1799, got, 0.001)
}

func TestLooksNotFound(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		bodyText string
		want     bool
	}{
		{"404 title", "404 - Sayfa", "", true},
		{"english title", "Page Not Found", "", true},
		{"turkish title", "Ürün Bulunamadı", "", true},
		{"body phrase", "Mağaza", "Aradığınız ürün bulunamadı.", true},
		{"unavailable phrase", "Mağaza", "Aradığınız içeriğe şu an ulaşılamıyor.", true},
		{"normal page", "3D Yazıcı - Mağaza", "Sepete ekle 1.234,56 TL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksNotFound(tt.title, tt.bodyText))
		})
	}
}

func TestMatchAmounts_DedupPerElement(t *testing.T) {
	// The same raw amount may match several pattern families; it must be
	// reported once so the frequency tie-break stays meaningful.
	amounts := matchAmounts("500 TL yerine sadece 500 TL")
	assert.Equal(t, []string{"500"}, amounts)
}

func TestMatchAmounts_BareIntegerWholeMatch(t *testing.T) {
	amounts := matchAmounts("1234 TL")
	require.NotEmpty(t, amounts)
	assert.Equal(t, "1234", amounts[0])

	// Grouped forms still go to the grouped family first.
	amounts = matchAmounts("16.000 TL")
	require.NotEmpty(t, amounts)
	assert.Equal(t, "16.000", amounts[0])
}
