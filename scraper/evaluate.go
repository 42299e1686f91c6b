package scraper

import (
	"net/url"
	"strings"
	"time"

	"pricescout/models"
	"pricescout/pricing"
)

// Fallback titles, matching what the product team's dashboards expect.
const (
	titleNotFound   = "Ürün Bulunamadı"
	titleMissing    = "Ürün başlığı bulunamadı"
	titleHTTPError  = "HTTP Hatası"
	titleBrowserErr = "Tarayıcı Hatası"
)

// pageEvaluation is the outcome of running the shared heuristics over one
// fetched page. Both strategies build their ScrapeResult from this, so the
// static-HTML and rendered-DOM paths cannot diverge.
type pageEvaluation struct {
	title      string
	price      float64
	priceFound bool
	notFound   bool
}

// evaluatePage parses rawHTML and runs the not-found classification, title
// extraction and price extraction/ranking for the page.
func evaluatePage(targetURL, rawHTML string) (*pageEvaluation, error) {
	doc, err := pricing.ParseDocument(rawHTML)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	bodyText := doc.Find("body").Text()

	if pricing.LooksNotFound(title, bodyText) {
		return &pageEvaluation{title: titleNotFound, notFound: true}, nil
	}

	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = titleMissing
	}

	price, found := pricing.Price(doc, rawHTML, hostnameOf(targetURL))
	return &pageEvaluation{
		title:      title,
		price:      price,
		priceFound: found,
	}, nil
}

// hostnameOf extracts the hostname used for site-profile selection.
func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// resultFrom converts a page evaluation into the final ScrapeResult for the
// given strategy method.
func resultFrom(targetURL, method string, ev *pageEvaluation, start time.Time) *models.ScrapeResult {
	res := &models.ScrapeResult{
		URL:        targetURL,
		Title:      ev.title,
		Currency:   models.Currency,
		Method:     method,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if ev.notFound {
		res.NotFound = true
		res.Error = "product not found (404)"
		return res
	}
	if ev.priceFound {
		res.Price = models.PriceOf(ev.price)
		res.Success = true
	}
	return res
}

// failedResult builds the ScrapeResult for a strategy-level failure.
func failedResult(targetURL, method, title, errMsg string, start time.Time) *models.ScrapeResult {
	return &models.ScrapeResult{
		URL:        targetURL,
		Title:      title,
		Currency:   models.Currency,
		Method:     method,
		Error:      errMsg,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// notFoundResult builds the ScrapeResult for a transport-level 404.
func notFoundResult(targetURL, method string, start time.Time) *models.ScrapeResult {
	return &models.ScrapeResult{
		URL:        targetURL,
		Title:      titleNotFound,
		Currency:   models.Currency,
		Method:     method,
		Error:      "product not found (404)",
		NotFound:   true,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
