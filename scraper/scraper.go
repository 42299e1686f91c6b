package scraper

import (
	"context"
	"log/slog"
	"time"

	"pricescout/config"
	"pricescout/models"
)

// Scraper orchestrates the two-tier escalation: try the cheap HTTP fetch
// first, escalate to the browser tier only when it did not succeed.
type Scraper struct {
	http    Strategy
	browser Strategy
	batch   config.BatchConfig
}

// New wires the strategies into the orchestrator.
func New(httpStrategy, browserStrategy Strategy, batch config.BatchConfig) *Scraper {
	return &Scraper{
		http:    httpStrategy,
		browser: browserStrategy,
		batch:   batch,
	}
}

// ScrapeProduct scrapes one product URL. Only a successful HTTP result
// short-circuits; everything else, a not-found classification included,
// escalates to the browser, whose result is returned as-is. Some storefronts
// serve an error shell to plain HTTP clients and the real page to a
// rendering browser. The caller always gets exactly one result.
func (s *Scraper) ScrapeProduct(ctx context.Context, targetURL string) *models.ScrapeResult {
	start := time.Now()

	res := s.http.Scrape(ctx, targetURL)
	if res.Success {
		slog.Info("scrape resolved by http tier",
			"url", targetURL,
			"durationMs", res.DurationMs)
		return res
	}

	slog.Info("escalating to browser tier",
		"url", targetURL, "httpNotFound", res.NotFound, "httpError", res.Error)

	res = s.browser.Scrape(ctx, targetURL)
	slog.Info("scrape finished",
		"url", targetURL,
		"method", res.Method,
		"success", res.Success,
		"notFound", res.NotFound,
		"totalMs", time.Since(start).Milliseconds())
	return res
}
