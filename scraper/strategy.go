package scraper

import (
	"context"

	"pricescout/models"
)

// Strategy is one way of obtaining a page and extracting a price from it.
// Every outcome, success or failure, is converted into exactly one
// ScrapeResult at the strategy boundary; errors never escape.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "http", "browser").
	Name() string

	// Scrape fetches the URL and runs price extraction.
	Scrape(ctx context.Context, targetURL string) *models.ScrapeResult
}
