package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pricescout/models"
)

// ScrapeAll processes URLs in fixed-size concurrent windows with a pause
// between windows, to avoid hammering the remote sites. Results are returned
// in input order, one per URL, regardless of individual failures. A worker
// panic is converted into a failed result for that URL only.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) []*models.ScrapeResult {
	results := make([]*models.ScrapeResult, len(urls))

	windowSize := s.batch.WindowSize
	if windowSize < 1 {
		windowSize = 1
	}

	for offset := 0; offset < len(urls); offset += windowSize {
		end := offset + windowSize
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := offset; i < end; i++ {
			wg.Add(1)
			go func(idx int, target string) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						slog.Error("batch worker panicked", "url", target, "panic", r)
						results[idx] = &models.ScrapeResult{
							URL:      target,
							Title:    "Batch Error",
							Currency: models.Currency,
							Method:   models.MethodBatch,
							Error:    fmt.Sprint(r),
						}
					}
				}()
				results[idx] = s.ScrapeProduct(ctx, target)
			}(i, urls[i])
		}
		wg.Wait()

		if end < len(urls) {
			select {
			case <-ctx.Done():
				// Fill the remainder so the caller still gets one result
				// per input URL.
				for i := end; i < len(urls); i++ {
					results[i] = &models.ScrapeResult{
						URL:      urls[i],
						Title:    "Batch Error",
						Currency: models.Currency,
						Method:   models.MethodBatch,
						Error:    ctx.Err().Error(),
					}
				}
				return results
			case <-time.After(s.batch.WindowPause):
			}
		}
	}

	return results
}
