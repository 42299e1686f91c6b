package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"pricescout/config"
	"pricescout/models"
)

// BrowserStrategy is the heavyweight tier: it renders the page in a managed
// headless-browser session, lets client-side script run, and applies the
// same extraction pipeline to the rendered DOM. It exists for pages whose
// price is injected after initial load.
type BrowserStrategy struct {
	manager *SessionManager
	cfg     config.NavigationConfig
}

// NewBrowserStrategy creates the browser fetch strategy on top of the
// session manager.
func NewBrowserStrategy(manager *SessionManager, cfg config.NavigationConfig) *BrowserStrategy {
	return &BrowserStrategy{manager: manager, cfg: cfg}
}

func (s *BrowserStrategy) Name() string { return "browser" }

// Scrape renders the URL and runs price extraction over the live DOM. All
// failures (session unavailable, navigation, timeout) are converted into a
// failed result at this boundary.
func (s *BrowserStrategy) Scrape(ctx context.Context, targetURL string) *models.ScrapeResult {
	start := time.Now()
	res, err := s.fetch(ctx, targetURL, start)
	if err != nil {
		slog.Warn("browser scrape failed", "url", targetURL, "error", err)
		return failedResult(targetURL, models.MethodBrowser, titleBrowserErr, err.Error(), start)
	}
	return res
}

func (s *BrowserStrategy) fetch(ctx context.Context, targetURL string, start time.Time) (*models.ScrapeResult, error) {
	page, err := s.manager.AcquirePage(ctx)
	if err != nil {
		return nil, err
	}
	// Release on every exit path: success, extraction failure, navigation
	// failure, external error.
	defer s.manager.ReleasePage(page)

	// Stealth JS and identity overrides only take effect for navigations
	// that happen after they are installed.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      chromeUA,
		AcceptLanguage: "tr-TR,tr;q=0.9,en;q=0.8",
	}); err != nil {
		return nil, fmt.Errorf("set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	// Script execution must be on: this tier exists for script-injected
	// prices.
	_ = proto.EmulationSetScriptExecutionDisabled{Value: false}.Call(page)

	s.setExtraHeaders(page, targetURL)

	if err := s.navigateWithRetry(ctx, page, targetURL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation,
			"navigation to target URL failed", err)
	}

	// Fixed settle interval for client-side rendering; deliberately not
	// cancellable early.
	time.Sleep(s.cfg.SettleDelay)

	if elapsed := time.Since(start); elapsed > s.cfg.WallClockTimeout {
		return nil, models.NewScrapeError(models.ErrCodeTimeout,
			fmt.Sprintf("wall clock budget exceeded after %s", elapsed.Round(time.Millisecond)), nil)
	}

	p := page.Context(ctx)
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation,
			"failed to read rendered DOM", err)
	}

	ev, err := evaluatePage(targetURL, rawHTML)
	if err != nil {
		return nil, err
	}
	if ev.title == titleMissing {
		// The serialized DOM can lack <title> when script rewrote it; the
		// live document is the source of truth.
		if liveTitle := evalStringOrEmpty(p, `() => document.title`); liveTitle != "" {
			ev.title = liveTitle
		}
	}

	return resultFrom(targetURL, models.MethodBrowser, ev, start), nil
}

// navigateWithRetry navigates with a bounded retry loop: fixed attempt
// count, fixed inter-retry delay, last error surfaces on final failure.
func (s *BrowserStrategy) navigateWithRetry(ctx context.Context, page *rod.Page, targetURL string) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
		}

		navCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		p := page.Context(navCtx)
		lastErr = p.Navigate(targetURL)
		if lastErr == nil {
			if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
				slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
					"error", stableErr)
			}
			cancel()
			return nil
		}
		cancel()
		slog.Warn("navigation attempt failed",
			"url", targetURL, "attempt", attempt, "retries", s.cfg.Retries, "error", lastErr)
	}
	return lastErr
}

// setExtraHeaders applies a Google-search referer for the target host, the
// same trick the HTTP tier gets for free from a realistic header profile.
func (s *BrowserStrategy) setExtraHeaders(page *rod.Page, targetURL string) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return
	}
	headers := proto.NetworkHeaders{
		"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
		slog.Debug("setting extra headers failed", "error", err)
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
