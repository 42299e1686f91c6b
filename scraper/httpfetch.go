package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"

	"pricescout/config"
	"pricescout/models"
)

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Should never happen with a valid utls version.
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPStrategy is the lightweight tier: one plain request with a Chrome
// identity and TLS fingerprint. Fast and sufficient for well-behaved pages;
// its failures escalate to the browser tier.
type HTTPStrategy struct {
	client *http.Client
	cfg    config.HTTPConfig
}

// NewHTTPStrategy creates the HTTP fetch strategy. ALPN is locked to
// http/1.1 to avoid the framing mismatch when utls negotiates h2 but Go's
// transport only speaks h1.
func NewHTTPStrategy(cfg config.HTTPConfig) *HTTPStrategy {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("httpfetch: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPStrategy{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			// The transport-level deadline. The wall clock in Scrape is the
			// backstop for transports that fail to honor it.
			Timeout: cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= cfg.MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
				}
				return nil
			},
		},
	}
}

func (s *HTTPStrategy) Name() string { return "http" }

// Scrape fetches the URL once and runs the shared extraction pipeline over
// the static body. Transport failures, SPA shells and missing prices all
// surface as a failed result so the orchestrator can escalate.
func (s *HTTPStrategy) Scrape(ctx context.Context, targetURL string) *models.ScrapeResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.WallClockTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return failedResult(targetURL, models.MethodHTTP, titleHTTPError, err.Error(), start)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "tr-TR,tr;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := s.client.Do(req)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "http request timeout"
		}
		return failedResult(targetURL, models.MethodHTTP, titleHTTPError, msg, start)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return notFoundResult(targetURL, models.MethodHTTP, start)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failedResult(targetURL, models.MethodHTTP, titleHTTPError,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), start)
	}

	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return failedResult(targetURL, models.MethodHTTP, titleHTTPError,
			"read body: "+err.Error(), start)
	}

	ev, err := evaluatePage(targetURL, string(body))
	if err != nil {
		return failedResult(targetURL, models.MethodHTTP, titleHTTPError,
			"parse document: "+err.Error(), start)
	}

	// A priceless page that looks like a JS shell is not a definitive
	// "no price" answer; report it as a failure so the browser tier gets
	// a chance to render it.
	if !ev.notFound && !ev.priceFound && needsBrowser(body) {
		return failedResult(targetURL, models.MethodHTTP, titleHTTPError,
			"page appears to require javascript rendering", start)
	}

	return resultFrom(targetURL, models.MethodHTTP, ev, start)
}

// needsBrowser uses heuristics to decide if the HTTP-fetched HTML likely
// needs JS rendering (SPA shell, heavy JS dependency, noscript warnings).
// E-commerce storefronts that inject the price client-side look exactly
// like this.
func needsBrowser(body []byte) bool {
	bodyText := extractVisibleText(body)

	// Very little visible text in <body> means an SPA shell.
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, `<div id="root"></div>`) ||
		strings.Contains(lower, `<div id="app"></div>`) ||
		strings.Contains(lower, `<div id="__next"></div>`) {
		return true
	}

	if reNoscript.MatchString(lower) {
		return true
	}

	scriptCount := strings.Count(lower, "<script")
	return scriptCount > 10 && len(bodyText) < 500
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
