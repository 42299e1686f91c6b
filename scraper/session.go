package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"pricescout/config"
)

// ErrManagerClosing is returned for any session request made after shutdown
// has been requested.
var ErrManagerClosing = errors.New("scraper: session manager is closing")

// sessionState tracks the single browser session's lifecycle.
type sessionState int32

const (
	stateAbsent sessionState = iota
	stateStarting
	stateReady
	stateDisconnected
	stateClosing
)

func (s sessionState) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateReady:
		return "ready"
	case stateDisconnected:
		return "disconnected"
	case stateClosing:
		return "closing"
	default:
		return "absent"
	}
}

// SessionManager owns the lifecycle of the one headless-browser session:
// lazy start, disconnect detection, recreation, and idempotent best-effort
// shutdown. Callers never touch the browser handle directly; they acquire
// and release page contexts.
type SessionManager struct {
	cfg config.BrowserConfig

	mu      sync.Mutex
	state   sessionState
	closing bool
	browser *rod.Browser
	pages   map[*rod.Page]struct{}
	gen     int // session generation, guards stale disconnect signals

	// launch is swappable in tests.
	launch func() (*rod.Browser, error)
}

// NewSessionManager creates a manager with no running browser. The session
// starts lazily on the first AcquirePage call.
func NewSessionManager(cfg config.BrowserConfig) *SessionManager {
	m := &SessionManager{
		cfg:   cfg,
		pages: make(map[*rod.Page]struct{}),
	}
	m.launch = m.launchBrowser
	return m
}

// State reports the current session state for health reporting. During
// Shutdown it reads "closing"; once the close has finished it reads
// "absent" again, even though the manager keeps refusing new work.
func (m *SessionManager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.String()
}

// AcquirePage returns a fresh page context from a ready session, starting
// or recreating the session first when it is absent or disconnected.
// Fails immediately with ErrManagerClosing once shutdown has been requested.
func (m *SessionManager) AcquirePage(ctx context.Context) (*rod.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closing {
		return nil, ErrManagerClosing
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.state != stateReady || m.browser == nil {
		if err := m.startLocked(); err != nil {
			return nil, err
		}
	}

	// The page is created without the request context on purpose: cleanup
	// must still work after the request deadline expires. Strategies bind
	// their own context via page.Context.
	page, err := m.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		// The browser likely died between the health transition and the
		// page creation; mark it so the next acquire recreates the session.
		m.state = stateDisconnected
		return nil, fmt.Errorf("scraper: create page: %w", err)
	}
	m.pages[page] = struct{}{}
	return page, nil
}

// ReleasePage closes a page context within the configured close timeout,
// attempting a forced close if the graceful close hangs. Close failures are
// logged, never propagated.
func (m *SessionManager) ReleasePage(page *rod.Page) {
	if page == nil {
		return
	}
	m.mu.Lock()
	delete(m.pages, page)
	m.mu.Unlock()

	closePage(page, m.cfg.PageCloseTimeout)
}

// Shutdown closes all open page contexts, then the session itself, under
// bounded timeouts. It is idempotent; any error is logged and swallowed
// because close is best-effort. After Shutdown, every AcquirePage fails
// with ErrManagerClosing.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.closing = true
	m.state = stateClosing
	browser := m.browser
	m.browser = nil
	pages := make([]*rod.Page, 0, len(m.pages))
	for p := range m.pages {
		pages = append(pages, p)
	}
	m.pages = make(map[*rod.Page]struct{})
	m.mu.Unlock()

	for _, p := range pages {
		closePage(p, m.cfg.PageCloseTimeout)
	}

	if browser != nil {
		done := make(chan error, 1)
		go func() { done <- browser.Close() }()
		select {
		case err := <-done:
			if err != nil {
				slog.Warn("browser close reported error", "error", err)
			}
		case <-time.After(m.cfg.SessionCloseTimeout):
			slog.Warn("browser close timed out", "timeout", m.cfg.SessionCloseTimeout)
		}
	}

	// The machine ends at absent even when the close failed; the closing
	// flag alone keeps refusing new acquisitions.
	m.mu.Lock()
	m.state = stateAbsent
	m.mu.Unlock()
	slog.Info("session manager shut down")
}

// startLocked launches a fresh browser session. Callers hold m.mu.
func (m *SessionManager) startLocked() error {
	// Close any stale handle first. A broken handle's close error is
	// logged, not propagated.
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			slog.Warn("closing stale browser handle failed", "error", err)
		}
		m.browser = nil
	}

	m.state = stateStarting
	browser, err := m.launch()
	if err != nil {
		m.state = stateAbsent
		return fmt.Errorf("scraper: start browser session: %w", err)
	}

	m.browser = browser
	m.state = stateReady
	m.gen++
	go m.watchDisconnect(browser, m.gen)
	slog.Info("browser session ready", "generation", m.gen)
	return nil
}

// watchDisconnect drains the browser's CDP event stream; the stream closes
// when the connection drops, which transitions the session to disconnected
// so the next acquire recreates it.
func (m *SessionManager) watchDisconnect(browser *rod.Browser, gen int) {
	for range browser.Event() {
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.closing {
		return
	}
	slog.Warn("browser session disconnected", "generation", gen)
	m.state = stateDisconnected
	m.browser = nil
}

// launchBrowser starts a headless Chromium with anti-automation-detection
// flags and connects to it.
func (m *SessionManager) launchBrowser() (*rod.Browser, error) {
	l := launcher.New().
		Headless(m.cfg.Headless).
		NoSandbox(m.cfg.NoSandbox)

	if m.cfg.BrowserBin != "" {
		l = l.Bin(m.cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	return browser, nil
}

// closePage closes one page context, racing the graceful close against the
// timeout and falling back to a second best-effort close.
func closePage(page *rod.Page, timeout time.Duration) {
	done := make(chan error, 1)
	go func() { done <- page.Close() }()

	select {
	case err := <-done:
		if err != nil {
			slog.Warn("page close reported error", "error", err)
		}
	case <-time.After(timeout):
		slog.Warn("page close timed out, forcing", "timeout", timeout)
		go func() {
			if err := page.Close(); err != nil {
				slog.Warn("forced page close failed", "error", err)
			}
		}()
	}
}
