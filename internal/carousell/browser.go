// Package carousell materializes and parses Carousell PH property search
// results.
package carousell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/mlibrea/propscan/internal/logger"
)

// Origin is the site origin used to absolutize relative listing links.
const Origin = "https://www.carousell.ph"

// ErrFilterUnavailable reports that the requested location filter never
// became selectable. Fatal to one materialization call; the browser session
// is still closed.
var ErrFilterUnavailable = errors.New("location filter unavailable")

const (
	locationInputSel = `input[aria-label='Location']`
	searchButtonXP   = `//button[./div[text()='Search']]`
	showMoreXP       = `//button[normalize-space()='Show more results']`
)

// BrowserConfig controls the materializer's browser session.
type BrowserConfig struct {
	Headless       bool
	ChromePath     string // explicit Chrome binary; falls back to $CHROME_BIN
	UserAgent      string
	AcceptLanguage string

	// NavigationTimeout bounds the initial page load and the final markup
	// capture.
	NavigationTimeout time.Duration
	// FilterTimeout bounds the location input and filter-option waits.
	FilterTimeout time.Duration
	// SearchTimeout bounds the search-control wait.
	SearchTimeout time.Duration
	// ReadinessTimeout bounds the first wait for the load-more control.
	ReadinessTimeout time.Duration
	// LoadMoreTimeout bounds each in-loop wait. Longer than
	// ReadinessTimeout: later loads get slower as the page grows.
	LoadMoreTimeout time.Duration
}

// DefaultBrowserConfig returns the timeouts the live site is known to need.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		AcceptLanguage:    "en-US,en;q=0.9",
		NavigationTimeout: 45 * time.Second,
		FilterTimeout:     10 * time.Second,
		SearchTimeout:     20 * time.Second,
		ReadinessTimeout:  20 * time.Second,
		LoadMoreTimeout:   40 * time.Second,
	}
}

// Request describes one materialization.
type Request struct {
	SearchURL string
	Location  string
	// MaxLoads caps successful load-more clicks; <= 0 means unbounded.
	MaxLoads int
}

// session owns the browser process and tab for one materialization call.
type session struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
		logger.Debug("browser session closed")
	})
}

// run executes actions against the tab under a step timeout.
func (s *session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (c *BrowserConfig) withDefaults() BrowserConfig {
	cfg := *c
	def := DefaultBrowserConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = def.AcceptLanguage
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = def.NavigationTimeout
	}
	if cfg.FilterTimeout <= 0 {
		cfg.FilterTimeout = def.FilterTimeout
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = def.SearchTimeout
	}
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = def.ReadinessTimeout
	}
	if cfg.LoadMoreTimeout <= 0 {
		cfg.LoadMoreTimeout = def.LoadMoreTimeout
	}
	if cfg.ChromePath == "" {
		cfg.ChromePath = os.Getenv("CHROME_BIN")
	}
	return cfg
}

// Materialize drives a browser session through filter application and
// repeated load-more triggers, returning the fully loaded page markup.
// The session is closed exactly once on every exit path.
func Materialize(ctx context.Context, cfg BrowserConfig, req Request) (string, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &session{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}
	defer s.close()

	logger.Info("loading search results", "url", req.SearchURL)
	if err := s.run(cfg.NavigationTimeout,
		headerMimicry(cfg),
		chromedp.Navigate(req.SearchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("navigate %s: %w", req.SearchURL, err)
	}

	if err := s.applyLocationFilter(cfg, req.Location); err != nil {
		return "", err
	}

	ready := s.triggerSearch(cfg)
	if !ready {
		// Single screen of results: harvest whatever rendered.
		logger.Warn("results control never appeared, returning current markup")
		return s.capture(cfg)
	}

	clicks := 0
	for req.MaxLoads <= 0 || clicks < req.MaxLoads {
		ok, err := s.clickShowMore(cfg)
		if err != nil {
			return "", err
		}
		if !ok {
			logger.Debug("load more exhausted", "clicks", clicks)
			break
		}
		clicks++
		logger.Info("loaded more results", "clicks", clicks)
	}

	return s.capture(cfg)
}

// headerMimicry applies the basic browser-mimicry headers before navigation.
func headerMimicry(cfg BrowserConfig) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		headers := network.Headers{"Accept-Language": cfg.AcceptLanguage}
		if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		return nil
	})
}

// applyLocationFilter types the location into the filter input and clicks
// the option whose visible label contains it.
func (s *session) applyLocationFilter(cfg BrowserConfig, location string) error {
	if err := s.run(cfg.FilterTimeout,
		chromedp.WaitVisible(locationInputSel, chromedp.ByQuery),
		chromedp.Clear(locationInputSel, chromedp.ByQuery),
		chromedp.SendKeys(locationInputSel, location, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("%w: location input for %q: %v", ErrFilterUnavailable, location, err)
	}

	labelXP := fmt.Sprintf(`//label[.//span[contains(normalize-space(.), %s)]]`, xpathLiteral(location))
	if err := s.run(cfg.FilterTimeout,
		chromedp.WaitVisible(labelXP, chromedp.BySearch),
		chromedp.WaitEnabled(labelXP, chromedp.BySearch),
	); err != nil {
		return fmt.Errorf("%w: no option matching %q: %v", ErrFilterUnavailable, location, err)
	}
	// Script click: the option can be partially hidden behind the dropdown
	// chrome even when visible.
	if err := s.run(cfg.FilterTimeout, scriptClick(labelXP)); err != nil {
		return fmt.Errorf("%w: clicking option for %q: %v", ErrFilterUnavailable, location, err)
	}

	logger.Debug("location filter applied", "location", location)
	return nil
}

// triggerSearch clicks the search control and waits for the load-more
// control to confirm the results view is ready. Returns false on the
// degraded single-screen path.
func (s *session) triggerSearch(cfg BrowserConfig) bool {
	if err := s.run(cfg.SearchTimeout,
		chromedp.WaitVisible(searchButtonXP, chromedp.BySearch),
		chromedp.WaitEnabled(searchButtonXP, chromedp.BySearch),
		scriptClick(searchButtonXP),
	); err != nil {
		logger.Warn("search control not found or page did not settle", "error", err)
		return false
	}

	if err := s.run(cfg.ReadinessTimeout,
		chromedp.WaitVisible(showMoreXP, chromedp.BySearch),
		chromedp.WaitEnabled(showMoreXP, chromedp.BySearch),
	); err != nil {
		logger.Warn("search readiness timeout", "error", err)
		return false
	}

	logger.Debug("results view ready")
	return true
}

// clickShowMore waits for the load-more control, scrolls it to the viewport
// center, and clicks it, falling back to script dispatch when the native
// click is intercepted. Returns ok=false when the control is no longer
// clickable within the bound (results exhausted).
func (s *session) clickShowMore(cfg BrowserConfig) (bool, error) {
	if err := s.run(cfg.LoadMoreTimeout,
		chromedp.WaitVisible(showMoreXP, chromedp.BySearch),
		chromedp.WaitEnabled(showMoreXP, chromedp.BySearch),
	); err != nil {
		// Parent cancellation is not exhaustion.
		if ctxErr := s.tabCtx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, nil
	}

	// Center the control to dodge sticky overlays before clicking.
	if err := s.run(cfg.LoadMoreTimeout, scrollToCenter(showMoreXP)); err != nil {
		if ctxErr := s.tabCtx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, nil
	}

	if err := s.run(cfg.LoadMoreTimeout,
		chromedp.Click(showMoreXP, chromedp.BySearch, chromedp.NodeVisible),
	); err != nil {
		if ctxErr := s.tabCtx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		logger.Debug("native click failed, dispatching script click", "error", err)
		if err := s.run(cfg.LoadMoreTimeout, scriptClick(showMoreXP)); err != nil {
			if ctxErr := s.tabCtx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, nil
		}
	}

	return true, nil
}

// capture returns the current document markup.
func (s *session) capture(cfg BrowserConfig) (string, error) {
	var html string
	if err := s.run(cfg.NavigationTimeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("capture markup: %w", err)
	}
	logger.Debug("markup captured", "bytes", len(html))
	return html, nil
}

// scriptClick dispatches el.click() on the first node matching the XPath.
func scriptClick(xpath string) chromedp.Action {
	var clicked bool
	js := fmt.Sprintf(`(() => {
		const r = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		const el = r.singleNodeValue;
		if (!el) return false;
		el.click();
		return true;
	})()`, xpath)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := chromedp.Evaluate(js, &clicked).Do(ctx); err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("script click: no node for %s", xpath)
		}
		return nil
	})
}

// scrollToCenter scrolls the first node matching the XPath to the viewport
// center.
func scrollToCenter(xpath string) chromedp.Action {
	var found bool
	js := fmt.Sprintf(`(() => {
		const r = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		const el = r.singleNodeValue;
		if (!el) return false;
		el.scrollIntoView({block: 'center'});
		return true;
	})()`, xpath)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := chromedp.Evaluate(js, &found).Do(ctx); err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("scroll: no node for %s", xpath)
		}
		return nil
	})
}

// xpathLiteral quotes s as an XPath string literal, switching to concat()
// when s itself contains single quotes.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, "'")
	return `concat('` + strings.Join(parts, `', "'", '`) + `')`
}
