package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"FxBias/internal/domain/service"
	"FxBias/internal/service/metrics"
	xlogger "FxBias/pkg/logger"
)

type ChromeOption func(*chromeConfig)

type chromeConfig struct {
	headless  bool
	noSandbox bool
	userAgent string
	timeout   time.Duration
	settle    time.Duration
}

func WithHeadless(on bool) ChromeOption { return func(c *chromeConfig) { c.headless = on } }

func WithNoSandbox(on bool) ChromeOption { return func(c *chromeConfig) { c.noSandbox = on } }

func WithUserAgent(ua string) ChromeOption { return func(c *chromeConfig) { c.userAgent = ua } }

// WithPageTimeout bounds one navigation, including the settle delay.
func WithPageTimeout(d time.Duration) ChromeOption { return func(c *chromeConfig) { c.timeout = d } }

// WithSettle is how long to let client-side scripts render before reading the DOM.
func WithSettle(d time.Duration) ChromeOption { return func(c *chromeConfig) { c.settle = d } }

// ChromeFetcher renders pages in a shared headless Chrome, one tab per fetch.
type ChromeFetcher struct {
	cfg chromeConfig
	l   *xlogger.Logger

	// launch starts a browser and returns its context and a func tearing it down.
	launch func() (context.Context, context.CancelFunc, error)

	mu         sync.Mutex
	browserCtx context.Context
	stop       context.CancelFunc
}

var _ service.ContentFetcher = (*ChromeFetcher)(nil)

func NewChromeFetcher(l *xlogger.Logger, opts ...ChromeOption) *ChromeFetcher {
	cfg := chromeConfig{headless: true, noSandbox: true, timeout: 45 * time.Second, settle: 2 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	if l == nil {
		l = xlogger.NewNop()
	}
	f := &ChromeFetcher{cfg: cfg, l: l}
	f.launch = f.launchChrome
	return f
}

// Fetch returns the visible text of url, or "" when the page cannot be rendered.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) string {
	start := time.Now()
	page, err := f.render(ctx, url)
	metrics.Observe("chrome", "render", start, err)
	if err != nil {
		f.l.Warn("page render failed", xlogger.String("url", url), xlogger.Error(err))
		return ""
	}
	return HTMLToText(page)
}

func (f *ChromeFetcher) render(ctx context.Context, url string) (string, error) {
	browser, err := f.browser()
	if err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(browser)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.cfg.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var page string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.cfg.settle),
		chromedp.OuterHTML("html", &page),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp navigate: %w", err)
	}
	return page, nil
}

// browser starts Chrome on first use, and again when the previous browser
// has died or its context was cancelled.
func (f *ChromeFetcher) browser() (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserCtx != nil {
		if f.browserCtx.Err() == nil {
			return f.browserCtx, nil
		}
		f.l.Warn("headless chrome is gone, restarting", xlogger.Error(context.Cause(f.browserCtx)))
		f.stop()
		f.browserCtx, f.stop = nil, nil
	}

	ctx, stop, err := f.launch()
	if err != nil {
		return nil, err
	}
	f.browserCtx, f.stop = ctx, stop
	f.l.Info("headless chrome started")
	return ctx, nil
}

func (f *ChromeFetcher) launchChrome() (context.Context, context.CancelFunc, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.headless),
		chromedp.Flag("no-sandbox", f.cfg.noSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if f.cfg.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.cfg.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(s string, args ...interface{}) {
			f.l.Debug(fmt.Sprintf("chromedp: "+s, args...))
		}),
	)
	stop := func() {
		browserCancel()
		allocCancel()
	}
	if err := chromedp.Run(browserCtx); err != nil {
		stop()
		return nil, nil, fmt.Errorf("start chrome: %w", err)
	}
	return browserCtx, stop, nil
}

// Close shuts the browser down. Later fetches start a new one.
func (f *ChromeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserCtx == nil {
		return nil
	}
	f.stop()
	f.browserCtx, f.stop = nil, nil
	return nil
}
