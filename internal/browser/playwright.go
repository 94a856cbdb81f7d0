package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"go-jobradar/internal/scraper"
)

// Options configures the headless browser used as a scraper.Transport.
type Options struct {
	Headless    bool
	UserAgent   string
	CookieFiles []string
	WarmupURLs  []string
	// MinDelayMs and MaxDelayMs bound the random pause before every request.
	MinDelayMs int
	MaxDelayMs int
	TimeoutMs  float64

	// ScreenshotDir receives a screenshot of every warm-up page that fails to load.
	ScreenshotDir string
}

// Transport sends API requests from inside a Chromium context, so they carry the
// browser's cookies and fingerprint. Used for boards that block plain clients.
type Transport struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    Options
	log     *slog.Logger
}

var _ scraper.Transport = (*Transport)(nil)

func NewTransport(ctx context.Context, opts Options, log *slog.Logger) (*Transport, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = scraper.DefaultUserAgent
	}
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = 30000
	}

	cookies, err := LoadCookies(opts.CookieFiles...)
	if err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(toPlaywright(cookies)); err != nil {
			bctx.Close()
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
		log.Info("🍪 Loaded cookies", "count", len(cookies))
	}

	t := &Transport{pw: pw, browser: browser, context: bctx, opts: opts, log: log}
	t.warmup(ctx)
	return t, nil
}

// warmup visits each warm-up page so anti-bot cookies land in the context.
// Failures are logged and ignored.
func (t *Transport) warmup(ctx context.Context) {
	for _, u := range t.opts.WarmupURLs {
		page, err := t.context.NewPage()
		if err != nil {
			t.log.Warn("⚠️ Could not open warm-up page", "error", err)
			return
		}
		t.log.Info("🏠 Warming up", "url", u)
		if _, err := page.Goto(u, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(t.opts.TimeoutMs),
		}); err != nil {
			t.log.Warn("⚠️ Warm-up navigation failed", "url", u, "error", err)
			t.captureScreenshot(page, "warmup_"+u)
		} else {
			_ = HumanScroll(ctx, page)
			_ = MouseJiggle(ctx, page)
		}
		page.Close()
	}
}

func (t *Transport) Do(ctx context.Context, req *scraper.Request) (*scraper.Response, error) {
	if err := RandomDelay(ctx, t.opts.MinDelayMs, t.opts.MaxDelayMs); err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = "GET"
	}
	headers := map[string]string{"Accept": "application/json"}
	for k, v := range req.Headers {
		headers[k] = v
	}
	fetchOpts := playwright.APIRequestContextFetchOptions{
		Method:  playwright.String(method),
		Headers: headers,
		Timeout: playwright.Float(t.opts.TimeoutMs),
	}
	if req.Body != nil {
		headers["Content-Type"] = "application/json"
		fetchOpts.Data = req.Body
	}

	resp, err := t.context.Request().Fetch(req.FullURL(), fetchOpts)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	defer resp.Dispose()

	body, err := resp.Body()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	if !resp.Ok() {
		return nil, &scraper.StatusError{Method: method, URL: req.URL, StatusCode: resp.Status(), Body: string(body)}
	}
	return &scraper.Response{StatusCode: resp.Status(), Body: body}, nil
}

func (t *Transport) Close() error {
	if t.context != nil {
		t.context.Close()
	}
	if t.browser != nil {
		t.browser.Close()
	}
	if t.pw != nil {
		return t.pw.Stop()
	}
	return nil
}
