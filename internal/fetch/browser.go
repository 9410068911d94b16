package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserOptions configures headless rendering.
type BrowserOptions struct {
	Timeout time.Duration
	// WaitSelector is awaited before the DOM is captured; "body" when empty.
	WaitSelector string
	// Settle gives client-side scripts time to populate the page.
	Settle time.Duration
}

// Renderer renders a page and returns the resulting HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// BrowserRenderer renders pages with a local headless Chrome via chromedp.
type BrowserRenderer struct {
	opts   BrowserOptions
	logger *zap.Logger
}

// NewBrowserRenderer creates a renderer. Chrome or Chromium must be installed.
func NewBrowserRenderer(opts BrowserOptions, logger *zap.Logger) *BrowserRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserRenderer{opts: opts, logger: logger}
}

// Render navigates to url in a fresh headless browser and returns the outer HTML.
func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	r.logger.Debug("rendering page in headless browser", zap.String("url", url))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.opts.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(r.opts.WaitSelector),
		chromedp.Sleep(r.opts.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	r.logger.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}
