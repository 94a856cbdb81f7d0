package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// screenshotPath builds "<dir>/<name>_<timestamp>.png" with name reduced to
// filesystem-safe characters.
func screenshotPath(dir, name string, at time.Time) string {
	safe := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", safe, at.Format("2006-01-02_15-04-05")))
}

// captureScreenshot saves a full-page screenshot for debugging a failed page
// load. It is a no-op when no screenshot dir is configured.
func (t *Transport) captureScreenshot(page playwright.Page, name string) {
	if t.opts.ScreenshotDir == "" {
		return
	}
	if err := os.MkdirAll(t.opts.ScreenshotDir, 0755); err != nil {
		t.log.Warn("⚠️ Failed to create screenshot dir", "error", err)
		return
	}
	path := screenshotPath(t.opts.ScreenshotDir, name, time.Now())
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		t.log.Warn("⚠️ Failed to capture screenshot", "error", err)
		return
	}
	t.log.Info("📸 Screenshot saved", "path", path)
}
