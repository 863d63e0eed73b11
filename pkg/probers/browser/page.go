package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/sre-norns/glance/pkg/prob"
)

// Page is a single browser tab owned by one prob run
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, cond WaitSpec) error
	Capture(ctx context.Context, capture CaptureSpec) ([]byte, error)
	Close() error
}

// Launcher starts a browser and opens a page with the given viewport
type Launcher func(ctx context.Context, opts prob.BrowserOptions, viewport Viewport, logger log.Logger) (Page, error)

var launch Launcher = LaunchChrome

var chromeCandidates = map[string][]string{
	"linux": {
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	},
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
}

// FindChrome locates a Chrome or Chromium binary in well-known locations and in PATH
func FindChrome() (string, error) {
	if envPath := os.Getenv("CHROME_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, path := range chromeCandidates[runtime.GOOS] {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("could not find Chrome executable")
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func chromeLogf(logger log.Logger) func(string, ...any) {
	return func(format string, args ...any) {
		_ = level.Debug(logger).Log("component", "chromedp", "msg", fmt.Sprintf(format, args...))
	}
}

// LaunchChrome starts a new Chrome process bound to ctx and opens a blank tab
func LaunchChrome(ctx context.Context, opts prob.BrowserOptions, viewport Viewport, logger log.Logger) (Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(viewport.Width, viewport.Height),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)

	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	execPath := opts.ExecPath
	if execPath == "" {
		if found, err := FindChrome(); err == nil {
			execPath = found
		}
	}
	if execPath != "" {
		_ = level.Debug(logger).Log("msg", "using chrome binary", "path", execPath)
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(chromeLogf(logger)),
		chromedp.WithErrorf(chromeLogf(logger)),
	)

	p := &chromePage{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
	}

	// First Run starts the browser
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(int64(viewport.Width), int64(viewport.Height), 1, false).Do(ctx)
	})); err != nil {
		p.cancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return p, nil
}

// run executes actions in the page, bounded by both the page lifetime and ctx
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}

	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) WaitVisible(ctx context.Context, cond WaitSpec) error {
	if cond.Text != "" {
		return p.run(ctx, chromedp.WaitVisible(TextXPath(cond.Text), chromedp.BySearch))
	}

	return p.run(ctx, chromedp.WaitVisible(cond.Selector, chromedp.ByQuery))
}

func (p *chromePage) Capture(ctx context.Context, capture CaptureSpec) ([]byte, error) {
	var buf []byte

	var action chromedp.Action
	switch {
	case capture.Clip != nil:
		clip := capture.Clip
		action = chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithClip(&page.Viewport{
					X:      clip.X,
					Y:      clip.Y,
					Width:  clip.Width,
					Height: clip.Height,
					Scale:  1,
				}).
				Do(ctx)
			return err
		})
	case capture.FullPage:
		// Quality of 100 selects PNG encoding
		action = chromedp.FullScreenshot(&buf, 100)
	default:
		action = chromedp.CaptureScreenshot(&buf)
	}

	if err := p.run(ctx, action); err != nil {
		return nil, err
	}

	return buf, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

// TextXPath builds an XPath expression matching elements whose own text contains the given fragment
func TextXPath(text string) string {
	return fmt.Sprintf("//body//*[text()[contains(normalize-space(.), %s)]]", xpathLiteral(text))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}

	return "concat(" + strings.Join(quoted, ", ") + ")"
}
