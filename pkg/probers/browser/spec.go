package browser

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/sre-norns/glance/pkg/prob"
)

const (
	DefaultAttempts          = 30
	DefaultInterval          = time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultWaitTimeout       = 30 * time.Second
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
)

var ErrInvalidSpec = fmt.Errorf("invalid browser prob spec")

// ExhaustedAction decides what happens once all navigation attempts have failed
type ExhaustedAction string

const (
	// Log and go on with the readiness wait and the screenshot regardless
	ContinueOnExhausted ExhaustedAction = "continue"
	// Stop the run with an error
	AbortOnExhausted ExhaustedAction = "abort"
)

type RetrySpec struct {
	Attempts    int             `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Interval    time.Duration   `json:"interval,omitempty" yaml:"interval,omitempty"`
	OnExhausted ExhaustedAction `json:"onExhausted,omitempty" yaml:"onExhausted,omitempty"`
}

// WaitSpec is a readiness predicate: a CSS selector or a text fragment that must become visible
type WaitSpec struct {
	Selector string        `json:"selector,omitempty" yaml:"selector,omitempty"`
	Text     string        `json:"text,omitempty" yaml:"text,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func (w WaitSpec) IsSet() bool {
	return w.Selector != "" || w.Text != ""
}

func (w WaitSpec) String() string {
	if w.Text != "" {
		return fmt.Sprintf("text=%q", w.Text)
	}

	return fmt.Sprintf("selector=%q", w.Selector)
}

// Clip is a rectangle of the page in CSS pixels
type Clip struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// CaptureSpec selects the captured region. Viewport is captured when neither clip nor full page is set.
type CaptureSpec struct {
	FullPage bool  `json:"fullPage,omitempty" yaml:"fullPage,omitempty"`
	Clip     *Clip `json:"clip,omitempty" yaml:"clip,omitempty"`
}

type Viewport struct {
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

type Spec struct {
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	Retry             RetrySpec     `json:"retry,omitempty" yaml:"retry,omitempty"`
	NavigationTimeout time.Duration `json:"navigationTimeout,omitempty" yaml:"navigationTimeout,omitempty"`

	Wait   WaitSpec      `json:"wait,omitempty" yaml:"wait,omitempty"`
	Settle time.Duration `json:"settle,omitempty" yaml:"settle,omitempty"`

	Capture  CaptureSpec `json:"capture,omitempty" yaml:"capture,omitempty"`
	Viewport Viewport    `json:"viewport,omitempty" yaml:"viewport,omitempty"`
}

// WithDefaults returns a copy with unset values filled in
func (s Spec) WithDefaults() Spec {
	if s.Retry.Attempts == 0 {
		s.Retry.Attempts = DefaultAttempts
	}
	if s.Retry.Interval == 0 {
		s.Retry.Interval = DefaultInterval
	}
	if s.Retry.OnExhausted == "" {
		s.Retry.OnExhausted = ContinueOnExhausted
	}
	if s.NavigationTimeout == 0 {
		s.NavigationTimeout = DefaultNavigationTimeout
	}
	if s.Wait.IsSet() && s.Wait.Timeout == 0 {
		s.Wait.Timeout = DefaultWaitTimeout
	}
	if s.Viewport.Width == 0 {
		s.Viewport.Width = DefaultViewportWidth
	}
	if s.Viewport.Height == 0 {
		s.Viewport.Height = DefaultViewportHeight
	}
	if s.Capture.Clip != nil {
		clip := *s.Capture.Clip
		s.Capture.Clip = &clip
	}

	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}

// Validate checks a spec that has defaults applied
func (s Spec) Validate() error {
	if s.Target == "" {
		return prob.ErrNoTarget
	}

	u, err := url.Parse(s.Target)
	if err != nil {
		return invalid("target %q: %v", s.Target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("target %q: unsupported scheme %q", s.Target, u.Scheme)
	}

	if s.Output == "" {
		return invalid("no output file")
	}
	if !strings.EqualFold(filepath.Ext(s.Output), ".png") {
		return invalid("output %q: screenshots are saved as .png", s.Output)
	}

	if s.Retry.Attempts < 1 {
		return invalid("retry.attempts must be positive, got %d", s.Retry.Attempts)
	}
	if s.Retry.Interval < 0 {
		return invalid("retry.interval must not be negative, got %v", s.Retry.Interval)
	}
	switch s.Retry.OnExhausted {
	case ContinueOnExhausted, AbortOnExhausted:
	default:
		return invalid("retry.onExhausted: unknown action %q", s.Retry.OnExhausted)
	}

	if s.Wait.Selector != "" && s.Wait.Text != "" {
		return invalid("wait: selector and text are mutually exclusive")
	}
	if s.Wait.Timeout < 0 || s.Settle < 0 || s.NavigationTimeout < 0 {
		return invalid("timeouts must not be negative")
	}

	if clip := s.Capture.Clip; clip != nil {
		if s.Capture.FullPage {
			return invalid("capture: clip and fullPage are mutually exclusive")
		}
		if clip.Width <= 0 || clip.Height <= 0 {
			return invalid("capture.clip: width and height must be positive, got %vx%v", clip.Width, clip.Height)
		}
		if clip.X < 0 || clip.Y < 0 {
			return invalid("capture.clip: origin must not be negative, got %v,%v", clip.X, clip.Y)
		}
	}

	if s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		return invalid("viewport must be positive, got %dx%d", s.Viewport.Width, s.Viewport.Height)
	}

	return nil
}
