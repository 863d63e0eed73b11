package browser

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kit/log"
	"github.com/sre-norns/glance/pkg/prob"
)

var errConnectionRefused = errors.New("net::ERR_CONNECTION_REFUSED")

// fakePage fails the first failNavigations navigations, or all of them when negative
type fakePage struct {
	mu sync.Mutex

	failNavigations int
	navigations     int
	targets         []string

	waitErr   error
	blockWait bool
	waited    []WaitSpec

	image      []byte
	captureErr error
	captured   []CaptureSpec

	closed bool
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.navigations++
	p.targets = append(p.targets, url)
	if p.failNavigations < 0 || p.navigations <= p.failNavigations {
		return errConnectionRefused
	}

	return ctx.Err()
}

func (p *fakePage) WaitVisible(ctx context.Context, cond WaitSpec) error {
	p.mu.Lock()
	p.waited = append(p.waited, cond)
	block, err := p.blockWait, p.waitErr
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}

	return err
}

func (p *fakePage) Capture(ctx context.Context, capture CaptureSpec) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.captured = append(p.captured, capture)
	if p.captureErr != nil {
		return nil, p.captureErr
	}

	return p.image, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

// useFakeLauncher routes launches to the given page for the duration of the test
func useFakeLauncher(t interface{ Cleanup(func()) }, page *fakePage, launchErr error) {
	previous := launch
	launch = func(context.Context, prob.BrowserOptions, Viewport, log.Logger) (Page, error) {
		if launchErr != nil {
			return nil, launchErr
		}
		return page, nil
	}
	t.Cleanup(func() { launch = previous })
}
