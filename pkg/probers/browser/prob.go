// Package browser implements a prob that loads a page in a headless browser,
// waits for it to become ready and captures a screenshot of it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/glance/pkg/grace"
	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/wyrd"
)

const (
	Kind          = prob.Kind("browser")
	ImageMimeType = "image/png"
)

var ErrServerUnreachable = fmt.Errorf("server did not respond")

func init() {
	moduleVersion := "devel"
	if bi, ok := debug.ReadBuildInfo(); ok {
		moduleVersion = strings.Trim(bi.Main.Version, "()")
	}

	// Ignore double registration error
	_ = prob.RegisterProbKind(
		Kind,
		&Spec{},
		prob.ProbRegistration{
			RunFunc:     RunScript,
			Description: "Load a page in headless Chrome and save a screenshot of it",
			Version:     moduleVersion,
			Produce:     []string{prob.RelScreenshot},
		})
}

type probMetrics struct {
	attempts           prometheus.Gauge
	navigationDuration prometheus.Gauge
	ready              prometheus.Gauge
	screenshotBytes    prometheus.Gauge
}

func newProbMetrics(registry *prometheus.Registry) probMetrics {
	m := probMetrics{
		attempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "probe_browser_navigation_attempts",
			Help: "Number of navigation attempts made before the page loaded or attempts ran out",
		}),
		navigationDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "probe_browser_navigation_duration_seconds",
			Help: "Time spent navigating to the target, including retries",
		}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "probe_browser_ready",
			Help: "Whether the page loaded and its readiness condition was observed",
		}),
		screenshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "probe_browser_screenshot_bytes",
			Help: "Size of the captured screenshot",
		}),
	}

	if registry != nil {
		registry.MustRegister(m.attempts, m.navigationDuration, m.ready, m.screenshotBytes)
	}

	return m
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func RunScript(ctx context.Context, probSpec any, config prob.RunOptions, registry *prometheus.Registry, logger log.Logger) (prob.RunStatus, []prob.Artifact, error) {
	given, ok := probSpec.(*Spec)
	if !ok {
		return prob.RunFinishedError, nil, fmt.Errorf("%w: got %q, expected %q", wyrd.ErrUnexpectedSpecType, reflect.TypeOf(probSpec), reflect.TypeOf(&Spec{}))
	}

	spec := given.WithDefaults()
	if err := spec.Validate(); err != nil {
		return prob.RunFinishedError, nil, err
	}

	metrics := newProbMetrics(registry)

	_ = level.Info(logger).Log("msg", "starting browser", "target", spec.Target, "viewport", fmt.Sprintf("%dx%d", spec.Viewport.Width, spec.Viewport.Height))
	page, err := launch(ctx, config.Browser, spec.Viewport, logger)
	if err != nil {
		return prob.RunFinishedError, nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			_ = level.Warn(logger).Log("msg", "failed to close browser", "err", err)
		}
	}()

	start := time.Now()
	attempts, navErr := navigateWithRetry(ctx, page, spec.Target, spec.NavigationTimeout, spec.Retry, logger)
	metrics.attempts.Set(float64(attempts))
	metrics.navigationDuration.Set(time.Since(start).Seconds())

	ready := navErr == nil
	if navErr != nil {
		if ctx.Err() != nil {
			return prob.RunNotFinished, nil, ctx.Err()
		}

		if spec.Retry.OnExhausted == AbortOnExhausted {
			_ = level.Error(logger).Log("msg", "server did not start in time", "target", spec.Target, "attempts", attempts)
			return prob.RunFinishedError, nil, grace.WrapError(
				ErrServerUnreachable,
				fmt.Sprintf("%s to respond within %d attempts", spec.Target, spec.Retry.Attempts),
				navErr.Error(),
				"make sure the web application is running and listening on the target address",
			)
		}

		_ = level.Warn(logger).Log("msg", "server did not respond, proceeding anyway", "target", spec.Target, "attempts", attempts, "err", navErr)
	}

	if spec.Wait.IsSet() {
		waitCtx, cancel := context.WithTimeout(ctx, spec.Wait.Timeout)
		err := page.WaitVisible(waitCtx, spec.Wait)
		cancel()

		switch {
		case err == nil:
			_ = level.Info(logger).Log("msg", "readiness condition observed", "condition", spec.Wait)
		case ctx.Err() != nil:
			return prob.RunNotFinished, nil, ctx.Err()
		default:
			ready = false
			_ = level.Warn(logger).Log("msg", "readiness condition not observed, taking screenshot anyway", "condition", spec.Wait, "timeout", spec.Wait.Timeout, "err", err)
		}
	}
	metrics.ready.Set(boolToFloat(ready))

	if spec.Settle > 0 {
		_ = level.Debug(logger).Log("msg", "letting the page settle", "duration", spec.Settle)
		if err := sleep(ctx, spec.Settle); err != nil {
			return prob.RunNotFinished, nil, err
		}
	}

	data, err := page.Capture(ctx, spec.Capture)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return prob.RunNotFinished, nil, err
		}
		return prob.RunFinishedError, nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if len(data) == 0 {
		return prob.RunFinishedError, nil, fmt.Errorf("failed to capture screenshot: empty image")
	}
	metrics.screenshotBytes.Set(float64(len(data)))
	_ = level.Info(logger).Log("msg", "screenshot captured", "bytes", len(data), "output", spec.Output)

	status := prob.RunFinishedSuccess
	if !ready {
		status = prob.RunFinishedFailed
	}

	return status, []prob.Artifact{
		{
			Rel:      prob.RelScreenshot,
			Name:     spec.Output,
			MimeType: ImageMimeType,
			Content:  data,
		},
	}, nil
}
