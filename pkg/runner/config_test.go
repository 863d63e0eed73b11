package runner_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/sre-norns/glance/pkg/runner"
	"github.com/sre-norns/glance/pkg/wyrd"
	"github.com/stretchr/testify/require"
)

func TestEffectiveTimeout(t *testing.T) {
	testCases := map[string]struct {
		runner time.Duration
		prob   time.Duration
		expect time.Duration
	}{
		"runner-only":  {runner: time.Minute, expect: time.Minute},
		"prob-shorter": {runner: time.Minute, prob: 5 * time.Second, expect: 5 * time.Second},
		"prob-longer":  {runner: time.Minute, prob: time.Hour, expect: time.Minute},
		"runner-unset": {prob: time.Second, expect: time.Second},
		"both-unset":   {},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			cfg := runner.RunnerConfig{Timeout: test.runner}
			require.Equal(t, test.expect, cfg.EffectiveTimeout(test.prob))
		})
	}
}

func TestEffectiveLabels(t *testing.T) {
	cfg := runner.RunnerConfig{
		CustomLabels: wyrd.Labels{"team": "web", runner.LabelOS: "plan9"},
	}

	labels := cfg.GetEffectiveLabels()
	require.Equal(t, "web", labels.Get("team"))
	require.Equal(t, "plan9", labels.Get(runner.LabelOS))
	require.Equal(t, runtime.GOARCH, labels.Get(runner.LabelArch))
	require.True(t, labels.Has(runner.LabelBuildVersion))
}

func TestRunOptions(t *testing.T) {
	cfg := runner.RunnerConfig{
		WorkingDirectory: "/tmp/out",
		ChromePath:       "/usr/bin/chromium",
		Headless:         true,
		NoSandbox:        true,
	}

	opts := cfg.RunOptions()
	require.Equal(t, "/tmp/out", opts.WorkingDirectory)
	require.Equal(t, "/usr/bin/chromium", opts.Browser.ExecPath)
	require.True(t, opts.Browser.Headless)
	require.True(t, opts.Browser.NoSandbox)
}
