package runner

import (
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/wyrd"
)

const (
	LabelOS   = "runner.os"
	LabelArch = "runner.arch"

	// Well-known labels used by runners:
	LabelBuildVersion = "runner.version"
)

type RunnerConfig struct {
	CustomLabels wyrd.Labels `help:"Extra labels to identify this instance of the runner in logs"`

	WorkingDirectory string        `help:"Directory relative to which screenshots are written" default:"." type:"existingdir"`
	Timeout          time.Duration `help:"Maximum duration alloted for each check run" default:"2m"`

	ChromePath string `help:"Path to the Chrome/Chromium binary" env:"CHROME_PATH"`
	Headless   bool   `help:"Run the browser without a visible window" default:"true" negatable:""`
	NoSandbox  bool   `help:"Disable the Chrome sandbox, required when running as root in containers" env:"GLANCE_NO_SANDBOX"`
}

func GetRuntimeLabels() wyrd.Labels {
	version := "devel"
	if bi, ok := debug.ReadBuildInfo(); ok {
		version = strings.Trim(bi.Main.Version, "()")
	}

	return wyrd.Labels{
		LabelArch:         runtime.GOARCH,
		LabelOS:           runtime.GOOS,
		LabelBuildVersion: version,
	}
}

func (c *RunnerConfig) GetEffectiveLabels() wyrd.Labels {
	return wyrd.MergeLabels(
		GetRuntimeLabels(),
		c.CustomLabels,
	)
}

// EffectiveTimeout returns the runner timeout, shortened by the prob's own timeout when it is set and smaller
func (c *RunnerConfig) EffectiveTimeout(probTimeout time.Duration) time.Duration {
	timeout := c.Timeout
	if probTimeout > 0 && (timeout <= 0 || probTimeout < timeout) {
		timeout = probTimeout
	}

	return timeout
}

func (c *RunnerConfig) RunOptions() prob.RunOptions {
	return prob.RunOptions{
		WorkingDirectory: c.WorkingDirectory,
		Browser: prob.BrowserOptions{
			ExecPath:  c.ChromePath,
			Headless:  c.Headless,
			NoSandbox: c.NoSandbox,
		},
	}
}
